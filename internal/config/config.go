package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds optional Axiom log-forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// PipelineConfig defines the conversion run itself: where the scan source
// lives and how pages are composited and encoded.
type PipelineConfig struct {
	SourceDir     string
	BackgroundDPI int    // downsample target for mixed-page backgrounds, 0 disables
	Quality       string // screen|ebook|printer|prepress
	Languages     []string
	KeepPDFs      bool
}

// OCRConfig defines the external OCR engine invocation.
type OCRConfig struct {
	Binary  string
	Timeout time.Duration
}

// MetricsConfig enables the optional Prometheus endpoint for long runs.
type MetricsConfig struct {
	Addr string
}

// ArchiveConfig optionally uploads the final document to S3.
type ArchiveConfig struct {
	S3URI string
}

// Config is the top-level configuration.
type Config struct {
	Logging  LoggingConfig
	Axiom    AxiomConfig
	Pipeline PipelineConfig
	OCR      OCRConfig
	Metrics  MetricsConfig
	Archive  ArchiveConfig
}

// qualityJPEG maps the quality presets (named after the ghostscript presets
// the upstream tool documents) to JPEG encoder quality.
var qualityJPEG = map[string]int{
	"screen":   50,
	"ebook":    70,
	"printer":  85,
	"prepress": 95,
}

// FromEnv loads configuration from environment with sensible defaults.
// Command-line flags are layered on top by the caller.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_scan2pdf",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Pipeline = PipelineConfig{
		SourceDir:     getEnv("SCAN_SOURCE_DIR", "."),
		BackgroundDPI: parseInt(getEnv("SCAN_BACKGROUND_DPI", "300"), 300),
		Quality:       getEnv("SCAN_QUALITY", "printer"),
		Languages:     ParseLanguages(getEnv("SCAN_OCR_LANG", "deu")),
		KeepPDFs:      parseBool(getEnv("SCAN_KEEP_PDFS", "false")),
	}

	cfg.OCR = OCRConfig{
		Binary:  getEnv("OCR_BINARY", "ocrmypdf"),
		Timeout: parseDuration(getEnv("OCR_TIMEOUT", "30m"), 30*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Addr: getEnv("METRICS_ADDR", "")}
	cfg.Archive = ArchiveConfig{S3URI: getEnv("SCAN_ARCHIVE_S3", "")}

	return cfg
}

// Validate rejects invalid parameters before any page processing begins.
func (c Config) Validate() error {
	if c.Pipeline.BackgroundDPI < 0 {
		return fmt.Errorf("background dpi must not be negative, got %d", c.Pipeline.BackgroundDPI)
	}
	if _, ok := qualityJPEG[c.Pipeline.Quality]; !ok {
		return fmt.Errorf("unknown quality preset %q (want screen, ebook, printer or prepress)", c.Pipeline.Quality)
	}
	if c.Pipeline.SourceDir == "" {
		return fmt.Errorf("scan source directory must not be empty")
	}
	if u := c.Archive.S3URI; u != "" && !strings.HasPrefix(u, "s3://") {
		return fmt.Errorf("archive destination must be an s3:// URI, got %q", u)
	}
	return nil
}

// JPEGQuality resolves the configured quality preset to a JPEG quality value.
func (c Config) JPEGQuality() int {
	if q, ok := qualityJPEG[c.Pipeline.Quality]; ok {
		return q
	}
	return qualityJPEG["printer"]
}

// OCREnabled reports whether a language selection requests OCR.
func (c Config) OCREnabled() bool { return len(c.Pipeline.Languages) > 0 }

// ParseLanguages splits a '+'-joined language selection ("eng+deu").
// Empty string or "none" disables OCR.
func ParseLanguages(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil
	}
	var langs []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
