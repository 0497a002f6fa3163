package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/local/scan2pdf/internal/config"
)

var (
	global zerolog.Logger
	fwd    *axiomForwarder
)

// Init sets up the global logger: console output (pretty for interactive
// runs), optional rotating log file, optional Axiom forwarding.
func Init(lc config.LoggingConfig, ac config.AxiomConfig) error {
	var writers []io.Writer

	if lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		})
	}

	if lc.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		writers = append(writers, os.Stderr)
	}

	if ac.Send && ac.APIKey != "" {
		f, err := newAxiomForwarder(ac)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
		} else {
			fwd = f
			writers = append(writers, f)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	global = zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	log.Logger = global
	return nil
}

// Close flushes any buffered external forwarders.
func Close() {
	if fwd != nil {
		_ = fwd.Close()
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

// decodeEvent turns a zerolog JSON line into a generic event map.
func decodeEvent(p []byte) map[string]interface{} {
	var ev map[string]interface{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]interface{}{"message": string(p), "level": "info"}
	}
	return ev
}
