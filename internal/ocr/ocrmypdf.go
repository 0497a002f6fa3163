// Package ocr adds a searchable text layer to the assembled document by
// delegating to an external OCR engine.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine applies OCR to a PDF. Implementations must leave inPath
// untouched on failure; the caller treats OCR failure as non-fatal.
type Engine interface {
	Apply(ctx context.Context, inPath, outPath string, languages []string) error
}

// OCRmyPDF invokes the ocrmypdf command-line tool.
type OCRmyPDF struct {
	Binary  string
	Timeout time.Duration
}

// NewOCRmyPDF returns an engine using the given binary name
// ("ocrmypdf" if empty).
func NewOCRmyPDF(binary string, timeout time.Duration) *OCRmyPDF {
	if binary == "" {
		binary = "ocrmypdf"
	}
	return &OCRmyPDF{Binary: binary, Timeout: timeout}
}

// CheckInstallation verifies the engine is available in PATH.
func (o *OCRmyPDF) CheckInstallation() error {
	out, err := exec.Command(o.Binary, "--version").Output()
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", o.Binary, err)
	}
	log.Info().Str("version", strings.TrimSpace(string(out))).Msg("OCR engine found")
	return nil
}

// Apply runs OCR on inPath writing the result to outPath.
func (o *OCRmyPDF) Apply(ctx context.Context, inPath, outPath string, languages []string) error {
	if len(languages) == 0 {
		return fmt.Errorf("ocr: no languages selected")
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	args := buildArgs(inPath, outPath, languages)
	log.Info().Str("cmd", o.Binary+" "+strings.Join(args, " ")).Msg("running OCR")

	start := time.Now()
	cmd := exec.CommandContext(ctx, o.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ocr timed out after %v", o.Timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("ocr failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ocr failed: %w", err)
	}

	log.Info().Dur("duration", time.Since(start)).Str("file", outPath).Msg("OCR complete")
	return nil
}

// buildArgs assembles the ocrmypdf invocation. Language codes are joined
// with '+' as the engine expects for multilingual documents.
func buildArgs(inPath, outPath string, languages []string) []string {
	return []string{
		"--quiet",
		"--output-type", "pdf",
		"--language", strings.Join(languages, "+"),
		"--redo-ocr",
		"--optimize", "0",
		"--rotate-pages", "--rotate-pages-threshold", "2",
		inPath,
		outPath,
	}
}
