// Package pipeline drives a conversion run: inventory, per-page
// compositing and encoding, document assembly, optional OCR, cleanup.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/scan2pdf/internal/assembler"
	"github.com/local/scan2pdf/internal/compositor"
	"github.com/local/scan2pdf/internal/config"
	"github.com/local/scan2pdf/internal/encoder"
	"github.com/local/scan2pdf/internal/inventory"
	"github.com/local/scan2pdf/internal/metrics"
	"github.com/local/scan2pdf/internal/ocr"
	"github.com/local/scan2pdf/internal/pdfcheck"
	"github.com/local/scan2pdf/internal/storage"
	"github.com/local/scan2pdf/internal/tiffio"
)

// OutputName is the final document, written at the scan-source root.
const OutputName = "out.pdf"

// pdfDirName holds the intermediate per-page PDFs.
const pdfDirName = "pdf"

// Dependencies are the capability interfaces the driver calls. Tests
// substitute fakes; DefaultDependencies wires the real collaborators.
type Dependencies struct {
	Collect   func(srcDir string) (*inventory.Set, error)
	Decode    func(path string) (image.Image, tiffio.Info, error)
	Encode    func(r compositor.Raster, outPath string, opts encoder.Options) error
	Merge     func(pagePDFs []string, outPath string) error
	PageCount func(path string) (int, error)
	OCR       ocr.Engine
	Opener    pdfcheck.Opener
	Archive   func(ctx context.Context, uri, path string) error
}

// DefaultDependencies wires the production collaborators.
func DefaultDependencies(cfg config.Config) Dependencies {
	deps := Dependencies{
		Collect:   inventory.Collect,
		Decode:    tiffio.Decode,
		Encode:    encoder.Encode,
		Merge:     assembler.Merge,
		PageCount: assembler.PageCount,
		Opener:    pdfcheck.FitzOpener{},
	}
	if cfg.OCREnabled() {
		deps.OCR = ocr.NewOCRmyPDF(cfg.OCR.Binary, cfg.OCR.Timeout)
	}
	if cfg.Archive.S3URI != "" {
		deps.Archive = func(ctx context.Context, uri, path string) error {
			cli, err := storage.NewS3Client(ctx)
			if err != nil {
				return err
			}
			return cli.Upload(ctx, uri, path)
		}
	}
	return deps
}

// Report summarizes a completed run.
type Report struct {
	Pages         int
	StandardPages int
	MixedPages    int
	OutputPath    string
	OCRApplied    bool
	OCRErr        error
	TextLayer     *pdfcheck.Result
}

// Pipeline executes one conversion run over a single scan-source
// directory. A run either completes or fails; there is no partial
// document output.
type Pipeline struct {
	cfg  config.Config
	deps Dependencies
}

func New(cfg config.Config, deps Dependencies) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run walks the full state machine. On a fatal error the intermediate
// pdf/ directory is left intact for inspection and no out.pdf is written.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	srcDir := p.cfg.Pipeline.SourceDir
	log.Info().Str("run_id", runID).Str("source", srcDir).Msg("conversion run started")

	set, err := p.collect(srcDir)
	if err != nil {
		return nil, err
	}

	pdfDir := filepath.Join(srcDir, pdfDirName)
	if err := recreateDir(pdfDir); err != nil {
		return nil, &Error{Stage: StagePages, Err: err}
	}

	pagePDFs, err := p.processPages(set, pdfDir)
	if err != nil {
		return nil, err
	}

	combined, err := p.assemble(set, pagePDFs, srcDir, runID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Pages:         len(set.Pages),
		StandardPages: set.StandardCount,
		MixedPages:    set.MixedCount,
		OutputPath:    filepath.Join(srcDir, OutputName),
	}

	p.finalize(ctx, combined, report)
	p.archive(ctx, report)
	p.cleanup(pdfDir)

	log.Info().
		Str("run_id", runID).
		Int("pages", report.Pages).
		Bool("ocr", report.OCRApplied).
		Str("output", report.OutputPath).
		Msg("conversion run complete")

	return report, nil
}

func (p *Pipeline) collect(srcDir string) (*inventory.Set, error) {
	start := time.Now()
	set, err := p.deps.Collect(srcDir)
	metrics.ObserveStage(string(StageInventory), time.Since(start))
	if err != nil {
		return nil, &Error{Stage: StageInventory, Err: err}
	}
	return set, nil
}

// processPages composites and encodes every page in order. Any page
// failure aborts the run.
func (p *Pipeline) processPages(set *inventory.Set, pdfDir string) ([]string, error) {
	opts := encoder.Options{JPEGQuality: p.cfg.JPEGQuality()}
	targetBGDPI := float64(p.cfg.Pipeline.BackgroundDPI)

	var pagePDFs []string
	for _, pg := range set.Pages {
		start := time.Now()
		outPath := filepath.Join(pdfDir, pg.Base()+".pdf")

		log.Info().Str("page", pg.Name).Str("kind", string(pg.Kind)).Msg("processing page")

		raster, err := p.composePage(pg, targetBGDPI)
		if err == nil {
			err = p.deps.Encode(raster, outPath, opts)
		}
		metrics.ObserveStage(string(StagePages), time.Since(start))
		if err != nil {
			metrics.PageProcessed(string(pg.Kind), "failed")
			return nil, &Error{Stage: StagePages, Page: pg.Name, Err: err}
		}
		metrics.PageProcessed(string(pg.Kind), "success")
		pagePDFs = append(pagePDFs, outPath)
	}
	return pagePDFs, nil
}

// composePage produces the output-ready raster for one page.
func (p *Pipeline) composePage(pg inventory.Page, targetBGDPI float64) (compositor.Raster, error) {
	if pg.Kind == inventory.Standard {
		img, info, err := p.deps.Decode(pg.Path)
		if err != nil {
			return compositor.Raster{}, err
		}
		return compositor.Raster{Image: img, DPI: info.DPI}, nil
	}

	fg, _, err := p.deps.Decode(pg.Foreground)
	if err != nil {
		return compositor.Raster{}, fmt.Errorf("foreground: %w", err)
	}
	bg, _, err := p.deps.Decode(pg.Background)
	if err != nil {
		return compositor.Raster{}, fmt.Errorf("background: %w", err)
	}
	return compositor.ComposeMixed(fg, bg, pg.DPI, targetBGDPI)
}

// assemble merges the page PDFs into a temporary combined document and
// verifies its page count against the inventory.
func (p *Pipeline) assemble(set *inventory.Set, pagePDFs []string, srcDir, runID string) (string, error) {
	start := time.Now()
	combined := filepath.Join(srcDir, fmt.Sprintf("out-combined-%s.pdf", runID[:8]))
	err := p.deps.Merge(pagePDFs, combined)
	metrics.ObserveStage(string(StageAssembly), time.Since(start))
	if err != nil {
		_ = os.Remove(combined)
		return "", &Error{Stage: StageAssembly, Err: err}
	}

	if p.deps.PageCount != nil {
		n, err := p.deps.PageCount(combined)
		if err != nil {
			_ = os.Remove(combined)
			return "", &Error{Stage: StageAssembly, Err: err}
		}
		if n != len(set.Pages) {
			_ = os.Remove(combined)
			return "", &Error{Stage: StageAssembly, Err: fmt.Errorf(
				"merged document has %d pages, inventory has %d", n, len(set.Pages))}
		}
	}
	return combined, nil
}

// finalize runs the optional OCR stage and moves the result to out.pdf.
// OCR failure is a warning: the merged document remains the valid output.
func (p *Pipeline) finalize(ctx context.Context, combined string, report *Report) {
	final := report.OutputPath

	if p.deps.OCR != nil {
		ocrTmp := combined + ".ocr"
		err := p.deps.OCR.Apply(ctx, combined, ocrTmp, p.cfg.Pipeline.Languages)
		if err == nil {
			if renameErr := os.Rename(ocrTmp, final); renameErr != nil {
				err = fmt.Errorf("move OCR output into place: %w", renameErr)
			} else {
				metrics.OCRRun("success")
				report.OCRApplied = true
				_ = os.Remove(combined)
				p.probe(report)
				return
			}
		}
		metrics.OCRRun("failed")
		report.OCRErr = err
		_ = os.Remove(ocrTmp)
		log.Warn().Err(err).Msg("OCR failed, keeping merged document without text layer")
	}

	if err := os.Rename(combined, final); err != nil {
		// Rename within one directory should not fail; fall back to
		// leaving the combined file and pointing the report at it.
		log.Error().Err(err).Msg("could not move merged document to out.pdf")
		report.OutputPath = combined
		return
	}
	p.probe(report)
}

// probe best-effort checks the final document for a text layer.
func (p *Pipeline) probe(report *Report) {
	if p.deps.Opener == nil {
		return
	}
	res, err := pdfcheck.Probe(p.deps.Opener, report.OutputPath, 0)
	if err != nil {
		log.Debug().Err(err).Msg("text layer probe failed")
		return
	}
	report.TextLayer = &res
	if report.OCRApplied && !res.HasTextLayer {
		log.Warn().Msg("OCR reported success but no extractable text found")
	}
}

// archive uploads the final document when an archive destination is set.
// Upload failure does not fail the run; the local document is the output.
func (p *Pipeline) archive(ctx context.Context, report *Report) {
	uri := p.cfg.Archive.S3URI
	if uri == "" || p.deps.Archive == nil {
		return
	}
	if err := p.deps.Archive(ctx, uri, report.OutputPath); err != nil {
		log.Warn().Err(err).Str("uri", uri).Msg("archive upload failed")
	}
}

// cleanup removes the intermediate PDF directory unless retention was
// requested. Only reached on successful runs.
func (p *Pipeline) cleanup(pdfDir string) {
	if p.cfg.Pipeline.KeepPDFs {
		log.Info().Str("dir", pdfDir).Msg("keeping per-page PDFs")
		return
	}
	if err := os.RemoveAll(pdfDir); err != nil {
		log.Warn().Err(err).Str("dir", pdfDir).Msg("could not remove intermediate PDF directory")
	}
}

func recreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
