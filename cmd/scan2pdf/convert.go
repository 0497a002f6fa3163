package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/scan2pdf/internal/config"
	"github.com/local/scan2pdf/internal/inventory"
	"github.com/local/scan2pdf/internal/logger"
	"github.com/local/scan2pdf/internal/metrics"
	"github.com/local/scan2pdf/internal/pipeline"
)

func convertCmd() *cobra.Command {
	var (
		dpi      int
		lang     string
		quality  string
		keepPDFs bool
		listOnly bool
	)

	cmd := &cobra.Command{
		Use:   "convert [source-dir]",
		Short: "Build out.pdf from the out/ TIFFs of a scan source directory",
		Long: `Reads the cleanup tool's output TIFFs from <source-dir>/out (with mixed
pages split into out/foreground and out/background), composites and
encodes each page, merges everything into a single document, and
optionally runs OCR over the result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if len(args) == 1 {
				cfg.Pipeline.SourceDir = args[0]
			}
			if cmd.Flags().Changed("dpi") {
				cfg.Pipeline.BackgroundDPI = dpi
			}
			if cmd.Flags().Changed("lang") {
				cfg.Pipeline.Languages = config.ParseLanguages(lang)
			}
			if cmd.Flags().Changed("quality") {
				cfg.Pipeline.Quality = quality
			}
			if cmd.Flags().Changed("keepPDFs") {
				cfg.Pipeline.KeepPDFs = keepPDFs
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := logger.Init(cfg.Logging, cfg.Axiom); err != nil {
				return err
			}
			defer logger.Close()

			if listOnly {
				return listPages(cfg)
			}
			return run(cfg)
		},
	}

	cmd.Flags().IntVar(&dpi, "dpi", 300, "target DPI for background downsampling, 0 disables")
	cmd.Flags().StringVar(&lang, "lang", "deu", "OCR language(s), e.g. 'eng' or 'eng+deu'; 'none' skips OCR")
	cmd.Flags().StringVar(&quality, "quality", "printer", "encoding quality preset: screen, ebook, printer or prepress")
	cmd.Flags().BoolVar(&keepPDFs, "keepPDFs", false, "keep the per-page pdf/ directory after the run")
	cmd.Flags().BoolVar(&listOnly, "list-only", false, "only list the pages to be processed and exit")

	return cmd
}

func run(cfg config.Config) error {
	metrics.Init()
	if cfg.Metrics.Addr != "" {
		metrics.Serve(cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, pipeline.DefaultDependencies(cfg))
	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nProcessing complete!\n")
	fmt.Printf(" - Standard pages: %d\n", report.StandardPages)
	fmt.Printf(" - Mixed pages:    %d\n", report.MixedPages)
	fmt.Printf(" - Total pages:    %d\n", report.Pages)
	fmt.Printf(" - Output:         %s\n", report.OutputPath)
	switch {
	case report.OCRApplied:
		fmt.Println(" - OCR:            applied")
	case report.OCRErr != nil:
		fmt.Printf(" - OCR:            FAILED (%v), document has no text layer\n", report.OCRErr)
	default:
		fmt.Println(" - OCR:            skipped")
	}
	if tl := report.TextLayer; tl != nil {
		if tl.HasTextLayer {
			fmt.Printf(" - Text layer:     searchable (%d chars in %d sampled pages)\n", tl.Chars, tl.SampledPages)
		} else {
			fmt.Println(" - Text layer:     none")
		}
	}
	return nil
}

func listPages(cfg config.Config) error {
	set, err := inventory.Collect(cfg.Pipeline.SourceDir)
	if err != nil {
		return err
	}

	fmt.Println("TIFF files to be processed:")
	for _, pg := range set.Pages {
		fmt.Printf("  %-16s (%s, %dx%d px, %g dpi)\n", pg.Name, pg.Kind, pg.Width, pg.Height, pg.DPI)
	}
	fmt.Printf("\nSummary:\n  %d standard pages\n  %d mixed pages\n  Total: %d pages\n",
		set.StandardCount, set.MixedCount, len(set.Pages))

	log.Debug().Int("pages", len(set.Pages)).Msg("list-only run finished")
	return nil
}
