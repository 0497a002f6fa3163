// Package assembler concatenates per-page PDFs into the final document.
package assembler

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// Merge concatenates pagePDFs, in the given order, into outPath.
// A missing page file is an invariant violation from an earlier stage
// and fails the merge before pdfcpu is invoked.
func Merge(pagePDFs []string, outPath string) error {
	if len(pagePDFs) == 0 {
		return fmt.Errorf("merge: no page PDFs to assemble")
	}
	for _, p := range pagePDFs {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("merge: expected page PDF missing: %s: %w", p, err)
		}
	}

	conf := model.NewDefaultConfiguration()
	if err := api.MergeCreateFile(pagePDFs, outPath, false, conf); err != nil {
		return fmt.Errorf("merge %d pages into %s: %w", len(pagePDFs), outPath, err)
	}

	log.Info().Int("pages", len(pagePDFs)).Str("file", outPath).Msg("pages merged")
	return nil
}

// PageCount returns the number of pages in a PDF, used as the post-merge
// consistency check against the inventory.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count of %s: %w", path, err)
	}
	return n, nil
}
