// Package inventory builds the ordered page list from the fixed output
// layout of the scan-cleanup tool: out/ holds one TIFF per page, with
// out/foreground and out/background holding the split layers of mixed
// pages under the same file names.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/scan2pdf/internal/tiffio"
)

// Kind classifies a scan page.
type Kind string

const (
	Standard Kind = "standard"
	Mixed    Kind = "mixed"
)

// Page describes one scan page and where its pixel data lives.
type Page struct {
	Name       string // base filename, e.g. im0001.tif
	Index      int    // position in sorted page order
	Kind       Kind
	Path       string // combined image in out/
	Foreground string // set for mixed pages only
	Background string // set for mixed pages only
	Width      int
	Height     int
	DPI        float64
}

// Base returns the page name without its extension, used for naming
// derived artifacts.
func (p Page) Base() string {
	return strings.TrimSuffix(p.Name, filepath.Ext(p.Name))
}

// Set is the result of scanning one source directory.
type Set struct {
	Pages         []Page
	StandardCount int
	MixedCount    int
}

// MismatchError reports a mixed page whose foreground and background
// layers disagree on geometry or resolution.
type MismatchError struct {
	Page   string
	Detail string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mixed page %s: foreground/background mismatch: %s", e.Page, e.Detail)
}

// MissingLayerError reports a page with only one of its two layers.
type MissingLayerError struct {
	Page    string
	Missing string
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("mixed page %s: %s layer missing", e.Page, e.Missing)
}

// Collect scans srcDir/out and its foreground/background subdirectories
// and returns the ordered page set. It only reads; nothing is written.
func Collect(srcDir string) (*Set, error) {
	outDir := filepath.Join(srcDir, "out")
	fgDir := filepath.Join(outDir, "foreground")
	bgDir := filepath.Join(outDir, "background")

	if _, err := os.Stat(outDir); err != nil {
		return nil, fmt.Errorf("scan output directory %s does not exist, run the cleanup tool first: %w", outDir, err)
	}

	names, err := listTIFFs(outDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no TIFF files found in %s", outDir)
	}

	fgNames, err := listTIFFs(fgDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	bgNames, err := listTIFFs(bgDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	fgSet := toSet(fgNames)
	bgSet := toSet(bgNames)

	// Layer files without a matching out/ entry indicate a stale or
	// hand-edited tree. Not fatal, the page is simply not part of the set.
	for _, name := range orphanLayers(names, fgSet, bgSet) {
		log.Warn().Str("page", name).Msg("layer file has no matching page in out/, ignoring")
	}

	set := &Set{}
	for i, name := range names {
		pg := Page{
			Name:  name,
			Index: i,
			Path:  filepath.Join(outDir, name),
		}

		hasFG := fgSet[name]
		hasBG := bgSet[name]
		switch {
		case hasFG && hasBG:
			pg.Kind = Mixed
			pg.Foreground = filepath.Join(fgDir, name)
			pg.Background = filepath.Join(bgDir, name)
		case hasFG:
			return nil, &MissingLayerError{Page: name, Missing: "background"}
		case hasBG:
			return nil, &MissingLayerError{Page: name, Missing: "foreground"}
		default:
			pg.Kind = Standard
		}

		if pg.Kind == Mixed {
			fgInfo, err := tiffio.ReadInfo(pg.Foreground)
			if err != nil {
				return nil, fmt.Errorf("page %s: foreground: %w", name, err)
			}
			bgInfo, err := tiffio.ReadInfo(pg.Background)
			if err != nil {
				return nil, fmt.Errorf("page %s: background: %w", name, err)
			}
			if fgInfo.Width != bgInfo.Width || fgInfo.Height != bgInfo.Height {
				return nil, &MismatchError{Page: name, Detail: fmt.Sprintf(
					"foreground %dx%d px vs background %dx%d px",
					fgInfo.Width, fgInfo.Height, bgInfo.Width, bgInfo.Height)}
			}
			if fgInfo.DPI != bgInfo.DPI {
				return nil, &MismatchError{Page: name, Detail: fmt.Sprintf(
					"foreground %g dpi vs background %g dpi", fgInfo.DPI, bgInfo.DPI)}
			}
			pg.Width, pg.Height, pg.DPI = fgInfo.Width, fgInfo.Height, fgInfo.DPI
			set.MixedCount++
		} else {
			info, err := tiffio.ReadInfo(pg.Path)
			if err != nil {
				return nil, fmt.Errorf("page %s: %w", name, err)
			}
			pg.Width, pg.Height, pg.DPI = info.Width, info.Height, info.DPI
			set.StandardCount++
		}

		set.Pages = append(set.Pages, pg)
	}

	log.Info().
		Int("standard", set.StandardCount).
		Int("mixed", set.MixedCount).
		Int("total", len(set.Pages)).
		Msg("page inventory complete")

	return set, nil
}

func listTIFFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// orphanLayers returns, in sorted order, the layer file names that have
// no matching page in out/.
func orphanLayers(names []string, fgSet, bgSet map[string]bool) []string {
	seen := make(map[string]bool, len(fgSet)+len(bgSet))
	var orphans []string
	for _, set := range []map[string]bool{fgSet, bgSet} {
		for n := range set {
			if !seen[n] && !contains(names, n) {
				seen[n] = true
				orphans = append(orphans, n)
			}
		}
	}
	sort.Strings(orphans)
	return orphans
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
