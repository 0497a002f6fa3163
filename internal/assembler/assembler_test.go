package assembler

import (
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/local/scan2pdf/internal/compositor"
	"github.com/local/scan2pdf/internal/encoder"
)

func makePagePDF(t *testing.T, dir string, i int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 50, 70))
	path := filepath.Join(dir, fmt.Sprintf("im%04d.pdf", i))
	if err := encoder.Encode(compositor.Raster{Image: img, DPI: 150}, path, encoder.Options{JPEGQuality: 70}); err != nil {
		t.Fatalf("encode page %d: %v", i, err)
	}
	return path
}

func TestMergePreservesPageCount(t *testing.T) {
	dir := t.TempDir()
	var pages []string
	for i := 1; i <= 3; i++ {
		pages = append(pages, makePagePDF(t, dir, i))
	}
	out := filepath.Join(dir, "out.pdf")

	if err := Merge(pages, out); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	n, err := PageCount(out)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("merged page count = %d, want 3", n)
	}
}

func TestMergeFailsOnMissingPage(t *testing.T) {
	dir := t.TempDir()
	pages := []string{
		makePagePDF(t, dir, 1),
		filepath.Join(dir, "im0002.pdf"), // never created
	}
	if err := Merge(pages, filepath.Join(dir, "out.pdf")); err == nil {
		t.Fatal("expected error for missing page PDF")
	}
}

func TestMergeFailsOnEmptyInput(t *testing.T) {
	if err := Merge(nil, filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Fatal("expected error for empty page list")
	}
}
