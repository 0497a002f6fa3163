// Package encoder turns one page raster into a single-page PDF whose
// physical dimensions match the original scan. Bi-level content is stored
// losslessly (PNG/flate); continuous-tone content as JPEG.
package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/scan2pdf/internal/compositor"
	"github.com/local/scan2pdf/internal/tiffio"
)

// Options controls page encoding.
type Options struct {
	JPEGQuality int
}

// pointsPerInch converts pixel geometry to PDF user-space units.
const pointsPerInch = 72.0

// PageSize returns the physical page dimensions in points for a raster
// of the given pixel size and resolution.
func PageSize(widthPx, heightPx int, dpi float64) (wPt, hPt float64) {
	return float64(widthPx) / dpi * pointsPerInch, float64(heightPx) / dpi * pointsPerInch
}

// Encode writes raster r as a one-page PDF at outPath.
func Encode(r compositor.Raster, outPath string, opts Options) error {
	if r.Image == nil {
		return fmt.Errorf("encode %s: nil raster", outPath)
	}
	if r.DPI <= 0 {
		return fmt.Errorf("encode %s: resolution must be positive, got %g", outPath, r.DPI)
	}

	b := r.Image.Bounds()
	wPt, hPt := PageSize(b.Dx(), b.Dy(), r.DPI)

	data, imageType, err := encodeImage(r.Image, opts)
	if err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(true)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: wPt, Ht: hPt})

	imgOpts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	pdf.RegisterImageOptionsReader("page", imgOpts, bytes.NewReader(data))
	pdf.ImageOptions("page", 0, 0, wPt, hPt, false, imgOpts, 0, "")

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}

	log.Debug().
		Str("file", outPath).
		Str("image_type", imageType).
		Float64("width_pt", wPt).
		Float64("height_pt", hPt).
		Msg("page encoded")

	return nil
}

// encodeImage picks the codec per the compression policy: lossless for
// bi-level sources, JPEG for everything else.
func encodeImage(img image.Image, opts Options) ([]byte, string, error) {
	var buf bytes.Buffer
	if tiffio.IsBiLevel(img) {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("png: %w", err)
		}
		return buf.Bytes(), "PNG", nil
	}

	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("jpeg: %w", err)
	}
	return buf.Bytes(), "JPG", nil
}
