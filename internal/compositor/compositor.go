// Package compositor reconstructs full-page rasters. Standard pages pass
// through untouched. Mixed pages get their background optionally
// downsampled, re-expanded onto the foreground pixel grid, and painted
// over with the foreground text mask.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// Raster is one output-ready page image plus its resolution.
type Raster struct {
	Image image.Image
	DPI   float64
}

// inkThreshold: foreground luma below this counts as ink and is painted
// opaque; everything else stays transparent.
const inkThreshold = 128

// ComposeMixed merges the two layers of a mixed page. The foreground is
// never resampled; the result always lives on the foreground pixel grid
// at the foreground resolution.
func ComposeMixed(fg image.Image, bg image.Image, dpi, targetBGDPI float64) (Raster, error) {
	if dpi <= 0 {
		return Raster{}, fmt.Errorf("compose: resolution must be positive, got %g", dpi)
	}
	fb := fg.Bounds()
	if fb.Empty() || bg.Bounds().Empty() {
		return Raster{}, fmt.Errorf("compose: empty layer raster")
	}

	// Downsample the background only. Target 0 disables, and a target at
	// or above the native resolution is a no-op: never upsample.
	if targetBGDPI > 0 && targetBGDPI < dpi {
		w := int(math.Round(float64(bg.Bounds().Dx()) * targetBGDPI / dpi))
		h := int(math.Round(float64(bg.Bounds().Dy()) * targetBGDPI / dpi))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		bg = resample(bg, w, h, xdraw.CatmullRom)
		log.Debug().Int("width", w).Int("height", h).Float64("dpi", targetBGDPI).
			Msg("background downsampled")
	}

	// Align the background to the foreground grid by pixel replication.
	// Text stays crisp while the background keeps its reduced detail.
	if bg.Bounds().Dx() != fb.Dx() || bg.Bounds().Dy() != fb.Dy() {
		bg = resample(bg, fb.Dx(), fb.Dy(), xdraw.NearestNeighbor)
	}

	out := image.NewRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	draw.Draw(out, out.Bounds(), bg, bg.Bounds().Min, draw.Src)
	draw.DrawMask(out, out.Bounds(), image.NewUniform(color.Black), image.Point{},
		inkMask(fg), fb.Min, draw.Over)

	return Raster{Image: out, DPI: dpi}, nil
}

// resample scales src to w x h with the given kernel.
func resample(src image.Image, w, h int, scaler xdraw.Scaler) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// inkMask converts the monochrome foreground into an opacity mask:
// ink pixels opaque, paper pixels fully transparent.
func inkMask(fg image.Image) *image.Alpha {
	b := fg.Bounds()
	mask := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			luma := color.GrayModel.Convert(fg.At(x, y)).(color.Gray).Y
			if luma < inkThreshold {
				mask.SetAlpha(x, y, color.Alpha{A: 0xFF})
			}
		}
	}
	return mask
}
