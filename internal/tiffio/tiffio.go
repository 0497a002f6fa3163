// Package tiffio reads the TIFF pages a scan-cleanup tool emits: pixel
// data via the CCITT-capable tiff decoder, resolution metadata straight
// from the baseline IFD tags, which the image decoders do not surface.
package tiffio

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/gabriel-vasile/mimetype"
	tiff66 "github.com/garyhouston/tiff66"
	"github.com/hhrutter/tiff"
)

// DefaultDPI is assumed when a TIFF carries no resolution tags.
const DefaultDPI = 300

// Info holds pixel geometry and resolution for one TIFF file.
type Info struct {
	Width  int
	Height int
	DPI    float64
}

// ReadInfo returns dimensions and resolution without decoding pixel data.
func ReadInfo(path string) (Info, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	return readInfo(path, buf)
}

func readInfo(path string, buf []byte) (Info, error) {
	if mt := mimetype.Detect(buf); !mt.Is("image/tiff") {
		return Info{}, fmt.Errorf("%s: not a TIFF file (detected %s)", path, mt.String())
	}

	cfg, err := tiff.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return Info{}, fmt.Errorf("%s: decode config: %w", path, err)
	}

	info := Info{Width: cfg.Width, Height: cfg.Height, DPI: readDPI(buf)}
	return info, nil
}

// readDPI extracts the horizontal resolution from the first IFD. Scan
// output always uses square pixels, so the X resolution governs.
func readDPI(buf []byte) float64 {
	valid, order, ifdPos := tiff66.GetHeader(buf)
	if !valid {
		return DefaultDPI
	}
	root, err := tiff66.GetIFDTree(buf, order, ifdPos, tiff66.TIFFSpace)
	if err != nil {
		return DefaultDPI
	}

	var res float64
	unit := uint16(2) // inch unless the file says otherwise
	for _, f := range root.Fields {
		switch f.Tag {
		case tiff66.XResolution:
			if len(f.Data) >= 8 {
				num := order.Uint32(f.Data[0:4])
				den := order.Uint32(f.Data[4:8])
				if den != 0 {
					res = float64(num) / float64(den)
				}
			}
		case tiff66.ResolutionUnit:
			if len(f.Data) >= 2 {
				unit = order.Uint16(f.Data[0:2])
			}
		}
	}
	if res <= 0 {
		return DefaultDPI
	}
	if unit == 3 { // pixels per centimetre
		res *= 2.54
	}
	return res
}

// Decode loads the full raster plus its metadata.
func Decode(path string) (image.Image, Info, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, err
	}
	info, err := readInfo(path, buf)
	if err != nil {
		return nil, Info{}, err
	}
	img, err := tiff.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%s: decode: %w", path, err)
	}
	return img, info, nil
}

// IsBiLevel reports whether a raster contains only pure black and pure
// white pixels, i.e. whether lossless bi-level encoding applies.
func IsBiLevel(img image.Image) bool {
	gray, ok := img.(*image.Gray)
	if !ok {
		return false
	}
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		for _, v := range gray.Pix[off : off+b.Dx()] {
			if v != 0x00 && v != 0xFF {
				return false
			}
		}
	}
	return true
}
