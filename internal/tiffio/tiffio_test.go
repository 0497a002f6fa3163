package tiffio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hhrutter/tiff"
)

// buildTIFF assembles a minimal uncompressed 8-bit grayscale TIFF with
// explicit resolution tags, which the stock encoder does not let us
// control.
func buildTIFF(t *testing.T, w, h int, resNum, resDen uint32, unit uint16) []byte {
	t.Helper()
	le := binary.LittleEndian

	type entry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}

	const (
		typeShort    = 3
		typeLong     = 4
		typeRational = 5
	)

	// Layout: 8-byte header, IFD, two 8-byte rationals, pixel data.
	const ifdOffset = 8
	const numEntries = 12
	ifdSize := 2 + numEntries*12 + 4
	xResOffset := uint32(ifdOffset + ifdSize)
	yResOffset := xResOffset + 8
	pixOffset := yResOffset + 8

	entries := []entry{
		{256, typeLong, 1, uint32(w)},          // ImageWidth
		{257, typeLong, 1, uint32(h)},          // ImageLength
		{258, typeShort, 1, 8},                 // BitsPerSample
		{259, typeShort, 1, 1},                 // Compression: none
		{262, typeShort, 1, 1},                 // Photometric: BlackIsZero
		{273, typeLong, 1, pixOffset},          // StripOffsets
		{277, typeShort, 1, 1},                 // SamplesPerPixel
		{278, typeLong, 1, uint32(h)},          // RowsPerStrip
		{279, typeLong, 1, uint32(w * h)},      // StripByteCounts
		{282, typeRational, 1, xResOffset},     // XResolution
		{283, typeRational, 1, yResOffset},     // YResolution
		{296, typeShort, 1, uint32(unit)},      // ResolutionUnit
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(ifdOffset))

	binary.Write(&buf, le, uint16(numEntries))
	for _, e := range entries {
		binary.Write(&buf, le, e.tag)
		binary.Write(&buf, le, e.typ)
		binary.Write(&buf, le, e.count)
		if e.typ == typeShort {
			binary.Write(&buf, le, uint16(e.value))
			binary.Write(&buf, le, uint16(0))
		} else {
			binary.Write(&buf, le, e.value)
		}
	}
	binary.Write(&buf, le, uint32(0)) // next IFD

	binary.Write(&buf, le, resNum)
	binary.Write(&buf, le, resDen)
	binary.Write(&buf, le, resNum)
	binary.Write(&buf, le, resDen)

	buf.Write(make([]byte, w*h)) // pixel data, all black

	return buf.Bytes()
}

func writeTIFF(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write tiff: %v", err)
	}
	return path
}

func TestReadInfoDimensions(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 40, 25))
	path := writeTIFF(t, dir, "page.tif", img)

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo() error = %v", err)
	}
	if info.Width != 40 || info.Height != 25 {
		t.Errorf("dimensions = %dx%d, want 40x25", info.Width, info.Height)
	}
	if info.DPI <= 0 {
		t.Errorf("DPI = %v, want positive (default fallback)", info.DPI)
	}
}

func TestReadInfoRejectsNonTIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tif")
	if err := os.WriteFile(path, []byte("plain text, not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadInfo(path); err == nil {
		t.Fatal("expected error for non-TIFF input")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		src.Set(x, 0, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	}
	path := writeTIFF(t, dir, "page.tif", src)

	img, info, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := img.Bounds(); got.Dx() != 8 || got.Dy() != 8 {
		t.Errorf("bounds = %v, want 8x8", got)
	}
	if info.Width != 8 || info.Height != 8 {
		t.Errorf("info = %+v, want 8x8", info)
	}
}

func TestReadDPIFromResolutionTags(t *testing.T) {
	tests := []struct {
		name string
		num  uint32
		den  uint32
		unit uint16
		want float64
	}{
		{name: "inch", num: 600, den: 1, unit: 2, want: 600},
		{name: "centimetre", num: 11811, den: 100, unit: 3, want: 300},
		{name: "zero denominator", num: 600, den: 0, unit: 2, want: DefaultDPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buildTIFF(t, 10, 10, tt.num, tt.den, tt.unit)
			got := readDPI(buf)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("readDPI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadInfoHonorsResolutionTags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tif")
	if err := os.WriteFile(path, buildTIFF(t, 30, 20, 600, 1, 2), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo() error = %v", err)
	}
	if info.Width != 30 || info.Height != 20 {
		t.Errorf("dimensions = %dx%d, want 30x20", info.Width, info.Height)
	}
	if info.DPI != 600 {
		t.Errorf("DPI = %v, want 600", info.DPI)
	}
}

func TestIsBiLevel(t *testing.T) {
	mono := image.NewGray(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		mono.SetGray(x, 1, color.Gray{Y: 255})
	}
	if !IsBiLevel(mono) {
		t.Error("pure black/white gray image should be bi-level")
	}

	shades := image.NewGray(image.Rect(0, 0, 4, 4))
	shades.SetGray(2, 2, color.Gray{Y: 128})
	if IsBiLevel(shades) {
		t.Error("mid-gray pixel should defeat bi-level detection")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if IsBiLevel(rgba) {
		t.Error("RGBA raster is never treated as bi-level")
	}
}
