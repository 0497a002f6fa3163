// Package pdfcheck probes a PDF for an extractable text layer. The
// pipeline uses it after the OCR stage to confirm the engine actually
// embedded text, and to report when a document remains image-only.
package pdfcheck

import (
	"fmt"
	"regexp"
)

// Doc abstracts an open PDF document.
type Doc interface {
	NumPage() int
	PageText(i int) (string, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// Result summarizes a text-layer probe.
type Result struct {
	TotalPages   int
	SampledPages int
	Chars        int
	HasTextLayer bool
}

// DefaultThreshold is the minimum number of non-whitespace characters
// across the sampled pages for a document to count as searchable.
const DefaultThreshold = 300

// maxSampledPages bounds probe cost on large documents.
const maxSampledPages = 5

var whitespace = regexp.MustCompile(`\s+`)

// Probe opens path via o and samples leading pages for extractable text.
func Probe(o Opener, path string, threshold int) (Result, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	doc, err := o.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", path, err)
	}
	defer doc.Close()

	res := Result{TotalPages: doc.NumPage()}
	sample := res.TotalPages
	if sample > maxSampledPages {
		sample = maxSampledPages
	}

	for i := 0; i < sample; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			continue
		}
		res.Chars += len(whitespace.ReplaceAllString(text, ""))
		res.SampledPages++
		if res.Chars >= threshold {
			break
		}
	}

	res.HasTextLayer = res.Chars >= threshold
	return res, nil
}
