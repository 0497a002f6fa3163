package pdfcheck

import (
	fitz "github.com/gen2brain/go-fitz"
)

// FitzOpener implements Opener using github.com/gen2brain/go-fitz.
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) PageText(i int) (string, error) {
	return d.Document.Text(i)
}
