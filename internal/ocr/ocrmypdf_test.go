package ocr

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuildArgsJoinsLanguages(t *testing.T) {
	args := buildArgs("in.pdf", "out.pdf", []string{"eng", "deu"})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--language eng+deu") {
		t.Errorf("args missing joined language selection: %v", args)
	}
	if args[len(args)-2] != "in.pdf" || args[len(args)-1] != "out.pdf" {
		t.Errorf("args must end with input and output paths: %v", args)
	}
}

func TestApplyRequiresLanguages(t *testing.T) {
	eng := NewOCRmyPDF("ocrmypdf", time.Minute)
	if err := eng.Apply(context.Background(), "in.pdf", "out.pdf", nil); err == nil {
		t.Fatal("expected error for empty language selection")
	}
}

func TestNewOCRmyPDFDefaultsBinary(t *testing.T) {
	eng := NewOCRmyPDF("", 0)
	if eng.Binary != "ocrmypdf" {
		t.Errorf("Binary = %q, want ocrmypdf", eng.Binary)
	}
}

func TestApplyReportsMissingBinary(t *testing.T) {
	eng := NewOCRmyPDF("definitely-not-a-real-ocr-binary", time.Second)
	err := eng.Apply(context.Background(), "in.pdf", "out.pdf", []string{"eng"})
	if err == nil {
		t.Fatal("expected error when engine binary does not exist")
	}
}
