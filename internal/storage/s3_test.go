package storage

import "testing"

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://scans/books/out.pdf")
	if err != nil {
		t.Fatalf("ParseURI() error = %v", err)
	}
	if bucket != "scans" || key != "books/out.pdf" {
		t.Errorf("ParseURI() = %q/%q, want scans/books/out.pdf", bucket, key)
	}

	for _, bad := range []string{"http://x/y", "s3://", "s3://bucket", "s3://bucket/"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q) should fail", bad)
		}
	}
}
