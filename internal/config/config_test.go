package config

import (
	"reflect"
	"testing"
)

func TestValidateRejectsNegativeDPI(t *testing.T) {
	cfg := FromEnv()
	cfg.Pipeline.BackgroundDPI = -150
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative background dpi")
	}
}

func TestValidateRejectsUnknownQuality(t *testing.T) {
	cfg := FromEnv()
	cfg.Pipeline.Quality = "lossless"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown quality preset")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateArchiveURI(t *testing.T) {
	cfg := FromEnv()
	cfg.Archive.S3URI = "http://bucket/key"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-s3 archive URI")
	}
	cfg.Archive.S3URI = "s3://bucket/key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestParseLanguages(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"eng", []string{"eng"}},
		{"eng+deu", []string{"eng", "deu"}},
		{" eng + deu ", []string{"eng", "deu"}},
		{"none", nil},
		{"NONE", nil},
		{"", nil},
	}
	for _, c := range cases {
		if got := ParseLanguages(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseLanguages(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestJPEGQualityPresets(t *testing.T) {
	cfg := FromEnv()
	for preset, want := range map[string]int{"screen": 50, "ebook": 70, "printer": 85, "prepress": 95} {
		cfg.Pipeline.Quality = preset
		if got := cfg.JPEGQuality(); got != want {
			t.Errorf("JPEGQuality(%s) = %d, want %d", preset, got, want)
		}
	}
}
