package vgm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_Gzip(t *testing.T) {
	plain := buildVGM(testFile{version: 0x150, loopAt: -1, body: []byte{0x50, 0x9F, 0x66}})

	f, err := Parse(gzipBytes(plain))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !f.Compressed {
		t.Error("Compressed = false, want true")
	}
	if !bytes.Equal(f.Data, plain) {
		t.Error("inflated data differs from original")
	}
}

func TestParse_CorruptGzip(t *testing.T) {
	_, err := Parse([]byte{0x1F, 0x8B, 0x08, 0x00, 0x01})
	if !IsFormatError(err) {
		t.Fatalf("error = %v, want FormatError", err)
	}
}

func TestParse_GD3(t *testing.T) {
	gd3 := buildGD3("Green Hill Zone", "", "Sonic the Hedgehog", "", "Mega Drive", "", "Masato Nakamura", "", "1991", "ripper", "")
	data := buildVGM(testFile{version: 0x150, loopAt: -1, body: []byte{0x66}, gd3: gd3})

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Tags == nil {
		t.Fatal("Tags = nil")
	}
	if f.Tags.TrackEN != "Green Hill Zone" {
		t.Errorf("TrackEN = %q, want %q", f.Tags.TrackEN, "Green Hill Zone")
	}
	if f.Tags.AuthorEN != "Masato Nakamura" {
		t.Errorf("AuthorEN = %q, want %q", f.Tags.AuthorEN, "Masato Nakamura")
	}
	if f.Tags.Date != "1991" {
		t.Errorf("Date = %q, want %q", f.Tags.Date, "1991")
	}
}

func TestParse_BadGD3IsIgnored(t *testing.T) {
	data := buildVGM(testFile{version: 0x150, loopAt: -1, body: []byte{0x66}, gd3: []byte("Gd3?junkjunkjunk")})

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Tags != nil {
		t.Errorf("Tags = %+v, want nil", f.Tags)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.vgz")
	data := buildVGM(testFile{version: 0x150, loopAt: -1, body: []byte{0x62, 0x66}})
	if err := os.WriteFile(path, gzipBytes(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := f.Commands(); !bytes.Equal(got, []byte{0x62, 0x66}) {
		t.Errorf("Commands = % X, want 62 66", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.vgm")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
