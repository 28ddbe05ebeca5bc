package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	data := ArchiveAssets([]Asset{
		{Filename: "poster.png", Data: []byte("png-bytes")},
		{Filename: "text.json", Data: []byte(`{"word":"Ebullient"}`)},
	})
	if len(data) == 0 {
		t.Fatal("expected archive bytes")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(content) != "png-bytes" {
		t.Fatalf("unexpected entry content %q", content)
	}
}

func TestArchiveAssetsSkipsEmptyData(t *testing.T) {
	data := ArchiveAssets([]Asset{
		{Filename: "poster.png", Data: []byte("png-bytes")},
		{Filename: "empty.svg"},
	})

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(zr.File))
	}
	if zr.File[0].Name != "poster.png" {
		t.Fatalf("unexpected entry %q", zr.File[0].Name)
	}
}
