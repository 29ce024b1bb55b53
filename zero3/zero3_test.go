package zero3

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// sampleArchive returns an archive with one raw and one LZSS entry.
func sampleArchive() *Archive {
	return &Archive{Files: []File{
		{Name: "data/readme.txt", Data: []byte("plain entry")},
		{Name: "data/map.bin", Data: bytes.Repeat([]byte("tile;"), 200), Flags: FlagCompressed},
	}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := sampleArchive().Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !Is(raw) {
		t.Fatal("Is=false for written archive")
	}

	got, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Files) != 2 {
		t.Fatalf("files=%d, want 2", len(got.Files))
	}
	want := sampleArchive()
	for i := range want.Files {
		if got.Files[i].Name != want.Files[i].Name || !bytes.Equal(got.Files[i].Data, want.Files[i].Data) {
			t.Fatalf("file %d=%q, want %q", i, got.Files[i].Name, want.Files[i].Name)
		}
	}

	again, err := got.Write()
	if err != nil {
		t.Fatalf("Write again: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Fatal("rewrite is not byte-identical")
	}
}

func TestUnpackRepack(t *testing.T) {
	t.Parallel()

	raw, err := sampleArchive().Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	a, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var done []string
	dir := filepath.Join(t.TempDir(), "archive-000")
	if _, err := a.Unpack(t.Context(), dir, UnpackOptions{
		SourceName:  "archive.000",
		OnEntryDone: func(_ int, _ int, rel string) { done = append(done, rel) },
	}); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(done) != 2 {
		t.Fatalf("progress calls=%d, want 2", len(done))
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}

	m, rebuilt, err := Repack(t.Context(), dir)
	if err != nil {
		t.Fatalf("Repack: %v", err)
	}
	if m.Filename != "archive.000" {
		t.Fatalf("Filename=%q, want archive.000", m.Filename)
	}
	if !bytes.Equal(raw, rebuilt) {
		t.Fatal("repacked archive differs from source")
	}
}

func TestReadRejectsBadEntries(t *testing.T) {
	t.Parallel()

	raw, err := sampleArchive().Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := Read(raw[:headerSize+entrySize/2]); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("truncated table err=%v, want ErrInvalidHeader", err)
	}
	if _, err := Read(raw[:headerSize+2*entrySize]); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("truncated payload err=%v, want ErrInvalidEntry", err)
	}
}

func TestWriteRejectsLongName(t *testing.T) {
	t.Parallel()

	a := &Archive{Files: []File{{Name: string(bytes.Repeat([]byte("n"), nameSize))}}}
	if _, err := a.Write(); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("Write err=%v, want ErrNameTooLong", err)
	}
}

func TestEmptyCompressedEntry(t *testing.T) {
	t.Parallel()

	raw, err := sampleArchive().Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	a, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "archive-000")
	if _, err := a.Unpack(t.Context(), dir, UnpackOptions{SourceName: "archive.000"}); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "map.bin"), nil, 0o600); err != nil {
		t.Fatalf("empty entry: %v", err)
	}

	_, rebuilt, err := Repack(t.Context(), dir)
	if err != nil {
		t.Fatalf("Repack: %v", err)
	}

	got, err := Read(rebuilt)
	if err != nil {
		t.Fatalf("Read rebuilt: %v", err)
	}
	if f := got.Files[1]; len(f.Data) != 0 || !f.Compressed() {
		t.Fatalf("entry=%q flags=%#x, want empty compressed entry", f.Data, f.Flags)
	}

	again, err := got.Write()
	if err != nil {
		t.Fatalf("Write again: %v", err)
	}
	if !bytes.Equal(rebuilt, again) {
		t.Fatal("rewrite is not byte-identical")
	}
}
