package fsutil

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteOutputKeepsFirstBackup(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "a.bnd")
	if err := os.WriteFile(out, []byte("original"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := WriteOutput(out, []byte("first"), true); err != nil {
		t.Fatalf("WriteOutput #1: %v", err)
	}
	if err := WriteOutput(out, []byte("second"), true); err != nil {
		t.Fatalf("WriteOutput #2: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("output=%q, want second", got)
	}

	bak, err := os.ReadFile(out + BackupSuffix)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(bak) != "original" {
		t.Fatalf("backup=%q, want original", bak)
	}
}

func TestWriteOutputWithoutBackup(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "a.bnd")
	if err := os.WriteFile(out, []byte("original"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteOutput(out, []byte("next"), false); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	if IsFile(out + BackupSuffix) {
		t.Fatal("backup created with backup disabled")
	}
}

func TestWriteFileLeavesNoTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := WriteFile(filepath.Join(dir, "x.bin"), []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(items) != 1 || items[0].Name() != "x.bin" {
		t.Fatalf("dir entries=%v, want only x.bin", items)
	}
}

func TestWriteEntryRejectsTraversal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if _, err := WriteEntry(root, "../evil.txt", []byte("x")); err == nil {
		t.Fatal("expected traversal error")
	}

	path, err := WriteEntry(root, "sub/ok.txt", []byte("ok"))
	if err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}

	data, err := ReadEntry(root, "sub/ok.txt")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if !bytes.Equal(data, []byte("ok")) || !strings.HasPrefix(path, root) {
		t.Fatalf("entry=%q at %s", data, path)
	}
}

func TestHexText(t *testing.T) {
	t.Parallel()

	type doc struct {
		XMLName xml.Name `xml:"doc"`
		Flags   Hex      `xml:"flags"`
	}

	path := filepath.Join(t.TempDir(), "doc.xml")
	if err := WriteXML(path, doc{Flags: 0x2A}); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "<flags>0x2A</flags>") {
		t.Fatalf("xml=%s, want hex flags", raw)
	}

	var got doc
	if err := ReadXML(path, &got); err != nil {
		t.Fatalf("ReadXML: %v", err)
	}
	if got.Flags != 0x2A {
		t.Fatalf("Flags=%v, want 0x2A", got.Flags)
	}
}

func TestWriteOutputsKeepsAllOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	hdr := filepath.Join(dir, "a.bhd")
	data := filepath.Join(dir, "a.bdt")
	if err := os.WriteFile(hdr, []byte("original"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.Mkdir(data, 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	err := WriteOutputs([]Output{{Path: hdr, Data: []byte("new header")}, {Path: data, Data: []byte("new data")}}, true)
	if !errors.Is(err, ErrOutputIsDir) {
		t.Fatalf("err=%v, want ErrOutputIsDir", err)
	}
	if got, _ := os.ReadFile(hdr); string(got) != "original" {
		t.Fatalf("header=%q, want original", got)
	}
	if IsFile(hdr + BackupSuffix) {
		t.Fatal("backup written for a failed write")
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("dir entries=%d, want 2", len(items))
	}
}

func TestWriteOutputsWritesAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outputs := []Output{
		{Path: filepath.Join(dir, "a.bhd"), Data: []byte("header")},
		{Path: filepath.Join(dir, "a.bdt"), Data: []byte("data")},
	}
	if err := WriteOutputs(outputs, false); err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}

	for _, o := range outputs {
		got, err := os.ReadFile(o.Path)
		if err != nil {
			t.Fatalf("read %s: %v", o.Path, err)
		}
		if !bytes.Equal(got, o.Data) {
			t.Fatalf("%s=%q, want %q", o.Path, got, o.Data)
		}
	}
}

func TestMergeDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "stage")
	dst := filepath.Join(root, "out")
	for rel, body := range map[string]string{
		"_manifest.xml":  "manifest",
		"data/a.param":   "new",
		"data/deep/b.tx": "b",
	} {
		path := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dst, "data"), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for rel, body := range map[string]string{"data/a.param": "old", "keep.txt": "keep"} {
		if err := os.WriteFile(filepath.Join(dst, filepath.FromSlash(rel)), []byte(body), 0o600); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := MergeDir(src, dst); err != nil {
		t.Fatalf("MergeDir: %v", err)
	}

	for rel, want := range map[string]string{
		"_manifest.xml":  "manifest",
		"data/a.param":   "new",
		"data/deep/b.tx": "b",
		"keep.txt":       "keep",
	} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(got) != want {
			t.Fatalf("%s=%q, want %q", rel, got, want)
		}
	}
}
