package oodle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocateMissingReturnsTypedError(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()

	_, err := Locate("oo2core_6_win64.dll", []string{dirA, "", dirB})
	if !errors.Is(err, ErrLibraryMissing) {
		t.Fatalf("Locate err=%v, want ErrLibraryMissing", err)
	}

	var missing *MissingLibraryError
	if !errors.As(err, &missing) {
		t.Fatalf("Locate err=%T, want *MissingLibraryError", err)
	}
	if missing.Name != "oo2core_6_win64.dll" {
		t.Fatalf("Name=%q, want oo2core_6_win64.dll", missing.Name)
	}
	if len(missing.Searched) != 2 || missing.Searched[0] != dirA || missing.Searched[1] != dirB {
		t.Fatalf("Searched=%v, want [%s %s]", missing.Searched, dirA, dirB)
	}
}

func TestLocateFindsFirstMatch(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	withLib := t.TempDir()
	want := filepath.Join(withLib, "lib.so")
	if err := os.WriteFile(want, []byte("stub"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := Locate("lib.so", []string{empty, withLib})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != want {
		t.Fatalf("Locate=%q, want %q", got, want)
	}
}

func TestLocateSkipsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "lib.so"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := Locate("lib.so", []string{dir}); !errors.Is(err, ErrLibraryMissing) {
		t.Fatalf("Locate err=%v, want ErrLibraryMissing", err)
	}
}

func TestOpenMissingLibrary(t *testing.T) {
	t.Parallel()

	_, err := Open("", []string{t.TempDir()})
	var missing *MissingLibraryError
	if !errors.As(err, &missing) {
		t.Fatalf("Open err=%v, want *MissingLibraryError", err)
	}
	if missing.Name != DefaultLibraryName() {
		t.Fatalf("Name=%q, want %q", missing.Name, DefaultLibraryName())
	}
}

func TestCompressBound(t *testing.T) {
	t.Parallel()

	if got := compressBound(0); got != 0 {
		t.Fatalf("compressBound(0)=%d, want 0", got)
	}
	if got := compressBound(1); got != 1+274 {
		t.Fatalf("compressBound(1)=%d, want 275", got)
	}
}
