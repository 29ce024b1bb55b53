package entrypath

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "param/gameparam/a.param", want: "param/gameparam/a.param"},
		{name: "windows", in: `.\param\gameparam\`, want: "param/gameparam"},
		{name: "dot segments", in: "./a/../b//c.txt", want: "b/c.txt"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripRoot(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{in: `N:\FDP\data\param\a.param`, want: "FDP/data/param/a.param"},
		{in: `\\server\share\a.tpf`, want: "server/share/a.tpf"},
		{in: "chr/c0000.anibnd", want: "chr/c0000.anibnd"},
	}

	for _, tc := range testCases {
		if got := StripRoot(tc.in); got != tc.want {
			t.Fatalf("StripRoot(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateRejectsTraversal(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "../a", "a/../../b", "/abs", `C:\x`, "C:/x", "a\x00b"} {
		if _, err := Validate(in); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Validate(%q) err=%v, want ErrInvalidPath", in, err)
		}
	}

	got, err := Validate(`a\.\b\c.txt`)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != "a/b/c.txt" {
		t.Fatalf("Validate=%q, want a/b/c.txt", got)
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	got, err := Join(root, "a/b.txt")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if want := filepath.Join(root, "a", "b.txt"); got != want {
		t.Fatalf("Join=%q, want %q", got, want)
	}

	if _, err := Join(root, "../escape"); err == nil {
		t.Fatal("expected error for traversal")
	}
}

func TestPlannerSanitizesAndDeduplicates(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	testCases := []struct {
		in   string
		want string
	}{
		{in: `N:\data\con.txt`, want: "data/_con.txt"},
		{in: `N:\data\a?b.txt`, want: "data/a_b.txt"},
		{in: `N:\data\A_B.txt`, want: "data/A_B~2.txt"},
		{in: `N:\data\..\x.bin`, want: "data/_/x.bin"},
		{in: `N:\data\trail. `, want: "data/trail"},
	}

	for _, tc := range testCases {
		got, err := p.Plan(tc.in)
		if err != nil {
			t.Fatalf("Plan(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Plan(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
