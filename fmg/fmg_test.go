package fmg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/woozymasta/yabber/dcx"
)

// sampleFMG returns a table with two ID groups and a null entry.
func sampleFMG(version byte, bigEndian bool) *FMG {
	return &FMG{
		Version:   version,
		BigEndian: bigEndian,
		Entries: []Entry{
			{ID: 100, Text: "Dagger"},
			{ID: 101, Null: true},
			{ID: 102, Text: "Line one\r\nLine two"},
			{ID: 2000, Text: "ルーンの弧"},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		version   byte
		bigEndian bool
	}{
		{name: "des big endian", version: VersionDemonsSouls, bigEndian: true},
		{name: "ds1", version: VersionDarkSouls1},
		{name: "ds3", version: VersionDarkSouls3},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw, err := sampleFMG(tc.version, tc.bigEndian).Write()
			if err != nil {
				t.Fatalf("Write: %v", err)
			}

			got, err := Read(raw)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got.Entries) != 4 {
				t.Fatalf("entries=%d, want 4", len(got.Entries))
			}
			if !got.Entries[1].Null || got.Entries[3].Text != "ルーンの弧" {
				t.Fatalf("entries=%+v", got.Entries)
			}

			again, err := got.Write()
			if err != nil {
				t.Fatalf("Write again: %v", err)
			}
			if !bytes.Equal(again, raw) {
				t.Fatal("Write(Read(b)) differs")
			}
		})
	}
}

func TestWriteSortsAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	f := &FMG{Version: VersionDarkSouls1, Entries: []Entry{{ID: 5, Text: "b"}, {ID: 4, Text: "a"}}}
	raw, err := f.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Entries[0].ID != 4 || got.Entries[1].ID != 5 {
		t.Fatalf("order=%+v, want 4,5", got.Entries)
	}

	f.Entries = append(f.Entries, Entry{ID: 4, Text: "c"})
	if _, err := f.Write(); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err=%v, want ErrDuplicateID", err)
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	t.Parallel()

	orig := sampleFMG(VersionDarkSouls3, false)
	doc, err := EncodeXML(orig, dcx.TypeDFLT11000_44_9)
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	if !strings.Contains(string(doc), NullText) {
		t.Fatalf("sidecar has no null marker:\n%s", doc)
	}

	got, typ, err := DecodeXML(doc)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	if typ != dcx.TypeDFLT11000_44_9 {
		t.Fatalf("compression=%q", typ)
	}

	want, err := orig.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	have, err := got.Write()
	if err != nil {
		t.Fatalf("Write decoded: %v", err)
	}
	if !bytes.Equal(have, want) {
		t.Fatal("sidecar round trip changed table bytes")
	}
}

func TestReadRejectsShortInput(t *testing.T) {
	t.Parallel()

	if _, err := Read([]byte{0, 0, 2}); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("err=%v, want ErrInvalidHeader", err)
	}
}
