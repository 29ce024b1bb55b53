package lua

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestGNLRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		gnl  GNL
	}{
		{name: "little short", gnl: GNL{Globals: []string{"Init", "Update", "ゴール"}}},
		{name: "little long", gnl: GNL{Globals: []string{"Init"}, LongFormat: true}},
		{name: "big short", gnl: GNL{Globals: []string{"A", "BB"}, BigEndian: true}},
		{name: "big long", gnl: GNL{Globals: []string{"A", "BB"}, BigEndian: true, LongFormat: true}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw, err := tc.gnl.Write()
			if err != nil {
				t.Fatalf("Write: %v", err)
			}

			got, err := ReadGNL(raw)
			if err != nil {
				t.Fatalf("ReadGNL: %v", err)
			}
			if !reflect.DeepEqual(*got, tc.gnl) {
				t.Fatalf("ReadGNL=%+v, want %+v", *got, tc.gnl)
			}

			again, err := got.Write()
			if err != nil {
				t.Fatalf("Write again: %v", err)
			}
			if !bytes.Equal(raw, again) {
				t.Fatal("rewrite is not byte-identical")
			}
		})
	}
}

func TestGNLXMLRoundTrip(t *testing.T) {
	t.Parallel()

	src := &GNL{Globals: []string{"Init", "Update"}, LongFormat: true}
	raw, err := src.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc, err := EncodeGNLXML(src)
	if err != nil {
		t.Fatalf("EncodeGNLXML: %v", err)
	}
	if !bytes.Contains(doc, []byte("<luagnl>")) {
		t.Fatalf("unexpected root:\n%s", doc)
	}

	back, err := DecodeGNLXML(doc)
	if err != nil {
		t.Fatalf("DecodeGNLXML: %v", err)
	}

	rebuilt, err := back.Write()
	if err != nil {
		t.Fatalf("Write rebuilt: %v", err)
	}
	if !bytes.Equal(raw, rebuilt) {
		t.Fatal("xml round trip changed bytes")
	}
}

func TestReadGNLRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ReadGNL([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidGNL) {
		t.Fatalf("ReadGNL err=%v, want ErrInvalidGNL", err)
	}
}

// sampleInfo returns a goal table with and without interrupt names.
func sampleInfo(bigEndian bool, long bool) *Info {
	return &Info{
		Version:    1,
		BigEndian:  bigEndian,
		LongFormat: long,
		Goals: []Goal{
			{ID: 100, Name: "Attack", BattleInterrupt: true},
			{ID: 200, Name: "Wander", LogicInterrupt: true, LogicInterruptName: "Wander_Interrupt"},
		},
	}
}

func TestInfoRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		bigEndian bool
		long      bool
	}{
		{name: "little short"},
		{name: "little long", long: true},
		{name: "big short", bigEndian: true},
		{name: "big long", bigEndian: true, long: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := sampleInfo(tc.bigEndian, tc.long)
			raw, err := src.Write()
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if !IsInfo(raw) {
				t.Fatal("IsInfo=false for written table")
			}

			got, err := ReadInfo(raw)
			if err != nil {
				t.Fatalf("ReadInfo: %v", err)
			}
			if !reflect.DeepEqual(got, src) {
				t.Fatalf("ReadInfo=%+v, want %+v", got, src)
			}
		})
	}
}

func TestInfoXMLRoundTrip(t *testing.T) {
	t.Parallel()

	src := sampleInfo(false, true)
	raw, err := src.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc, err := EncodeInfoXML(src)
	if err != nil {
		t.Fatalf("EncodeInfoXML: %v", err)
	}

	back, err := DecodeInfoXML(doc)
	if err != nil {
		t.Fatalf("DecodeInfoXML: %v", err)
	}

	rebuilt, err := back.Write()
	if err != nil {
		t.Fatalf("Write rebuilt: %v", err)
	}
	if !bytes.Equal(raw, rebuilt) {
		t.Fatal("xml round trip changed bytes")
	}
}

func TestReadInfoTruncated(t *testing.T) {
	t.Parallel()

	raw, err := sampleInfo(false, false).Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := ReadInfo(raw[:20]); !errors.Is(err, ErrInvalidInfo) {
		t.Fatalf("ReadInfo err=%v, want ErrInvalidInfo", err)
	}
}
