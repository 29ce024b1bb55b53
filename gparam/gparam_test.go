package gparam

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/woozymasta/yabber/dcx"
)

// sampleGPARAM returns a file covering every value type.
func sampleGPARAM() *GPARAM {
	return &GPARAM{
		Version: 3,
		Groups: []Group{
			{
				Name: "LightSet",
				Params: []Param{
					{Name: "Enabled", Type: TypeBool, Values: []Value{{ID: 0, Raw: []byte{1}}, {ID: 1, Raw: []byte{0}}}},
					{Name: "Mode", Type: TypeByte, Values: []Value{{ID: 0, Raw: []byte{7}}}},
					{Name: "Bias", Type: TypeShort, Values: []Value{{ID: 0, Raw: []byte{0xFE, 0xFF}}}},
					{Name: "Count", Type: TypeInt, Values: []Value{{ID: 3, Raw: []byte{0xFF, 0xFF, 0xFF, 0xFF}}}},
					{Name: "Mask", Type: TypeUint, Values: []Value{{ID: 0, Raw: []byte{0, 0, 0, 0x80}}}},
				},
			},
			{
				Name: "フォグ",
				Params: []Param{
					{Name: "Scale", Type: TypeFloat, Values: []Value{{ID: 0, Raw: []byte{0xCD, 0xCC, 0xCC, 0x3D}}}},
					{Name: "Offset", Type: TypeVec2, Values: []Value{{ID: 0, Raw: []byte{0, 0, 0x80, 0x3F, 0, 0, 0, 0xC0}}}},
					{Name: "Dir", Type: TypeVec4, Values: []Value{{ID: 0, Raw: make([]byte, 16)}}},
					{Name: "Tint", Type: TypeColor, Values: []Value{{ID: 0, Raw: []byte{0xFF, 0x80, 0x00, 0x10}}}},
				},
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := sampleGPARAM().Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !Is(raw) {
		t.Fatal("Is=false for written file")
	}

	got, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Groups[1].Name != "フォグ" || got.Groups[0].Params[3].Values[0].ID != 3 {
		t.Fatalf("groups=%+v", got.Groups)
	}

	again, err := got.Write()
	if err != nil {
		t.Fatalf("Write again: %v", err)
	}
	if !bytes.Equal(again, raw) {
		t.Fatal("Write(Read(b)) differs")
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	t.Parallel()

	orig := sampleGPARAM()
	doc, err := EncodeXML(orig, dcx.TypeNone)
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	for _, want := range []string{`type="vec2"`, ">1,-2<", ">#FF800010<", ">0.1<", ">-1<", ">true<"} {
		if !strings.Contains(string(doc), want) {
			t.Fatalf("sidecar lacks %s:\n%s", want, doc)
		}
	}

	got, typ, err := DecodeXML(doc)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	if typ != dcx.TypeNone {
		t.Fatalf("compression=%q, want none", typ)
	}

	want, _ := orig.Write()
	have, err := got.Write()
	if err != nil {
		t.Fatalf("Write decoded: %v", err)
	}
	if !bytes.Equal(have, want) {
		t.Fatal("sidecar round trip changed file bytes")
	}
}

func TestReadRejectsUnknownType(t *testing.T) {
	t.Parallel()

	g := &GPARAM{Groups: []Group{{Name: "g", Params: []Param{{Name: "p", Type: 0x7F}}}}}
	if _, err := g.Write(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Write err=%v, want ErrUnknownType", err)
	}
}

func TestParseValueErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		text string
		typ  Type
	}{
		{typ: TypeBool, text: "maybe"},
		{typ: TypeByte, text: "256"},
		{typ: TypeVec2, text: "1"},
		{typ: TypeColor, text: "#FFF"},
	}

	for _, tc := range testCases {
		if _, err := parseValue(tc.typ, tc.text); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("parseValue(%s, %q) err=%v, want ErrInvalidValue", tc.typ, tc.text, err)
		}
	}
}
