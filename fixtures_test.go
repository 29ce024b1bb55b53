package yabber

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/ffx"
	"github.com/woozymasta/yabber/fmg"
	"github.com/woozymasta/yabber/gparam"
	"github.com/woozymasta/yabber/lua"
	"github.com/woozymasta/yabber/tpf"
	"github.com/woozymasta/yabber/zero3"
)

// sampleBinder returns a small named binder of kind.
func sampleBinder(kind binder.Kind) *binder.Binder {
	return &binder.Binder{
		Header: binder.Header{
			Kind:    kind,
			Version: "07D7R6",
			Format:  binder.FormatIDs | binder.FormatNames1 | binder.FormatNames2,
			Unicode: kind == binder.KindBND4 || kind == binder.KindBXF4,
		},
		Files: []binder.File{
			{Name: `N:\GR\data\Param\gameparam\EquipParamWeapon.param`, ID: 0, Flags: 0x40, Data: []byte("weapon rows")},
			{Name: `N:\GR\data\Param\gameparam\SpEffectParam.param`, ID: 1, Flags: 0x40, Data: bytes.Repeat([]byte{0x5A}, 100)},
		},
	}
}

// binderBytes serializes sampleBinder(kind).
func binderBytes(t *testing.T, kind binder.Kind) []byte {
	t.Helper()

	raw, err := sampleBinder(kind).Write()
	if err != nil {
		t.Fatalf("binder Write: %v", err)
	}

	return raw
}

// compressed wraps payload in a DCX envelope of typ.
func compressed(t *testing.T, payload []byte, typ dcx.Type) []byte {
	t.Helper()

	out, err := dcx.Compress(payload, typ, dcx.Options{})
	if err != nil {
		t.Fatalf("dcx Compress: %v", err)
	}

	return out
}

// fmgBytes returns a serialized string table.
func fmgBytes(t *testing.T) []byte {
	t.Helper()

	raw, err := (&fmg.FMG{
		Version: fmg.VersionDarkSouls3,
		Entries: []fmg.Entry{{ID: 10, Text: "Longsword"}, {ID: 11, Null: true}, {ID: 20, Text: "Dagger"}},
	}).Write()
	if err != nil {
		t.Fatalf("fmg Write: %v", err)
	}

	return raw
}

// magicSamples returns one serialized file per magic-detected variant.
func magicSamples(t *testing.T) map[Variant][]byte {
	t.Helper()

	bhf3, _, err := sampleBinder(binder.KindBXF3).WriteSplit()
	if err != nil {
		t.Fatalf("WriteSplit bxf3: %v", err)
	}
	bhf4, _, err := sampleBinder(binder.KindBXF4).WriteSplit()
	if err != nil {
		t.Fatalf("WriteSplit bxf4: %v", err)
	}

	ffxRaw, err := (&ffx.FFX{Version: 4, EffectID: 1, Sections: []ffx.Section{{Type: 1, Data: []byte{1, 2}}}}).Write()
	if err != nil {
		t.Fatalf("ffx Write: %v", err)
	}
	gparamRaw, err := (&gparam.GPARAM{Version: 3, Groups: []gparam.Group{{
		Name:   "Light",
		Params: []gparam.Param{{Name: "On", Type: gparam.TypeBool, Values: []gparam.Value{{Raw: []byte{1}}}}},
	}}}).Write()
	if err != nil {
		t.Fatalf("gparam Write: %v", err)
	}
	infoRaw, err := (&lua.Info{Version: 1, Goals: []lua.Goal{{ID: 1, Name: "Attack"}}}).Write()
	if err != nil {
		t.Fatalf("luainfo Write: %v", err)
	}
	tpfRaw, err := (&tpf.TPF{Textures: []tpf.Texture{{Name: "t", Data: []byte("DDS ")}}}).Write()
	if err != nil {
		t.Fatalf("tpf Write: %v", err)
	}
	zeroRaw, err := (&zero3.Archive{Files: []zero3.File{{Name: "a.bin", Data: []byte("x")}}}).Write()
	if err != nil {
		t.Fatalf("zero3 Write: %v", err)
	}

	return map[Variant][]byte{
		VariantBND3:    binderBytes(t, binder.KindBND3),
		VariantBND4:    binderBytes(t, binder.KindBND4),
		VariantBXF3:    bhf3,
		VariantBXF4:    bhf4,
		VariantFFX:     ffxRaw,
		VariantGPARAM:  gparamRaw,
		VariantLUAINFO: infoRaw,
		VariantTPF:     tpfRaw,
		VariantZero3:   zeroRaw,
	}
}

// krakenEnvelope builds a KRAK envelope header around opaque bytes.
func krakenEnvelope(rawLen int, comp []byte) []byte {
	be := binary.BigEndian
	out := []byte("DCX\x00")
	out = be.AppendUint32(out, 0x11000)
	out = be.AppendUint32(out, 0x18)
	out = be.AppendUint32(out, 0x24)
	out = be.AppendUint32(out, 0x44)
	out = be.AppendUint32(out, 0x4C)
	out = append(out, "DCS\x00"...)
	out = be.AppendUint32(out, uint32(rawLen))
	out = be.AppendUint32(out, uint32(len(comp)))
	out = append(out, "DCP\x00KRAK"...)
	out = be.AppendUint32(out, 0x20)
	out = append(out, 6, 0, 0, 0)
	out = append(out, make([]byte, 12)...)
	out = append(out, "DCA\x00"...)
	out = be.AppendUint32(out, 8)
	return append(out, comp...)
}

// writeFile seeds a file under dir and returns its path.
func writeFile(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}

	return path
}

// readFile reads path or fails the test.
func readFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return data
}

// snapshotDir returns relative path to content for every file under dir.
func snapshotDir(t *testing.T, dir string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}

	return out
}
