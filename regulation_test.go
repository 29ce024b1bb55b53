package yabber

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/regulation"
)

func TestRegulationRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		file  string
		dir   string
		title regulation.Title
		typ   dcx.Type
	}{
		{name: "elden ring", file: "regulation.bin", dir: "regulation-bin", title: regulation.TitleEldenRing, typ: dcx.TypeDFLT11000_44_9},
		{name: "dark souls 3", file: "Data0.bdt", dir: "Data0-bdt", title: regulation.TitleDarkSouls3, typ: dcx.TypeDFLT10000_44_9},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			plain := compressed(t, binderBytes(t, binder.KindBND4), tc.typ)
			iv := bytes.Repeat([]byte{0x3C}, 16)
			encrypted, err := regulation.Encrypt(tc.title, plain, regulation.Seal{Title: tc.title, IV: iv})
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}

			root := t.TempDir()
			src := writeFile(t, root, tc.file, encrypted)

			res, err := Unpack(t.Context(), src, Options{})
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if res.Regulation != tc.title || res.Compression != tc.typ || res.Output != filepath.Join(root, tc.dir) {
				t.Fatalf("result=%+v", res)
			}

			m, err := binder.ReadManifest(res.Output, binder.KindBND4)
			if err != nil {
				t.Fatalf("ReadManifest: %v", err)
			}
			if m.Envelope == nil || m.Envelope.Scheme != string(tc.title) {
				t.Fatalf("envelope=%+v", m.Envelope)
			}

			back, err := Repack(t.Context(), res.Output, Options{Backup: true})
			if err != nil {
				t.Fatalf("Repack: %v", err)
			}
			if back.Output != src || back.Regulation != tc.title {
				t.Fatalf("repack result=%+v", back)
			}
			if !bytes.Equal(readFile(t, src), encrypted) {
				t.Fatal("encrypt(decrypt(b)) != b")
			}
		})
	}
}

func TestDarkSouls2RegulationConfirm(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	plain := compressed(t, binderBytes(t, binder.KindBND4), dcx.TypeDFLT10000_24_9)
	src := writeFile(t, root, "enc_regulation.bnd.dcx", plain)

	res, err := Unpack(t.Context(), src, Options{})
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if res.Regulation != regulation.TitleDarkSouls2 {
		t.Fatalf("regulation=%q", res.Regulation)
	}

	if err := os.Remove(src); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	before := snapshotDir(t, root)

	var asked int
	_, err = Repack(t.Context(), res.Output, Options{Confirm: func(string) (bool, error) {
		asked++
		return false, nil
	}})
	if !errors.Is(err, ErrUserDeclined) || Classify(err) != KindUserDeclined {
		t.Fatalf("err=%v, want ErrUserDeclined", err)
	}
	if asked != 1 {
		t.Fatalf("confirm asked %d times, want 1", asked)
	}
	if after := snapshotDir(t, root); !reflect.DeepEqual(before, after) {
		t.Fatal("declined repack changed files")
	}

	back, err := Repack(t.Context(), res.Output, Options{Confirm: func(string) (bool, error) { return true, nil }})
	if err != nil {
		t.Fatalf("Repack accepted: %v", err)
	}
	if !bytes.Equal(readFile(t, back.Output), plain) {
		t.Fatal("accepted repack is not the plaintext container")
	}
}

func TestDarkSouls2DeclinedByDefault(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "enc_regulation-bnd-dcx")
	if err := os.Mkdir(dir, 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if _, err := Repack(t.Context(), dir, Options{}); !errors.Is(err, ErrUserDeclined) {
		t.Fatalf("err=%v, want ErrUserDeclined before manifest lookup", err)
	}
}

func TestRegulationContractViolation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := writeFile(t, root, "regulation.bnd.dcx", []byte("whatever"))

	_, err := Unpack(t.Context(), src, Options{})
	var violation *ContractViolationError
	if !errors.As(err, &violation) || Classify(err) != KindInternalContract {
		t.Fatalf("err=%v, want *ContractViolationError", err)
	}
	if fsutil.IsDir(UnpackDir(src)) {
		t.Fatal("contract violation created a directory")
	}
}

func TestRegulationUnknownEnvelopeKeepsOutput(t *testing.T) {
	t.Parallel()

	plain := compressed(t, binderBytes(t, binder.KindBND4), dcx.TypeDFLT11000_44_9)
	encrypted, err := regulation.Encrypt(regulation.TitleEldenRing, plain, regulation.Seal{Title: regulation.TitleEldenRing})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	root := t.TempDir()
	src := writeFile(t, root, "regulation.bin", encrypted)
	res, err := Unpack(t.Context(), src, Options{})
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	m, err := binder.ReadManifest(res.Output, binder.KindBND4)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	m.Envelope.Scheme = "ds9"
	if err := fsutil.WriteXML(filepath.Join(res.Output, binder.ManifestName(binder.KindBND4)), m); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}

	_, err = Repack(t.Context(), res.Output, Options{})
	if !errors.Is(err, regulation.ErrUnknownTitle) || Classify(err) != KindCodec {
		t.Fatalf("err=%v, want ErrUnknownTitle", err)
	}
	if !bytes.Equal(readFile(t, src), encrypted) {
		t.Fatal("failed repack changed the regulation file")
	}
}
