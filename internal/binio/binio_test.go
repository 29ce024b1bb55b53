package binio

import (
	"errors"
	"testing"
)

func TestCStringRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		enc  Encoding
	}{
		{name: "shift-jis ascii", in: `N:\FDP\data\param.bin`, enc: ShiftJIS},
		{name: "shift-jis kana", in: "テスト.tpf", enc: ShiftJIS},
		{name: "utf16le", in: "エルデンリング", enc: UTF16LE},
		{name: "utf16be", in: "regulation", enc: UTF16BE},
		{name: "empty", in: "", enc: UTF16LE},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf, err := AppendCString([]byte{0xAA}, tc.in, tc.enc)
			if err != nil {
				t.Fatalf("AppendCString: %v", err)
			}

			got, err := CString(buf, 1, tc.enc)
			if err != nil {
				t.Fatalf("CString: %v", err)
			}
			if got != tc.in {
				t.Fatalf("CString=%q, want %q", got, tc.in)
			}
		})
	}
}

func TestCStringUnterminated(t *testing.T) {
	t.Parallel()

	if _, err := CString([]byte("abc"), 0, ShiftJIS); !errors.Is(err, ErrUnterminated) {
		t.Fatalf("err=%v, want ErrUnterminated", err)
	}
}

func TestCursorStickyError(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 0, 0, 0, 2}, OrderOf(false))
	if got := c.U32(); got != 1 {
		t.Fatalf("U32=%d, want 1", got)
	}
	if got := c.U32(); got != 0 {
		t.Fatalf("U32 past end=%d, want 0", got)
	}
	if !errors.Is(c.Err(), ErrTruncated) {
		t.Fatalf("Err=%v, want ErrTruncated", c.Err())
	}
	if got := c.U8(); got != 0 {
		t.Fatalf("U8 after error=%d, want 0", got)
	}
}

func TestAlignAndPad(t *testing.T) {
	t.Parallel()

	if got := Align(17, 16); got != 32 {
		t.Fatalf("Align(17,16)=%d, want 32", got)
	}
	if got := Align(32, 16); got != 32 {
		t.Fatalf("Align(32,16)=%d, want 32", got)
	}
	if got := len(Pad(make([]byte, 5), 16)); got != 16 {
		t.Fatalf("Pad len=%d, want 16", got)
	}
}
