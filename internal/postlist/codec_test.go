package postlist

import (
	"errors"
	"testing"
)

func TestPackUnpackUint(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := packUint(nil, v)
		got, pos, err := unpackUint(buf, 0)
		if err != nil {
			t.Fatalf("unpackUint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("unpackUint(%d): got %d", v, got)
		}
		if pos != len(buf) {
			t.Errorf("unpackUint(%d): pos %d, want %d", v, pos, len(buf))
		}
	}
}

func TestUnpackUintTruncated(t *testing.T) {
	buf := packUint(nil, 1<<20)
	_, _, err := unpackUint(buf[:len(buf)-1], 0)
	if !errors.Is(err, errTruncated) {
		t.Errorf("expected errTruncated for truncated buffer, got %v", err)
	}
	if !errors.Is(decodeErrorf(err, "test value"), ErrCorrupt) {
		t.Error("expected decodeErrorf to surface ErrCorrupt for a truncated unpackUint")
	}
}

func TestUnpackUintOverflow(t *testing.T) {
	// Ten continuation bytes carry 70 payload bits before the terminating
	// byte, past what a uint64 can hold.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, _, err := unpackUint(buf, 0)
	if !errors.Is(err, errOverflow) {
		t.Fatalf("expected errOverflow for a 70-bit varint, got %v", err)
	}
	if !errors.Is(decodeErrorf(err, "test value"), ErrRangeError) {
		t.Error("expected decodeErrorf to surface ErrRangeError for unpackUint overflow")
	}
}

func TestPackUnpackBool(t *testing.T) {
	for _, b := range []bool{true, false} {
		buf := packBool(nil, b)
		got, pos, ok := unpackBool(buf, 0)
		if !ok || got != b || pos != 1 {
			t.Errorf("packBool(%v): got %v, %d, %v", b, got, pos, ok)
		}
	}
}

func TestPackUnpackUintInBytes(t *testing.T) {
	buf := packUintInBytes(nil, 300, 2)
	if len(buf) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(buf))
	}
	got, pos, err := unpackUintInBytes(buf, 0, 2)
	if err != nil || got != 300 || pos != 2 {
		t.Errorf("got %d, %d, %v", got, pos, err)
	}
}

func TestUnpackUintInBytesOverflow(t *testing.T) {
	// bytesInfo comes from on-disk data in a doclen dense block header and
	// is not trusted: a corrupted width past 8 must raise errOverflow
	// rather than silently wrapping as it accumulates past 64 bits.
	buf := make([]byte, 9)
	_, _, err := unpackUintInBytes(buf, 0, 9)
	if !errors.Is(err, errOverflow) {
		t.Fatalf("expected errOverflow for a 9-byte width, got %v", err)
	}
	if !errors.Is(decodeErrorf(err, "test value"), ErrRangeError) {
		t.Error("expected decodeErrorf to surface ErrRangeError for unpackUintInBytes overflow")
	}
}

func TestUintPreservingSortMonotonic(t *testing.T) {
	values := []uint64{0, 1, 2, 127, 128, 255, 256, 65535, 65536, 1 << 32, ^uint64(0)}
	var prev []byte
	for i, v := range values {
		buf := packUintPreservingSort(nil, v)
		if i > 0 && bytesCompare(prev, buf) >= 0 {
			t.Errorf("encoding of %d did not sort after previous value", v)
		}
		prev = buf

		got, pos, err := unpackUintPreservingSort(buf, 0)
		if err != nil || got != v || pos != len(buf) {
			t.Errorf("roundtrip %d: got %d, %d, %v", v, got, pos, err)
		}
	}
}

func TestUnpackUintPreservingSortOverflow(t *testing.T) {
	// A stored length prefix of 9 claims a value wider than any uint64
	// this package ever encodes.
	buf := []byte{9, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, _, err := unpackUintPreservingSort(buf, 0)
	if !errors.Is(err, errOverflow) {
		t.Fatalf("expected errOverflow for length prefix 9, got %v", err)
	}
	if !errors.Is(decodeErrorf(err, "test value"), ErrRangeError) {
		t.Error("expected decodeErrorf to surface ErrRangeError for a length-prefix-9 docid suffix")
	}

	// A stored length prefix of 0 is likewise rejected as overflow, not
	// treated as an all-zero value.
	zeroBuf := []byte{0}
	_, _, err = unpackUintPreservingSort(zeroBuf, 0)
	if !errors.Is(err, errOverflow) {
		t.Errorf("expected errOverflow for length prefix 0, got %v", err)
	}
}

func TestStringPreservingSortEmptyFirst(t *testing.T) {
	empty := packStringPreservingSort(nil, nil)
	nonEmpty := packStringPreservingSort(nil, []byte("a"))
	if bytesCompare(empty, nonEmpty) >= 0 {
		t.Error("empty string encoding must sort before any non-empty string")
	}

	s, pos, err := unpackStringPreservingSort(empty, 0)
	if err != nil || len(s) != 0 || pos != len(empty) {
		t.Errorf("roundtrip empty: %v, %d, %v", s, pos, err)
	}
}

func TestStringPreservingSortRoundtrip(t *testing.T) {
	for _, s := range []string{"a", "ab", "hello world", ""} {
		buf := packStringPreservingSort(nil, []byte(s))
		got, pos, err := unpackStringPreservingSort(buf, 0)
		if err != nil || string(got) != s || pos != len(buf) {
			t.Errorf("roundtrip %q: got %q, %d, %v", s, got, pos, err)
		}
	}
}

func bytesCompare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}
