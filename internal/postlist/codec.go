package postlist

import "errors"

// This file is the concrete instance of the "Codec" collaborator that
// spec.md §1/§6 specifies as an external contract rather than something
// to design. It provides a self-delimiting varint codec (pack_uint /
// unpack_uint), a byte-lexicographically sort-preserving variant used
// for key construction (pack_uint_preserving_sort /
// unpack_uint_preserving_sort), a fixed-width packer
// (pack_uint_in_bytes / unpack_uint_in_bytes) used by the doclen dense
// block encoding, and a one-byte bool codec (pack_bool / unpack_bool).

// errTruncated and errOverflow distinguish the two ways an unpack can
// fail: src ran out before a value finished, or the decoded value is
// wider than the target width can hold. Callers turn these into the
// package's public ErrCorrupt/ErrRangeError via decodeErrorf, per
// spec.md §7's error table.
var (
	errTruncated = errors.New("truncated")
	errOverflow  = errors.New("overflow")
)

// decodeErrorf turns a codec-level decode failure into the package's
// public error kinds, naming what was being decoded.
func decodeErrorf(cause error, what string) error {
	if errors.Is(cause, errOverflow) {
		return rangef("%s is too large to decode", what)
	}
	return corruptf("data ran out reading %s", what)
}

// packUint appends v to dst in a self-delimiting base-128 form: 7 value
// bits per byte, continuation flagged by the top bit.
func packUint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// unpackUint decodes a packUint-encoded value starting at pos, returning
// the value and the position just past it. err is errTruncated if src
// ran out before a terminating byte was seen, or errOverflow if the
// encoded value needs more than 64 bits to hold.
func unpackUint(src []byte, pos int) (v uint64, newPos int, err error) {
	var shift uint
	for {
		if pos >= len(src) {
			return 0, pos, errTruncated
		}
		b := src[pos]
		pos++
		if shift >= 64 {
			return 0, pos, errOverflow
		}
		if shift == 63 && b&0x7f > 1 {
			return 0, pos, errOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, pos, nil
		}
		shift += 7
	}
}

// packBool appends a single-byte boolean.
func packBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// unpackBool decodes a packBool-encoded value.
func unpackBool(src []byte, pos int) (v bool, newPos int, ok bool) {
	if pos >= len(src) {
		return false, pos, false
	}
	return src[pos] != 0, pos + 1, true
}

// maxBytesFor returns the minimum number of bytes needed to hold v,
// always at least 1 (so that a doclen of 0 still occupies a byte).
func maxBytesFor(v uint64) int {
	if v == 0 {
		return 1
	}
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}

// packUintInBytes writes v in exactly n big-endian bytes. The caller is
// responsible for ensuring v fits in n bytes (callers always derive n
// from maxBytesFor first).
func packUintInBytes(dst []byte, v uint64, n int) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	for i := n - 1; i >= 0; i-- {
		dst[start+i] = byte(v)
		v >>= 8
	}
	return dst
}

// unpackUintInBytes reads exactly n big-endian bytes starting at pos.
// n comes from decoded data (a doclen dense block's stored byte width),
// so it is not trusted to fit in a uint64: n > 8 is reported as
// errOverflow rather than silently truncating the high bytes.
func unpackUintInBytes(src []byte, pos int, n int) (v uint64, newPos int, err error) {
	if n > 8 {
		return 0, pos, errOverflow
	}
	if pos+n > len(src) {
		return 0, pos, errTruncated
	}
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(src[pos+i])
	}
	return v, pos + n, nil
}

// packUintPreservingSort appends v encoded so that byte-lexicographic
// order over the encoded form matches numeric order over v: a one-byte
// length prefix (the minimal byte width needed for v) followed by that
// many big-endian bytes. A shorter encoded value always precedes a
// longer one because minimal-width encoding of a longer value can never
// represent a smaller number.
func packUintPreservingSort(dst []byte, v uint64) []byte {
	n := maxBytesFor(v)
	dst = append(dst, byte(n))
	return packUintInBytes(dst, v, n)
}

// unpackUintPreservingSort decodes a packUintPreservingSort-encoded
// value. A stored length prefix of 0 or more than 8 is reported as
// errOverflow: it claims a value wider than any uint64 this package
// ever encodes.
func unpackUintPreservingSort(src []byte, pos int) (v uint64, newPos int, err error) {
	if pos >= len(src) {
		return 0, pos, errTruncated
	}
	n := int(src[pos])
	pos++
	if n == 0 || n > 8 {
		return 0, pos, errOverflow
	}
	return unpackUintInBytes(src, pos, n)
}

// stringPreservingSortEmpty is the two-byte encoding of the empty
// string under packStringPreservingSort: a length prefix of 0 and no
// body bytes, tagged the way xapian's key layout recognises it as a
// fast path ("\x00\xe0" in the original encoding). Kept as a named
// constant because keylayout.go special-cases it when parsing.
var stringPreservingSortEmpty = []byte{0x00, 0xe0}

// packStringPreservingSort appends s encoded so that byte-lexicographic
// order matches the natural order of (s) pairs used as key prefixes:
// length-preserving-sort-encoded length, followed by the raw bytes.
// The empty string is special-cased to the reserved two-byte tag so
// that it always sorts before any non-empty term's key, as §4.1
// requires.
func packStringPreservingSort(dst []byte, s []byte) []byte {
	if len(s) == 0 {
		return append(dst, stringPreservingSortEmpty...)
	}
	dst = packUintPreservingSort(dst, uint64(len(s)))
	return append(dst, s...)
}

// unpackStringPreservingSort decodes a packStringPreservingSort-encoded
// value, recognising the empty-string fast path first.
func unpackStringPreservingSort(src []byte, pos int) (s []byte, newPos int, err error) {
	if len(src)-pos >= 2 && src[pos] == 0x00 && src[pos+1] == 0xe0 {
		return nil, pos + 2, nil
	}
	n, pos2, err := unpackUintPreservingSort(src, pos)
	if err != nil {
		return nil, pos, err
	}
	if uint64(pos2)+n > uint64(len(src)) {
		return nil, pos, errTruncated
	}
	return src[pos2 : pos2+int(n)], pos2 + int(n), nil
}
