package postlist

// writeFirstChunkHeader encodes the three-varint header that prefixes
// the first chunk of a posting list: entries, collfreq, and
// first_did-1 (storing the docid biased down by one keeps the common
// case of a posting list starting near docid 1 compact), per spec.md
// §4.2.
func writeFirstChunkHeader(dst []byte, entries, collFreq, firstDID uint64) []byte {
	dst = packUint(dst, entries)
	dst = packUint(dst, collFreq)
	dst = packUint(dst, firstDID-1)
	return dst
}

// readFirstChunkHeader decodes the header written by
// writeFirstChunkHeader, returning the first docid in the list.
// entries/collFreq may be read as nil-equivalent by passing discard
// pointers; callers that don't need them pass nil.
func readFirstChunkHeader(src []byte, pos int, entries, collFreq *uint64) (firstDID uint64, newPos int, err error) {
	var e, c uint64
	var derr error
	e, pos, derr = unpackUint(src, pos)
	if derr != nil {
		return 0, pos, decodeErrorf(derr, "number of entries")
	}
	c, pos, derr = unpackUint(src, pos)
	if derr != nil {
		return 0, pos, decodeErrorf(derr, "collection freq")
	}
	var firstDIDMinusOne uint64
	firstDIDMinusOne, pos, derr = unpackUint(src, pos)
	if derr != nil {
		return 0, pos, decodeErrorf(derr, "first docid")
	}
	if entries != nil {
		*entries = e
	}
	if collFreq != nil {
		*collFreq = c
	}
	return firstDIDMinusOne + 1, pos, nil
}

// writeChunkHeader encodes the two-field header present at the start of
// every chunk (first or continuation): whether it is the list's last
// chunk, and last_did - first_did.
func writeChunkHeader(dst []byte, isLast bool, firstDID, lastDID uint64) []byte {
	dst = packBool(dst, isLast)
	dst = packUint(dst, lastDID-firstDID)
	return dst
}

// readChunkHeader decodes the header written by writeChunkHeader, given
// the first docid already known for this chunk (from the key suffix or
// the first-chunk header).
func readChunkHeader(src []byte, pos int, firstDID uint64) (isLast bool, lastDID uint64, newPos int, err error) {
	var ok bool
	isLast, pos, ok = unpackBool(src, pos)
	if !ok {
		return false, 0, pos, corruptf("data ran out reading is_last_chunk")
	}
	var increase uint64
	var derr error
	increase, pos, derr = unpackUint(src, pos)
	if derr != nil {
		return false, 0, pos, decodeErrorf(derr, "last docid increase")
	}
	return isLast, firstDID + increase, pos, nil
}
