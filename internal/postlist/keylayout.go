package postlist

// makeKey returns the lookup key for the first chunk of term's posting
// list: encode_string_preserving_sort(term), per spec.md §4.1. An empty
// term names the doclen list.
func makeKey(term string) []byte {
	return packStringPreservingSort(nil, []byte(term))
}

// makeKeyDocID returns the lookup key for a continuation chunk: the
// same prefix as makeKey(term), followed by the sort-preserving
// encoding of the first docid stored in that chunk.
func makeKeyDocID(term string, firstDID uint64) []byte {
	key := packStringPreservingSort(nil, []byte(term))
	return packUintPreservingSort(key, firstDID)
}

// splitTermFromKey reads the term prefix out of a postlist key,
// returning the term and the position just past it (where a
// continuation key's docid suffix, if any, begins). It recognises the
// empty-term fast path described in §4.1 without needing to scan a
// length field.
func splitTermFromKey(key []byte) (term []byte, pos int, err error) {
	term, pos, derr := unpackStringPreservingSort(key, 0)
	if derr != nil {
		return nil, 0, decodeErrorf(derr, "postlist key term")
	}
	return term, pos, nil
}

// checkTermInKey reports whether key names a chunk belonging to term,
// and returns the position just past the term prefix (keypos in
// spec.md's terminology) so the caller can decode any docid suffix.
// An empty key (cursor past end, nothing to check) is reported as not
// matching, mirroring check_tname_in_key's explicit *keypos==keyend
// early return in the original.
func checkTermInKey(key []byte, term string) (pos int, matches bool, err error) {
	if len(key) == 0 {
		return 0, false, nil
	}
	gotTerm, pos, err := splitTermFromKey(key)
	if err != nil {
		return 0, false, err
	}
	return pos, string(gotTerm) == term, nil
}

// docIDFromKeySuffix decodes the docid suffix of a continuation key,
// given the position keypos returned by splitTermFromKey/checkTermInKey.
func docIDFromKeySuffix(key []byte, keypos int) (uint64, error) {
	did, newPos, err := unpackUintPreservingSort(key, keypos)
	if err != nil {
		return 0, decodeErrorf(err, "docid suffix in postlist key")
	}
	if newPos != len(key) {
		return 0, corruptf("trailing bytes after docid suffix in postlist key")
	}
	return did, nil
}
