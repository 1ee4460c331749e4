package postlist

// chunkWriter is an output iterator over a standard postlist chunk,
// handling deletion/replacement of entries (spec.md §4.4). It is not
// meant for pure appends at the end of a list — get_chunk's raw-append
// fast path covers that case instead.
type chunkWriter struct {
	origKey      []byte
	term         string
	isFirstChunk bool
	isLastChunk  bool
	started      bool

	firstDID   uint64
	currentDID uint64
	body       []byte
}

func newChunkWriter(origKey []byte, isFirstChunk bool, term string, isLastChunk bool) *chunkWriter {
	return &chunkWriter{origKey: origKey, term: term, isFirstChunk: isFirstChunk, isLastChunk: isLastChunk}
}

// Append adds an entry. The first call establishes firstDID; later
// calls require did > currentDID. If the accumulated body has grown to
// the chunkSize threshold, the current chunk is flushed as not-last and
// a fresh chunk is started under a key renamed to this entry's docid.
func (w *chunkWriter) Append(b bucket, did, wdf uint64) error {
	if !w.started {
		w.started = true
		w.firstDID = did
	} else {
		if len(w.body) >= chunkSize {
			saveIsLast := w.isLastChunk
			w.isLastChunk = false
			if err := w.flush(b); err != nil {
				return err
			}
			w.isLastChunk = saveIsLast
			w.isFirstChunk = false
			w.firstDID = did
			w.body = nil
			w.origKey = makeKeyDocID(w.term, did)
		} else {
			w.body = packUint(w.body, did-w.currentDID-1)
		}
	}
	w.currentDID = did
	w.body = packUint(w.body, wdf)
	return nil
}

// RawAppend appends a complete pre-encoded body wholesale: the fast
// path used when every entry of the chunk this writer was opened on
// falls below the next edited docid, so there is nothing to decode and
// re-encode.
func (w *chunkWriter) RawAppend(firstDID, currentDID uint64, body []byte) {
	w.firstDID = firstDID
	w.currentDID = currentDID
	if len(body) > 0 {
		w.body = append(w.body, body...)
		w.started = true
	}
}

// flush implements the state machine of spec.md §4.4/§4.9: depending
// on whether this chunk ended up empty, is the first chunk of the list,
// and is the last, it deletes a key, overwrites one, renames one, or
// promotes the next chunk into the first chunk's slot.
func (w *chunkWriter) flush(b bucket) error {
	empty := !w.started

	if empty {
		if w.isFirstChunk {
			if w.isLastChunk {
				return b.Delete(w.origKey)
			}
			return w.promoteNextToFirst(b)
		}

		if err := b.Delete(w.origKey); err != nil {
			return err
		}
		if w.isLastChunk {
			return w.markPreviousAsLast(b)
		}
		return nil
	}

	if w.isFirstChunk {
		return w.rewriteFirstChunk(b)
	}
	return w.rewriteContinuationChunk(b)
}

// promoteNextToFirst handles the Y,Y,N row of §4.4's table: the first
// chunk emptied out but chunks remain, so the chunk that follows it
// must be renamed to the first-chunk key and re-tagged with a
// first-chunk header.
func (w *chunkWriter) promoteNextToFirst(b bucket) error {
	cur := newTCursor(b)
	if !cur.FindEntry(w.origKey) {
		return corruptf("the key we're working on has disappeared")
	}

	var entries, collFreq uint64
	if _, _, err := readFirstChunkHeader(cur.ReadTag(), 0, &entries, &collFreq); err != nil {
		return err
	}

	cur.Next()
	if cur.AfterEnd() {
		return corruptf("expected another key but found none")
	}
	keypos, matches, err := checkTermInKey(cur.CurrentKey(), w.term)
	if err != nil {
		return err
	}
	if !matches {
		return corruptf("expected another key with the same term but found a different one")
	}
	newFirstDID, err := docIDFromKeySuffix(cur.CurrentKey(), keypos)
	if err != nil {
		return err
	}

	tag := cur.ReadTag()
	newIsLast, newLastDID, headerEnd, err := readChunkHeader(tag, 0, newFirstDID)
	if err != nil {
		return err
	}
	chunkData := tag[headerEnd:]

	if err := b.Delete(cur.CurrentKey()); err != nil {
		return err
	}

	newTag := writeFirstChunkHeader(nil, entries, collFreq, newFirstDID)
	newTag = writeChunkHeader(newTag, newIsLast, newFirstDID, newLastDID)
	newTag = append(newTag, chunkData...)
	return b.Put(w.origKey, newTag)
}

// markPreviousAsLast handles the Y,N,Y row: the deleted chunk was the
// list's last, so the chunk immediately before it in key order must
// have its is_last_chunk flag set.
func (w *chunkWriter) markPreviousAsLast(b bucket) error {
	cur := newTCursor(b)
	if cur.FindEntry(w.origKey) {
		return corruptf("key not deleted as expected")
	}
	if cur.AfterEnd() {
		return corruptf("couldn't find chunk before deleted chunk")
	}

	keypos, matches, err := checkTermInKey(cur.CurrentKey(), w.term)
	if err != nil {
		return err
	}
	if !matches {
		return corruptf("couldn't find chunk before deleted chunk")
	}
	isPrevFirstChunk := keypos == len(cur.CurrentKey())

	tag := cur.ReadTag()
	var firstDIDInChunk uint64
	headerStart := 0
	if isPrevFirstChunk {
		firstDIDInChunk, headerStart, err = readFirstChunkHeader(tag, 0, nil, nil)
		if err != nil {
			return err
		}
	} else {
		firstDIDInChunk, err = docIDFromKeySuffix(cur.CurrentKey(), keypos)
		if err != nil {
			return err
		}
	}

	_, lastDIDInChunk, headerEnd, err := readChunkHeader(tag, headerStart, firstDIDInChunk)
	if err != nil {
		return err
	}

	newTag := make([]byte, 0, len(tag))
	newTag = append(newTag, tag[:headerStart]...)
	newTag = writeChunkHeader(newTag, true, firstDIDInChunk, lastDIDInChunk)
	newTag = append(newTag, tag[headerEnd:]...)
	return b.Put(cur.CurrentKey(), newTag)
}

// rewriteFirstChunk handles the N,Y,* row: the first chunk still has
// entries, so it is simply re-tagged in place at its fixed key.
func (w *chunkWriter) rewriteFirstChunk(b bucket) error {
	key := makeKey(w.term)
	tag := b.Get(key)
	if tag == nil {
		return corruptf("missing first chunk tag for %q", w.term)
	}
	var entries, collFreq uint64
	if _, _, err := readFirstChunkHeader(tag, 0, &entries, &collFreq); err != nil {
		return err
	}

	newTag := writeFirstChunkHeader(nil, entries, collFreq, w.firstDID)
	newTag = writeChunkHeader(newTag, w.isLastChunk, w.firstDID, w.currentDID)
	newTag = append(newTag, w.body...)
	return b.Put(key, newTag)
}

// rewriteContinuationChunk handles the N,N,* row: if the chunk's first
// entry hasn't changed, the tag is overwritten at its existing key;
// otherwise the key must be renamed to reflect the new first docid.
func (w *chunkWriter) rewriteContinuationChunk(b bucket) error {
	keypos, matches, err := checkTermInKey(w.origKey, w.term)
	if err != nil {
		return err
	}
	if !matches {
		return corruptf("invalid key writing to postlist for %q", w.term)
	}
	initialDID, err := docIDFromKeySuffix(w.origKey, keypos)
	if err != nil {
		return err
	}

	newKey := w.origKey
	if initialDID != w.firstDID {
		newKey = makeKeyDocID(w.term, w.firstDID)
		if err := b.Delete(w.origKey); err != nil {
			return err
		}
	}

	tag := writeChunkHeader(nil, w.isLastChunk, w.firstDID, w.currentDID)
	tag = append(tag, w.body...)
	return b.Put(newKey, tag)
}
