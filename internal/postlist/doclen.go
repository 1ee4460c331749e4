package postlist

// doclenEntry is one (docid, length) pair of the doclen list, where
// "length" means document length rather than wdf (spec.md GLOSSARY).
type doclenEntry struct {
	DocID  uint64
	Length uint64
}

// encodeDoclenBody implements the greedy dense/sparse block selection
// of spec.md §4.5 over a sorted, distinct-docid slice of entries.
func encodeDoclenBody(entries []doclenEntry) []byte {
	if len(entries) == 0 {
		return nil
	}

	var body []byte
	docIDBefore := entries[0].DocID - 1
	i := 0
	for i < len(entries) {
		startPos := i
		maxBytes := maxBytesFor(entries[i].Length)
		lastDocID := entries[i].DocID
		usedBytes := 0
		goodBytes := 0
		i++

		for i < len(entries) {
			curBytes := maxBytesFor(entries[i].Length)
			if entries[i].DocID != lastDocID+1 || curBytes > maxBytes {
				break
			}
			candidateUsed := usedBytes + maxBytes
			candidateGood := goodBytes + curBytes
			if float64(candidateGood)/float64(candidateUsed) < minGoodRatio {
				break
			}
			usedBytes = candidateUsed
			goodBytes = candidateGood
			lastDocID = entries[i].DocID
			i++
		}

		runLength := i - startPos
		if runLength > minContig {
			body = packUint(body, separator)
			body = packUint(body, entries[startPos].DocID-docIDBefore)
			body = packUintInBytes(body, uint64(runLength), 2)
			body = packUintInBytes(body, uint64(maxBytes), 1)
			for k := startPos; k < i; k++ {
				body = packUintInBytes(body, entries[k].Length, maxBytes)
			}
			docIDBefore = entries[i-1].DocID
		} else {
			for k := startPos; k < i; k++ {
				body = packUint(body, entries[k].DocID-docIDBefore)
				body = packUint(body, entries[k].Length)
				docIDBefore = entries[k].DocID
			}
		}
	}
	return body
}

// decodeDoclenBody decodes a doclen chunk body (already stripped of
// its first-chunk header and standard chunk header) back into a sorted
// slice of entries, by driving a doclenReader to exhaustion.
func decodeDoclenBody(firstDID uint64, body []byte) ([]doclenEntry, error) {
	r, err := newDoclenReader(body, firstDID)
	if err != nil {
		return nil, err
	}
	var entries []doclenEntry
	for !r.AtEnd() {
		entries = append(entries, doclenEntry{DocID: r.GetDocID(), Length: r.GetDoclen()})
		if err := r.Next(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// doclenReader is a forward-and-random-access iterator over a doclen
// chunk body, tracking enough state to support jump_to (spec.md §4.5):
// pos is the read offset into the body (offset 0 is its start, where a
// rewind of the whole chunk goes), didBeforeBlock/posOfBlock let jump_to
// rewind to the start of the current dense block or the whole chunk,
// and lenInfo/bytesInfo describe how much of the current dense block
// remains.
type doclenReader struct {
	data []byte
	pos  int

	firstDIDInChunk uint64
	curDID          uint64
	curLength       uint64

	isInBlock      bool
	lenInfo        int
	bytesInfo      int
	posOfBlock     int
	didBeforeBlock uint64

	atEnd bool
}

func newDoclenReader(body []byte, firstDID uint64) (*doclenReader, error) {
	r := &doclenReader{data: body, firstDIDInChunk: firstDID, curDID: firstDID}
	if len(body) == 0 {
		r.atEnd = true
		return r, nil
	}
	r.curDID = firstDID - 1
	if err := r.Next(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *doclenReader) GetDocID() uint64 { return r.curDID }
func (r *doclenReader) GetDoclen() uint64 { return r.curLength }
func (r *doclenReader) AtEnd() bool       { return r.atEnd }

// Next advances to the next entry, whether inside a dense block or
// between blocks, setting AtEnd if the body is exhausted.
func (r *doclenReader) Next() error {
	if r.atEnd {
		return nil
	}
	if r.pos == len(r.data) {
		r.atEnd = true
		return nil
	}

	if r.isInBlock && r.lenInfo > 0 {
		r.curDID++
		r.lenInfo--
		if r.lenInfo == 0 {
			r.isInBlock = false
		}
		length, pos, err := unpackUintInBytes(r.data, r.pos, r.bytesInfo)
		if err != nil {
			return decodeErrorf(err, "doclen inside dense block")
		}
		r.curLength = length
		r.pos = pos
		return nil
	}

	r.posOfBlock = r.pos
	incre, pos, err := unpackUint(r.data, r.pos)
	if err != nil {
		return decodeErrorf(err, "docid increment")
	}
	if incre != separator {
		r.isInBlock = false
		r.curDID += incre
		length, pos2, err := unpackUint(r.data, pos)
		if err != nil {
			return decodeErrorf(err, "doclen")
		}
		r.curLength = length
		r.pos = pos2
		return nil
	}

	r.isInBlock = true
	incre2, pos2, err := unpackUint(r.data, pos)
	if err != nil {
		return decodeErrorf(err, "dense block docid increment")
	}
	lenInfo, pos3, err := unpackUintInBytes(r.data, pos2, 2)
	if err != nil {
		return decodeErrorf(err, "dense block run length")
	}
	bytesInfo, pos4, err := unpackUintInBytes(r.data, pos3, 1)
	if err != nil {
		return decodeErrorf(err, "dense block byte width")
	}
	r.didBeforeBlock = r.curDID
	r.curDID += incre2
	r.bytesInfo = int(bytesInfo)
	length, pos5, err := unpackUintInBytes(r.data, pos4, r.bytesInfo)
	if err != nil {
		return decodeErrorf(err, "first doclen in dense block")
	}
	r.curLength = length
	r.lenInfo = int(lenInfo) - 1
	r.pos = pos5
	if r.lenInfo == 0 {
		r.isInBlock = false
	}
	return nil
}

// JumpTo repositions to desired. If found, it returns true and
// get_docid()==desired. If not, it returns false positioned at the
// smallest stored docid strictly greater than desired, or AtEnd() if
// there is none (spec.md §4.5's guarantee).
func (r *doclenReader) JumpTo(desired uint64) (bool, error) {
	if r.curDID == desired && !r.atEnd {
		return true, nil
	}

	if r.isInBlock {
		if r.didBeforeBlock >= desired {
			r.pos = 0
			r.curDID = r.firstDIDInChunk - 1
		} else {
			r.pos = r.posOfBlock
			r.curDID = r.didBeforeBlock
		}
	} else if r.curDID > desired {
		r.pos = 0
		r.curDID = r.firstDIDInChunk - 1
	}
	r.atEnd = false

	for r.pos != len(r.data) {
		r.posOfBlock = r.pos
		incre, pos, err := unpackUint(r.data, r.pos)
		if err != nil {
			return false, decodeErrorf(err, "docid increment during jump_to")
		}

		if incre != separator {
			r.isInBlock = false
			r.curDID += incre
			length, pos2, err := unpackUint(r.data, pos)
			if err != nil {
				return false, decodeErrorf(err, "doclen during jump_to")
			}
			r.curLength = length
			r.pos = pos2
			if r.curDID == desired {
				return true, nil
			}
			if r.curDID > desired {
				return false, nil
			}
			continue
		}

		r.isInBlock = true
		incre2, pos2, err := unpackUint(r.data, pos)
		if err != nil {
			return false, decodeErrorf(err, "dense block docid increment during jump_to")
		}
		lenInfo, pos3, err := unpackUintInBytes(r.data, pos2, 2)
		if err != nil {
			return false, decodeErrorf(err, "dense block run length during jump_to")
		}
		bytesInfo, pos4, err := unpackUintInBytes(r.data, pos3, 1)
		if err != nil {
			return false, decodeErrorf(err, "dense block byte width during jump_to")
		}
		r.didBeforeBlock = r.curDID
		r.curDID += incre2
		r.bytesInfo = int(bytesInfo)

		if desired < r.curDID {
			length, pos5, err := unpackUintInBytes(r.data, pos4, r.bytesInfo)
			if err != nil {
				return false, decodeErrorf(err, "doclen during jump_to")
			}
			r.curLength = length
			r.lenInfo = int(lenInfo) - 1
			r.pos = pos5
			if r.lenInfo == 0 {
				r.isInBlock = false
			}
			return false, nil
		}

		if desired <= r.curDID+lenInfo-1 {
			skip := r.bytesInfo * int(desired-r.curDID)
			length, pos6, err := unpackUintInBytes(r.data, pos4+skip, r.bytesInfo)
			if err != nil {
				return false, decodeErrorf(err, "doclen during jump_to")
			}
			r.curLength = length
			r.lenInfo = int(lenInfo) - int(desired-r.curDID) - 1
			r.pos = pos6
			if r.lenInfo == 0 {
				r.isInBlock = false
			}
			r.curDID = desired
			return true, nil
		}

		// desired isn't in this block; skip it entirely.
		r.pos = pos4 + r.bytesInfo*int(lenInfo)
		r.curDID += lenInfo - 1
		r.isInBlock = false
	}

	r.atEnd = true
	return false, nil
}
