package postlist

// chunkReader is a forward-only iterator over a standard delta-coded
// posting chunk body (spec.md §4.3). It is constructed with the body
// bytes immediately after the chunk header and the chunk's first docid,
// and eagerly decodes the first entry's wdf at construction time.
type chunkReader struct {
	data   []byte
	pos    int
	did    uint64
	wdf    uint64
	atEnd  bool
}

// newChunkReader builds a reader over body, which must already have the
// first-chunk header (if any) and the standard chunk header stripped.
func newChunkReader(firstDID uint64, body []byte) (*chunkReader, error) {
	r := &chunkReader{data: body, did: firstDID, atEnd: len(body) == 0}
	if !r.atEnd {
		wdf, pos, err := unpackUint(body, 0)
		if err != nil {
			return nil, decodeErrorf(err, "first wdf in chunk")
		}
		r.wdf = wdf
		r.pos = pos
	}
	return r, nil
}

func (r *chunkReader) DocID() uint64  { return r.did }
func (r *chunkReader) WDF() uint64    { return r.wdf }
func (r *chunkReader) AtEnd() bool    { return r.atEnd }

// Next advances to the next entry, setting AtEnd if the body is
// exhausted.
func (r *chunkReader) Next() error {
	if r.pos == len(r.data) {
		r.atEnd = true
		return nil
	}
	deltaIncrease, pos, err := unpackUint(r.data, r.pos)
	if err != nil {
		return decodeErrorf(err, "docid delta in chunk")
	}
	wdf, pos2, err := unpackUint(r.data, pos)
	if err != nil {
		return decodeErrorf(err, "wdf in chunk")
	}
	r.did += deltaIncrease + 1
	r.wdf = wdf
	r.pos = pos2
	return nil
}
