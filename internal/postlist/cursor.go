package postlist

import "github.com/boltdb/bolt"

// Cursor iterates a single posting list in increasing docid order
// (spec.md §4.7). It is constructed for either a term's postings or the
// doclen list (term == ""); WDF() returns the document length in the
// doclen case.
type Cursor struct {
	b            bucket
	tcur         *tcursor
	term         string
	isDoclenList bool

	// tx is set only for cursors returned by Table.OpenCursor, which own
	// their read transaction and must release it on Close.
	tx *bolt.Tx

	empty bool

	did             uint64
	wdf             uint64
	isFirstChunk    bool
	isLastChunk     bool
	firstDIDInChunk uint64
	lastDIDInChunk  uint64
	haveStarted     bool
	isAtEnd         bool

	stdReader *chunkReader
	dlReader  *doclenReader
}

func newCursor(b bucket, term string, isDoclenList bool) (*Cursor, error) {
	c := &Cursor{b: b, term: term, isDoclenList: isDoclenList}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) init() error {
	c.tcur = newTCursor(c.b)
	key := makeKey(c.term)
	if !c.tcur.FindEntry(key) {
		c.empty = true
		c.isAtEnd = true
		c.isLastChunk = true
		return nil
	}

	tag := c.tcur.ReadTag()
	firstDID, pos, err := readFirstChunkHeader(tag, 0, nil, nil)
	if err != nil {
		return err
	}
	c.isFirstChunk = true
	c.did = firstDID
	c.firstDIDInChunk = firstDID

	isLast, lastDID, headerEnd, err := readChunkHeader(tag, pos, firstDID)
	if err != nil {
		return err
	}
	c.isLastChunk = isLast
	c.lastDIDInChunk = lastDID

	return c.loadChunkBody(tag, headerEnd)
}

func (c *Cursor) loadChunkBody(tag []byte, bodyStart int) error {
	if c.isDoclenList {
		r, err := newDoclenReader(tag[bodyStart:], c.firstDIDInChunk)
		if err != nil {
			return err
		}
		c.dlReader = r
		c.did = r.GetDocID()
		c.wdf = r.GetDoclen()
		c.isAtEnd = r.AtEnd()
		return nil
	}
	r, err := newChunkReader(c.firstDIDInChunk, tag[bodyStart:])
	if err != nil {
		return err
	}
	c.stdReader = r
	c.wdf = r.WDF()
	return nil
}

func (c *Cursor) DocID() uint64 { return c.did }
func (c *Cursor) WDF() uint64   { return c.wdf }
func (c *Cursor) AtEnd() bool   { return c.isAtEnd }

// Close releases the cursor's read transaction. Only cursors returned
// by Table.OpenCursor own one; Close is a no-op otherwise.
func (c *Cursor) Close() error {
	if c.tx == nil {
		return nil
	}
	return c.tx.Rollback()
}

// Next advances to the next entry in docid order. The first call after
// construction simply yields the entry already loaded by init.
func (c *Cursor) Next() error {
	if c.empty {
		c.isAtEnd = true
		return nil
	}
	if !c.haveStarted {
		c.haveStarted = true
		return nil
	}
	ok, err := c.nextInChunk()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return c.nextChunk()
}

func (c *Cursor) nextInChunk() (bool, error) {
	if c.isDoclenList {
		if err := c.dlReader.Next(); err != nil {
			return false, err
		}
		if c.dlReader.AtEnd() {
			return false, nil
		}
		c.did = c.dlReader.GetDocID()
		c.wdf = c.dlReader.GetDoclen()
		return true, nil
	}
	if err := c.stdReader.Next(); err != nil {
		return false, err
	}
	if c.stdReader.AtEnd() {
		return false, nil
	}
	c.did = c.stdReader.DocID()
	c.wdf = c.stdReader.WDF()
	return true, nil
}

// nextChunk moves to the chunk following the current one, or marks the
// cursor as exhausted if the current chunk was the last.
func (c *Cursor) nextChunk() error {
	if c.isLastChunk {
		c.isAtEnd = true
		return nil
	}

	c.tcur.Next()
	if c.tcur.AfterEnd() {
		return corruptf("unexpected end of posting list for %q", c.term)
	}
	keypos, matches, err := checkTermInKey(c.tcur.CurrentKey(), c.term)
	if err != nil {
		return err
	}
	if !matches {
		return corruptf("unexpected end of posting list for %q", c.term)
	}

	newDID, err := docIDFromKeySuffix(c.tcur.CurrentKey(), keypos)
	if err != nil {
		return err
	}
	if newDID <= c.did {
		return corruptf("docid not increasing across chunks for %q", c.term)
	}

	c.isFirstChunk = false
	c.did = newDID
	c.firstDIDInChunk = newDID

	tag := c.tcur.ReadTag()
	isLast, lastDID, headerEnd, err := readChunkHeader(tag, 0, c.firstDIDInChunk)
	if err != nil {
		return err
	}
	c.isLastChunk = isLast
	c.lastDIDInChunk = lastDID

	return c.loadChunkBody(tag, headerEnd)
}

// currentChunkContains reports whether desired could be found in the
// chunk the cursor is currently positioned in, without navigating.
func (c *Cursor) currentChunkContains(desired uint64) bool {
	return desired >= c.firstDIDInChunk && desired <= c.lastDIDInChunk
}

// moveToChunkContaining seeks directly to the chunk that would hold
// desired, skipping any chunks in between (spec.md §4.7).
func (c *Cursor) moveToChunkContaining(desired uint64) error {
	key := makeKeyDocID(c.term, desired)
	c.tcur.FindEntry(key)
	if c.tcur.AfterEnd() {
		c.isAtEnd = true
		c.isLastChunk = true
		return nil
	}
	keypos, matches, err := checkTermInKey(c.tcur.CurrentKey(), c.term)
	if err != nil {
		return err
	}
	if !matches {
		c.isAtEnd = true
		c.isLastChunk = true
		return nil
	}

	c.isAtEnd = false
	currentKey := c.tcur.CurrentKey()
	c.isFirstChunk = keypos == len(currentKey)

	tag := c.tcur.ReadTag()
	var firstDID uint64
	pos := 0
	if c.isFirstChunk {
		firstDID, pos, err = readFirstChunkHeader(tag, 0, nil, nil)
	} else {
		firstDID, err = docIDFromKeySuffix(currentKey, keypos)
	}
	if err != nil {
		return err
	}
	c.did = firstDID
	c.firstDIDInChunk = firstDID

	isLast, lastDID, headerEnd, err := readChunkHeader(tag, pos, firstDID)
	if err != nil {
		return err
	}
	c.isLastChunk = isLast
	c.lastDIDInChunk = lastDID

	if err := c.loadChunkBody(tag, headerEnd); err != nil {
		return err
	}

	if desired > c.lastDIDInChunk {
		return c.nextChunk()
	}
	return nil
}

// moveForwardInChunkToAtLeast scans forward within the current standard
// chunk until it finds an entry at or past desired, which the caller
// has already established lies within this chunk's range.
func (c *Cursor) moveForwardInChunkToAtLeast(desired uint64) error {
	if c.did >= desired {
		return nil
	}
	for {
		if err := c.stdReader.Next(); err != nil {
			return err
		}
		if c.stdReader.AtEnd() {
			return corruptf("ran out of chunk before reaching docid %d", desired)
		}
		if c.stdReader.DocID() >= desired {
			c.did = c.stdReader.DocID()
			c.wdf = c.stdReader.WDF()
			return nil
		}
	}
}

// SkipTo advances a term posting-list cursor to the first entry with
// docid >= desired, or to AtEnd if none exists.
func (c *Cursor) SkipTo(desired uint64) error {
	c.haveStarted = true
	if c.empty || c.isAtEnd || desired <= c.did {
		return nil
	}
	if !c.currentChunkContains(desired) {
		if err := c.moveToChunkContaining(desired); err != nil {
			return err
		}
		if c.isAtEnd {
			return nil
		}
	}
	return c.moveForwardInChunkToAtLeast(desired)
}

// JumpTo is SkipTo's doclen-list counterpart: because the doclen list
// has at most one entry per docid, it reports whether desired was
// found exactly rather than leaving the caller to check DocID().
func (c *Cursor) JumpTo(desired uint64) (bool, error) {
	c.haveStarted = true
	if c.empty {
		return false, nil
	}
	if c.isAtEnd || !c.currentChunkContains(desired) || desired < c.did {
		if err := c.moveToChunkContaining(desired); err != nil {
			return false, err
		}
		if c.isAtEnd {
			return false, nil
		}
	}
	ok, err := c.dlReader.JumpTo(desired)
	if err != nil {
		return false, err
	}
	c.isAtEnd = c.dlReader.AtEnd()
	c.did = c.dlReader.GetDocID()
	c.wdf = c.dlReader.GetDoclen()
	return ok, nil
}
