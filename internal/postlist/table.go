package postlist

import (
	"fmt"
	"path/filepath"

	"github.com/boltdb/bolt"
)

// TombstoneWDF marks a PostingChange as a deletion rather than an
// insert/update: the reserved max-uint64 value spec.md §6 sets aside
// since no real wdf can reach it.
const TombstoneWDF = ^uint64(0)

// PostingChange is one pending edit to a term's posting list: a new wdf
// for DocID, or a deletion when WDF == TombstoneWDF. MergeChanges
// requires changes sorted ascending by DocID.
type PostingChange struct {
	DocID uint64
	WDF   uint64
}

// DoclenChange is the doclen-list counterpart of PostingChange.
type DoclenChange struct {
	DocID  uint64
	Length uint64
	Delete bool
}

var bucketPostlist = []byte("postlist")

// Options configures a Table: Dir is the directory holding the backing
// BoltDB file.
type Options struct {
	Dir string
}

func DefaultOptions(dir string) Options {
	return Options{Dir: dir}
}

// Table is the facade spec.md §4.8 describes: a single BoltDB bucket
// holding both term posting lists and the doclen list, keyed per §4.1.
type Table struct {
	db *bolt.DB

	doclenTx     *bolt.Tx
	doclenCursor *Cursor
}

// Open creates or opens a Table backed by a BoltDB file under opts.Dir.
func Open(opts Options) (*Table, error) {
	dbPath := filepath.Join(opts.Dir, "postlist.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("postlist: failed to open table: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPostlist)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postlist: failed to initialize bucket: %w", err)
	}

	return &Table{db: db}, nil
}

func (t *Table) Close() error {
	t.resetDoclenCache()
	return t.db.Close()
}

func (t *Table) resetDoclenCache() {
	if t.doclenTx != nil {
		t.doclenTx.Rollback()
		t.doclenTx = nil
		t.doclenCursor = nil
	}
}

// ListTerms returns every term with a posting list in the table, in key
// order. It is the building block for internal/termdict's FST snapshots.
func (t *Table) ListTerms() ([]string, error) {
	var terms []string
	err := t.db.View(func(tx *bolt.Tx) error {
		var err error
		terms, err = listTerms(tx.Bucket(bucketPostlist))
		return err
	})
	return terms, err
}

// GetFreqs returns the term frequency (document count) and collection
// frequency (total wdf) stored in the first chunk's header for term. A
// term with no posting list returns (0, 0, nil).
func (t *Table) GetFreqs(term string) (termfreq, collfreq uint64, err error) {
	err = t.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPostlist)
		tag := b.Get(makeKey(term))
		if tag == nil {
			return nil
		}
		_, _, ferr := readFirstChunkHeader(tag, 0, &termfreq, &collfreq)
		return ferr
	})
	return termfreq, collfreq, err
}

// DocumentExists reports whether the doclen list has an entry for did.
func (t *Table) DocumentExists(did uint64) (bool, error) {
	_, err := t.GetDocLength(did)
	if err == nil {
		return true, nil
	}
	if isDocNotFound(err) {
		return false, nil
	}
	return false, err
}

func isDocNotFound(err error) bool {
	_, ok := err.(*DocNotFoundError)
	return ok
}

// GetDocLength returns did's document length from the doclen list,
// reusing a cached long-lived read transaction and cursor across calls
// (spec.md §5), lazily reopened whenever a write invalidates it.
func (t *Table) GetDocLength(did uint64) (uint64, error) {
	if t.doclenTx == nil {
		tx, err := t.db.Begin(false)
		if err != nil {
			return 0, fmt.Errorf("postlist: failed to begin doclen read: %w", err)
		}
		cur, err := newCursor(tx.Bucket(bucketPostlist), "", true)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		t.doclenTx = tx
		t.doclenCursor = cur
	}

	ok, err := t.doclenCursor.JumpTo(did)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errDocNotFound(did)
	}
	return t.doclenCursor.WDF(), nil
}

// OpenCursor returns a read-only cursor over term's posting list (or
// the doclen list, if term is empty), backed by its own transaction.
// The caller must call Close when done.
func (t *Table) OpenCursor(term string) (*Cursor, error) {
	tx, err := t.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("postlist: failed to begin cursor read: %w", err)
	}
	cur, err := newCursor(tx.Bucket(bucketPostlist), term, term == "")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	cur.tx = tx
	return cur, nil
}

// MergeChanges applies a batch of posting edits for term, adjusting the
// stored termfreq/collfreq by the given deltas (spec.md §4.8).
func (t *Table) MergeChanges(term string, tfDelta, cfDelta int64, changes []PostingChange) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		return mergeChanges(tx.Bucket(bucketPostlist), term, tfDelta, cfDelta, changes)
	})
}

// MergeDoclenChanges applies a batch of doclen edits. Any cached doclen
// read transaction is invalidated first, since it would otherwise see a
// stale snapshot after this write commits.
func (t *Table) MergeDoclenChanges(changes []DoclenChange) error {
	t.resetDoclenCache()
	if len(changes) == 0 {
		return nil
	}
	internal := make([]doclenChange, len(changes))
	for i, c := range changes {
		internal[i] = doclenChange{DocID: c.DocID, Length: c.Length, Delete: c.Delete}
	}
	return t.db.Update(func(tx *bolt.Tx) error {
		return mergeDoclenChanges(tx.Bucket(bucketPostlist), internal)
	})
}

func applySignedDelta(cur uint64, delta int64) (uint64, error) {
	if delta >= 0 {
		return cur + uint64(delta), nil
	}
	dec := uint64(-delta)
	if dec > cur {
		return 0, corruptf("delta underflows accumulated value %d by %d", cur, delta)
	}
	return cur - dec, nil
}

// getChunk locates the chunk that would hold did in term's posting
// list, returning a reader over its existing entries (nil if did falls
// past the chunk's last entry, in which case the chunk's body has
// already been copied into the writer wholesale via RawAppend) plus a writer
// primed to replace/extend it, and the largest docid this writer may
// still receive before a fresh getChunk call is needed.
func getChunk(b bucket, term string, did uint64, adding bool) (maxDID uint64, reader *chunkReader, writer *chunkWriter, err error) {
	key := makeKeyDocID(term, did)
	cur := newTCursor(b)
	cur.FindEntry(key)
	if cur.AfterEnd() {
		return 0, nil, nil, corruptf("get_chunk: cursor past end for %q", term)
	}

	origKey := append([]byte(nil), cur.CurrentKey()...)
	keypos, matches, err := checkTermInKey(origKey, term)
	if err != nil {
		return 0, nil, nil, err
	}
	if !matches {
		if !adding {
			return 0, nil, nil, corruptf("non-existent list modified: %q", term)
		}
		return ^uint64(0), nil, newChunkWriter(nil, true, term, true), nil
	}

	isFirstChunk := keypos == len(origKey)
	tag := cur.ReadTag()
	var firstDIDInChunk uint64
	pos := 0
	if isFirstChunk {
		firstDIDInChunk, pos, err = readFirstChunkHeader(tag, 0, nil, nil)
	} else {
		firstDIDInChunk, err = docIDFromKeySuffix(origKey, keypos)
	}
	if err != nil {
		return 0, nil, nil, err
	}

	isLastChunk, lastDIDInChunk, headerEnd, err := readChunkHeader(tag, pos, firstDIDInChunk)
	if err != nil {
		return 0, nil, nil, err
	}

	writer = newChunkWriter(origKey, isFirstChunk, term, isLastChunk)
	body := tag[headerEnd:]
	if did > lastDIDInChunk {
		writer.RawAppend(firstDIDInChunk, lastDIDInChunk, body)
	} else {
		reader, err = newChunkReader(firstDIDInChunk, body)
		if err != nil {
			return 0, nil, nil, err
		}
	}

	if isLastChunk {
		return ^uint64(0), reader, writer, nil
	}

	cur.Next()
	if cur.AfterEnd() {
		return 0, nil, nil, corruptf("expected another key but found none")
	}
	keypos2, matches2, err := checkTermInKey(cur.CurrentKey(), term)
	if err != nil {
		return 0, nil, nil, err
	}
	if !matches2 {
		return 0, nil, nil, corruptf("expected another key with the same term but found a different one")
	}
	nextFirstDID, err := docIDFromKeySuffix(cur.CurrentKey(), keypos2)
	if err != nil {
		return 0, nil, nil, err
	}
	return nextFirstDID - 1, reader, writer, nil
}

// mergeChanges is the unexported core of Table.MergeChanges, operating
// directly on a bucket so it composes inside a single bolt.Update call.
func mergeChanges(b bucket, term string, tfDelta, cfDelta int64, changes []PostingChange) error {
	currentKey := makeKey(term)
	tag := b.Get(currentKey)

	var termfreq, collfreq, firstDID, lastDID uint64
	var isLast bool
	var bodyStart int
	if tag != nil {
		var pos int
		var err error
		firstDID, pos, err = readFirstChunkHeader(tag, 0, &termfreq, &collfreq)
		if err != nil {
			return err
		}
		isLast, lastDID, bodyStart, err = readChunkHeader(tag, pos, firstDID)
		if err != nil {
			return err
		}
	} else {
		isLast = true
	}

	newTermfreq, err := applySignedDelta(termfreq, tfDelta)
	if err != nil {
		return err
	}

	if newTermfreq == 0 {
		if isLast {
			return b.Delete(currentKey)
		}
		cur := newTCursor(b)
		if !cur.FindEntry(currentKey) {
			return corruptf("non-existent list modified: %q", term)
		}
		for {
			more, err := cur.Del(b)
			if err != nil {
				return err
			}
			if !more {
				break
			}
			_, matches, err := checkTermInKey(cur.CurrentKey(), term)
			if err != nil {
				return err
			}
			if !matches {
				break
			}
		}
		return nil
	}

	newCollfreq, err := applySignedDelta(collfreq, cfDelta)
	if err != nil {
		return err
	}

	newHdr := writeFirstChunkHeader(nil, newTermfreq, newCollfreq, firstDID)
	newHdr = writeChunkHeader(newHdr, isLast, firstDID, lastDID)
	var newTag []byte
	if tag == nil {
		newTag = newHdr
	} else {
		newTag = append(newHdr, tag[bodyStart:]...)
	}
	if err := b.Put(currentKey, newTag); err != nil {
		return err
	}

	if len(changes) == 0 {
		return nil
	}

	maxDID, reader, writer, err := getChunk(b, term, changes[0].DocID, false)
	if err != nil {
		return err
	}

	idx := 0
	for idx < len(changes) {
		did := changes[idx].DocID

		for reader != nil && !reader.AtEnd() {
			copyDID := reader.DocID()
			if copyDID >= did {
				if copyDID == did {
					if err := reader.Next(); err != nil {
						return err
					}
				}
				break
			}
			if err := writer.Append(b, copyDID, reader.WDF()); err != nil {
				return err
			}
			if err := reader.Next(); err != nil {
				return err
			}
		}

		if (reader == nil || reader.AtEnd()) && did > maxDID {
			if err := writer.flush(b); err != nil {
				return err
			}
			maxDID, reader, writer, err = getChunk(b, term, did, false)
			if err != nil {
				return err
			}
			continue
		}

		if changes[idx].WDF != TombstoneWDF {
			if err := writer.Append(b, did, changes[idx].WDF); err != nil {
				return err
			}
		}
		idx++
	}

	if reader != nil {
		for !reader.AtEnd() {
			if err := writer.Append(b, reader.DocID(), reader.WDF()); err != nil {
				return err
			}
			if err := reader.Next(); err != nil {
				return err
			}
		}
	}
	return writer.flush(b)
}

// mergeDoclenChanges is the unexported core of Table.MergeDoclenChanges.
func mergeDoclenChanges(b bucket, changes []doclenChange) error {
	firstKey := makeKey("")
	if b.Get(firstKey) == nil {
		dummy := writeFirstChunkHeader(nil, 0, 0, 0)
		dummy = writeChunkHeader(dummy, true, 0, 0)
		if err := b.Put(firstKey, dummy); err != nil {
			return err
		}
	}

	idx := 0
	for idx < len(changes) {
		startIdx := idx
		key := makeKeyDocID("", changes[idx].DocID)

		cur := newTCursor(b)
		cur.FindEntry(key)
		if cur.AfterEnd() {
			return corruptf("get_chunk: cursor past end for doclen list")
		}
		origKey := append([]byte(nil), cur.CurrentKey()...)
		keypos, matches, err := checkTermInKey(origKey, "")
		if err != nil {
			return err
		}
		if !matches {
			return corruptf("doclen chunk navigation landed on the wrong key")
		}
		isFirstChunk := keypos == len(origKey)

		tag := append([]byte(nil), cur.ReadTag()...)
		var firstDIDInChunk uint64
		pos := 0
		if isFirstChunk {
			firstDIDInChunk, pos, err = readFirstChunkHeader(tag, 0, nil, nil)
		} else {
			firstDIDInChunk, err = docIDFromKeySuffix(origKey, keypos)
		}
		if err != nil {
			return err
		}

		isLastChunk, _, headerEnd, err := readChunkHeader(tag, pos, firstDIDInChunk)
		if err != nil {
			return err
		}

		hasNext := false
		var firstDIDInNextChunk uint64
		if !isLastChunk {
			cur.Next()
			if cur.AfterEnd() {
				return corruptf("expected another doclen chunk but found none")
			}
			keypos2, matches2, err := checkTermInKey(cur.CurrentKey(), "")
			if err != nil {
				return err
			}
			if !matches2 {
				return corruptf("expected another doclen chunk but found a different key")
			}
			firstDIDInNextChunk, err = docIDFromKeySuffix(cur.CurrentKey(), keypos2)
			if err != nil {
				return err
			}
			hasNext = true
		}

		for idx < len(changes) && (!hasNext || changes[idx].DocID < firstDIDInNextChunk) {
			idx++
		}

		if err := b.Delete(origKey); err != nil {
			return err
		}

		original, err := decodeDoclenBody(firstDIDInChunk, tag[headerEnd:])
		if err != nil {
			return err
		}
		merged := mergeDoclenEntries(original, changes[startIdx:idx])
		if err := writeDoclenChunks(b, merged, isFirstChunk, isLastChunk); err != nil {
			return err
		}
	}
	return nil
}
