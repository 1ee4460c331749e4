package postlist

import (
	"bytes"
	"testing"

	"github.com/boltdb/bolt"
)

// chunkDump is a test-only snapshot of one on-disk chunk, decoded back
// into its (docid, wdf) entries so tests can compare chunk contents
// before and after a MergeChanges call drives chunkWriter.flush's
// split/merge state machine (spec.md §4.4).
type chunkDump struct {
	key      []byte
	firstDID uint64
	isLast   bool
	entries  []PostingChange
}

func dumpChunkAt(t *testing.T, table *Table, term string, key []byte, isFirstChunk bool) chunkDump {
	t.Helper()
	var tag []byte
	if err := table.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketPostlist).Get(key); v != nil {
			tag = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if tag == nil {
		t.Fatalf("no chunk at key for %q", term)
	}

	var firstDID uint64
	pos := 0
	var err error
	if isFirstChunk {
		firstDID, pos, err = readFirstChunkHeader(tag, 0, nil, nil)
	} else {
		var keypos int
		var matches bool
		keypos, matches, err = checkTermInKey(key, term)
		if err == nil && !matches {
			t.Fatalf("key does not belong to term %q", term)
		}
		if err == nil {
			firstDID, err = docIDFromKeySuffix(key, keypos)
		}
	}
	if err != nil {
		t.Fatalf("decode first docid: %v", err)
	}

	isLast, _, headerEnd, err := readChunkHeader(tag, pos, firstDID)
	if err != nil {
		t.Fatalf("readChunkHeader: %v", err)
	}

	r, err := newChunkReader(firstDID, tag[headerEnd:])
	if err != nil {
		t.Fatalf("newChunkReader: %v", err)
	}
	var entries []PostingChange
	for !r.AtEnd() {
		entries = append(entries, PostingChange{DocID: r.DocID(), WDF: r.WDF()})
		if err := r.Next(); err != nil {
			t.Fatalf("chunkReader.Next: %v", err)
		}
	}
	return chunkDump{key: append([]byte(nil), key...), firstDID: firstDID, isLast: isLast, entries: entries}
}

// nextKeyAfter returns the key immediately following key in the
// bucket's sort order, or nil if key was the last one.
func nextKeyAfter(t *testing.T, table *Table, key []byte) []byte {
	t.Helper()
	var nextKey []byte
	if err := table.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPostlist).Cursor()
		k, _ := c.Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			t.Fatal("expected to find key while walking chunks")
		}
		k, _ = c.Next()
		if k != nil {
			nextKey = append([]byte(nil), k...)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return nextKey
}

// walkChunks follows term's chunk chain from the first-chunk key to the
// chunk with is_last_chunk set, dumping each one.
func walkChunks(t *testing.T, table *Table, term string) []chunkDump {
	t.Helper()
	var chunks []chunkDump
	key := makeKey(term)
	isFirst := true
	for {
		d := dumpChunkAt(t, table, term, key, isFirst)
		chunks = append(chunks, d)
		if d.isLast {
			break
		}
		key = nextKeyAfter(t, table, key)
		isFirst = false
	}
	return chunks
}

// buildSplitPostingList inserts n consecutive docids under term with
// wdfs wide enough (3-byte varints) that a few hundred entries already
// cross chunkSize, forcing the list to span several chunks.
func buildSplitPostingList(t *testing.T, table *Table, term string, n int) {
	t.Helper()
	changes := make([]PostingChange, n)
	var cf uint64
	for i := 0; i < n; i++ {
		wdf := uint64(100000 + i)
		changes[i] = PostingChange{DocID: uint64(i + 1), WDF: wdf}
		cf += wdf
	}
	if err := table.MergeChanges(term, int64(n), int64(cf), changes); err != nil {
		t.Fatalf("MergeChanges: %v", err)
	}
}

func tombstoneAll(entries []PostingChange) (del []PostingChange, wdfSum uint64) {
	del = make([]PostingChange, len(entries))
	for i, e := range entries {
		del[i] = PostingChange{DocID: e.DocID, WDF: TombstoneWDF}
		wdfSum += e.WDF
	}
	return del, wdfSum
}

// TestDeletingEntireFirstChunkPromotesNext drives chunkWriter.flush's
// Y,Y,N row (promoteNextToFirst): deleting every entry of the first
// chunk of a multi-chunk list must leave the first-chunk key in place,
// now holding what used to be the second chunk's contents (spec.md §8
// scenario S6).
func TestDeletingEntireFirstChunkPromotesNext(t *testing.T) {
	table := newTestTable(t)
	const n = 1200
	term := "plank"
	buildSplitPostingList(t, table, term, n)

	chunks := walkChunks(t, table, term)
	if len(chunks) < 2 {
		t.Fatalf("expected the posting list to split into at least 2 chunks, got %d", len(chunks))
	}
	first, second := chunks[0], chunks[1]
	if first.isLast {
		t.Fatal("expected the first chunk not to be last")
	}

	del, delWDF := tombstoneAll(first.entries)
	if err := table.MergeChanges(term, -int64(len(first.entries)), -int64(delWDF), del); err != nil {
		t.Fatalf("MergeChanges delete: %v", err)
	}

	promoted := dumpChunkAt(t, table, term, makeKey(term), true)
	if len(promoted.entries) != len(second.entries) {
		t.Fatalf("promoted first chunk has %d entries, want %d", len(promoted.entries), len(second.entries))
	}
	for i := range promoted.entries {
		if promoted.entries[i] != second.entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, promoted.entries[i], second.entries[i])
		}
	}
	if promoted.isLast != second.isLast {
		t.Errorf("isLast: got %v, want %v", promoted.isLast, second.isLast)
	}

	if err := table.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketPostlist).Get(second.key) != nil {
			t.Error("expected the old continuation-chunk key to be gone after promotion")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

// TestDeletingEntireLastChunkMarksPreviousAsLast drives
// chunkWriter.flush's Y,N,Y row (markPreviousAsLast): deleting every
// entry of a list's last chunk must remove that chunk's key and flip
// is_last_chunk on the chunk that preceded it.
func TestDeletingEntireLastChunkMarksPreviousAsLast(t *testing.T) {
	table := newTestTable(t)
	const n = 1200
	term := "girder"
	buildSplitPostingList(t, table, term, n)

	chunks := walkChunks(t, table, term)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	prev := chunks[len(chunks)-2]
	last := chunks[len(chunks)-1]
	if prev.isLast {
		t.Fatal("expected the second-to-last chunk not to be last before deletion")
	}

	del, delWDF := tombstoneAll(last.entries)
	if err := table.MergeChanges(term, -int64(len(last.entries)), -int64(delWDF), del); err != nil {
		t.Fatalf("MergeChanges delete: %v", err)
	}

	if err := table.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketPostlist).Get(last.key) != nil {
			t.Error("expected the deleted last chunk's key to be gone")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	isFirstPrev := bytes.Equal(prev.key, makeKey(term))
	updated := dumpChunkAt(t, table, term, prev.key, isFirstPrev)
	if !updated.isLast {
		t.Error("expected the chunk before the deleted one to be marked is_last_chunk")
	}
	if len(updated.entries) != len(prev.entries) {
		t.Fatalf("chunk before deletion changed entry count: got %d, want %d", len(updated.entries), len(prev.entries))
	}
	for i := range updated.entries {
		if updated.entries[i] != prev.entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, updated.entries[i], prev.entries[i])
		}
	}
}

// TestDeletingLeadingEntriesRenamesContinuationChunk drives
// chunkWriter.flush's N,N row through rewriteContinuationChunk's rename
// branch: deleting a continuation chunk's leading entries (but not all
// of them) changes its first surviving docid, so the chunk must move
// to a new key rather than being overwritten in place.
func TestDeletingLeadingEntriesRenamesContinuationChunk(t *testing.T) {
	table := newTestTable(t)
	const n = 1200
	term := "rivet"
	buildSplitPostingList(t, table, term, n)

	chunks := walkChunks(t, table, term)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks to get a true middle continuation chunk, got %d", len(chunks))
	}
	mid := chunks[1]
	if bytes.Equal(mid.key, makeKey(term)) {
		t.Fatal("expected chunks[1] to be a continuation chunk")
	}
	const dropCount = 10
	if len(mid.entries) <= dropCount {
		t.Fatalf("middle chunk too small to drop %d leading entries: has %d", dropCount, len(mid.entries))
	}

	del, delWDF := tombstoneAll(mid.entries[:dropCount])
	if err := table.MergeChanges(term, -int64(dropCount), -int64(delWDF), del); err != nil {
		t.Fatalf("MergeChanges delete: %v", err)
	}

	if err := table.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketPostlist).Get(mid.key) != nil {
			t.Error("expected the old continuation-chunk key to be gone after its first surviving docid changed")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	newFirstDID := mid.entries[dropCount].DocID
	newKey := makeKeyDocID(term, newFirstDID)
	renamed := dumpChunkAt(t, table, term, newKey, false)
	want := mid.entries[dropCount:]
	if len(renamed.entries) != len(want) {
		t.Fatalf("renamed chunk has %d entries, want %d", len(renamed.entries), len(want))
	}
	for i := range want {
		if renamed.entries[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, renamed.entries[i], want[i])
		}
	}
	if renamed.isLast != mid.isLast {
		t.Errorf("isLast: got %v, want %v", renamed.isLast, mid.isLast)
	}
}
