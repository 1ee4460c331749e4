package postlist

import "testing"

func TestChunkWriterAppendAndFlushSingleChunk(t *testing.T) {
	withTestBucket(t, func(b bucket) {
		// flush rewrites the first chunk from its existing header, so the
		// key must already hold one, as Table.MergeChanges ensures.
		hdr := writeFirstChunkHeader(nil, 2, 3, 5)
		hdr = writeChunkHeader(hdr, true, 5, 5)
		if err := b.Put(makeKey("fox"), hdr); err != nil {
			t.Fatalf("put: %v", err)
		}
		w := newChunkWriter(makeKey("fox"), true, "fox", true)
		if err := w.Append(b, 5, 2); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := w.Append(b, 8, 1); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := w.flush(b); err != nil {
			t.Fatalf("flush: %v", err)
		}

		tag := b.Get(makeKey("fox"))
		if tag == nil {
			t.Fatal("expected first chunk key to exist")
		}
		firstDID, pos, err := readFirstChunkHeader(tag, 0, nil, nil)
		if err != nil {
			t.Fatalf("readFirstChunkHeader: %v", err)
		}
		if firstDID != 5 {
			t.Errorf("firstDID: got %d, want 5", firstDID)
		}
		isLast, lastDID, pos2, err := readChunkHeader(tag, pos, firstDID)
		if err != nil {
			t.Fatalf("readChunkHeader: %v", err)
		}
		if !isLast || lastDID != 8 {
			t.Errorf("isLast=%v lastDID=%d", isLast, lastDID)
		}

		r, err := newChunkReader(firstDID, tag[pos2:])
		if err != nil {
			t.Fatalf("newChunkReader: %v", err)
		}
		if r.DocID() != 5 || r.WDF() != 2 {
			t.Errorf("first entry: (%d,%d)", r.DocID(), r.WDF())
		}
		if err := r.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
		if r.DocID() != 8 || r.WDF() != 1 {
			t.Errorf("second entry: (%d,%d)", r.DocID(), r.WDF())
		}
	})
}

func TestChunkWriterEmptyFirstAndLastDeletesKey(t *testing.T) {
	withTestBucket(t, func(b bucket) {
		key := makeKey("zzz")
		if err := b.Put(key, []byte("placeholder")); err != nil {
			t.Fatalf("put: %v", err)
		}
		w := newChunkWriter(key, true, "zzz", true)
		if err := w.flush(b); err != nil {
			t.Fatalf("flush: %v", err)
		}
		if tag := b.Get(key); tag != nil {
			t.Error("expected key to be deleted when the only chunk ends up empty")
		}
	})
}
