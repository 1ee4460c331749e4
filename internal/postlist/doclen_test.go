package postlist

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeDoclenSparse(t *testing.T) {
	entries := []doclenEntry{
		{DocID: 1, Length: 50},
		{DocID: 3, Length: 120},
		{DocID: 1000, Length: 7},
	}
	body := encodeDoclenBody(entries)
	got, err := decodeDoclenBody(entries[0].DocID, body)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("got %+v, want %+v", got, entries)
	}
}

func TestEncodeDecodeDoclenDense(t *testing.T) {
	var entries []doclenEntry
	for i := uint64(1); i <= 50; i++ {
		entries = append(entries, doclenEntry{DocID: i, Length: 100 + i})
	}
	body := encodeDoclenBody(entries)
	got, err := decodeDoclenBody(entries[0].DocID, body)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("dense roundtrip mismatch: got %d entries, want %d", len(got), len(entries))
	}
}

func TestEncodeDecodeDoclenMixed(t *testing.T) {
	var entries []doclenEntry
	for i := uint64(1); i <= 30; i++ {
		entries = append(entries, doclenEntry{DocID: i, Length: 10})
	}
	entries = append(entries, doclenEntry{DocID: 500, Length: 99999})
	entries = append(entries, doclenEntry{DocID: 501, Length: 1})

	body := encodeDoclenBody(entries)
	got, err := decodeDoclenBody(entries[0].DocID, body)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("mixed roundtrip mismatch: got %+v", got)
	}
}

func TestDoclenReaderJumpTo(t *testing.T) {
	var entries []doclenEntry
	for i := uint64(1); i <= 40; i++ {
		entries = append(entries, doclenEntry{DocID: i * 2, Length: i})
	}
	body := encodeDoclenBody(entries)

	r, err := newDoclenReader(body, entries[0].DocID)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	ok, err := r.JumpTo(entries[20].DocID)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !ok || r.GetDocID() != entries[20].DocID || r.GetDoclen() != entries[20].Length {
		t.Errorf("jump to exact: ok=%v did=%d length=%d", ok, r.GetDocID(), r.GetDoclen())
	}

	ok, err = r.JumpTo(entries[10].DocID + 1)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if ok {
		t.Error("expected jump to an absent docid to report false")
	}
	if r.GetDocID() != entries[11].DocID {
		t.Errorf("expected to land on the next stored docid %d, got %d", entries[11].DocID, r.GetDocID())
	}

	ok, err = r.JumpTo(entries[len(entries)-1].DocID + 100)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if ok || !r.AtEnd() {
		t.Error("expected jump past the end to report false and AtEnd")
	}
}

func TestDoclenReaderEmptyBody(t *testing.T) {
	r, err := newDoclenReader(nil, 0)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !r.AtEnd() {
		t.Error("expected empty body to start at end")
	}
}
