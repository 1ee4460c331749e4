package postlist

import "testing"

func TestFirstChunkHeaderRoundtrip(t *testing.T) {
	buf := writeFirstChunkHeader(nil, 5, 42, 100)
	var entries, collFreq uint64
	firstDID, pos, err := readFirstChunkHeader(buf, 0, &entries, &collFreq)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if entries != 5 || collFreq != 42 || firstDID != 100 || pos != len(buf) {
		t.Errorf("got entries=%d collFreq=%d firstDID=%d pos=%d", entries, collFreq, firstDID, pos)
	}
}

func TestChunkHeaderRoundtrip(t *testing.T) {
	for _, isLast := range []bool{true, false} {
		buf := writeChunkHeader(nil, isLast, 100, 150)
		gotLast, lastDID, pos, err := readChunkHeader(buf, 0, 100)
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if gotLast != isLast || lastDID != 150 || pos != len(buf) {
			t.Errorf("isLast=%v: got %v, %d, %d", isLast, gotLast, lastDID, pos)
		}
	}
}

func TestChunkHeaderSameFirstAndLast(t *testing.T) {
	buf := writeChunkHeader(nil, true, 7, 7)
	isLast, lastDID, _, err := readChunkHeader(buf, 0, 7)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !isLast || lastDID != 7 {
		t.Errorf("got isLast=%v lastDID=%d", isLast, lastDID)
	}
}
