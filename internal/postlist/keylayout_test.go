package postlist

import "testing"

func TestMakeKeyOrdering(t *testing.T) {
	empty := makeKey("")
	apple := makeKey("apple")
	banana := makeKey("banana")

	if bytesCompare(empty, apple) >= 0 {
		t.Error("doclen key must sort before any term key")
	}
	if bytesCompare(apple, banana) >= 0 {
		t.Error("apple must sort before banana")
	}
}

func TestMakeKeyDocIDOrdering(t *testing.T) {
	base := makeKey("cat")
	k1 := makeKeyDocID("cat", 1)
	k2 := makeKeyDocID("cat", 2)
	k1000 := makeKeyDocID("cat", 1000)

	if bytesCompare(base, k1) >= 0 {
		t.Error("first-chunk key must sort before any continuation key")
	}
	if bytesCompare(k1, k2) >= 0 {
		t.Error("continuation keys must sort by docid")
	}
	if bytesCompare(k2, k1000) >= 0 {
		t.Error("continuation keys must sort by docid even across byte widths")
	}
}

func TestCheckTermInKey(t *testing.T) {
	key := makeKeyDocID("dog", 42)
	pos, matches, err := checkTermInKey(key, "dog")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !matches {
		t.Fatal("expected match")
	}
	did, err := docIDFromKeySuffix(key, pos)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if did != 42 {
		t.Errorf("docid: got %d, want 42", did)
	}

	_, matches, err = checkTermInKey(key, "cat")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if matches {
		t.Error("expected mismatch for a different term")
	}
}

func TestCheckTermInKeyEmpty(t *testing.T) {
	pos, matches, err := checkTermInKey(nil, "dog")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if matches || pos != 0 {
		t.Errorf("empty key should report no match, got pos=%d matches=%v", pos, matches)
	}
}
