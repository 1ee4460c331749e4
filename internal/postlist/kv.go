package postlist

import (
	"bytes"

	"github.com/boltdb/bolt"
)

// bucket is the ordered-map contract spec.md §6 requires of its host
// store, scoped to a single term's or the doclen list's worth of
// operations. *bolt.Bucket already satisfies it; tests substitute
// nothing else, but keeping the dependency narrow keeps chunkwriter.go,
// doclenwriter.go and table.go decoupled from Bolt's wider API surface.
type bucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error
	Cursor() *bolt.Cursor
}

// tcursor adapts *bolt.Cursor to the cursor contract of spec.md §6:
// find_entry positions at the largest key at-or-below the target (not
// Bolt's native "smallest key at-or-above"), next/after_end/read_tag
// give simple forward iteration, and del advances past the key it
// removes. See spec.md §9's note on the seek-predecessor gap this
// closes.
type tcursor struct {
	c        *bolt.Cursor
	key, tag []byte
	afterEnd bool
}

func newTCursor(b bucket) *tcursor {
	return &tcursor{c: b.Cursor()}
}

func (t *tcursor) setPos(k, v []byte) {
	if k == nil {
		t.afterEnd = true
		t.key, t.tag = nil, nil
		return
	}
	t.afterEnd = false
	t.key, t.tag = k, v
}

// FindEntry positions the cursor at the largest key ≤ target and
// reports whether that key equals target exactly.
func (t *tcursor) FindEntry(target []byte) bool {
	k, v := t.c.Seek(target)
	if k != nil && bytes.Equal(k, target) {
		t.setPos(k, v)
		return true
	}
	if k == nil {
		k, v = t.c.Last()
	} else {
		k, v = t.c.Prev()
	}
	t.setPos(k, v)
	return false
}

// Next advances to the following key.
func (t *tcursor) Next() {
	k, v := t.c.Next()
	t.setPos(k, v)
}

func (t *tcursor) AfterEnd() bool     { return t.afterEnd }
func (t *tcursor) CurrentKey() []byte { return t.key }
func (t *tcursor) ReadTag() []byte    { return t.tag }

// Del removes the entry the cursor is positioned at and repositions it
// at the key that followed, returning false if none did. Re-seeking by
// the deleted key (rather than trusting Bolt's post-delete cursor
// state, which only tracks position correctly within the same leaf
// page) keeps this correct across page boundaries.
func (t *tcursor) Del(b bucket) (bool, error) {
	if t.afterEnd {
		return false, nil
	}
	deletedKey := t.key
	if err := b.Delete(deletedKey); err != nil {
		return false, err
	}
	k, v := t.c.Seek(deletedKey)
	t.setPos(k, v)
	return !t.afterEnd, nil
}
