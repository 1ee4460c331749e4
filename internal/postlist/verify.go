package postlist

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/boltdb/bolt"
)

// Report is the result of Verify: a table is consistent when Problems
// is empty. DocCount and Terms are informational counters gathered
// along the way.
type Report struct {
	DocCount uint64
	Terms    uint64
	Problems []string
}

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verify walks every posting list and the doclen list, checking the
// invariants spec.md §8 requires: docids strictly increasing within and
// across a list's chunks, termfreq/collfreq header fields matching the
// entries actually stored, and every docid named in a term's posting
// list having a corresponding doclen entry. It never mutates the table.
func (t *Table) Verify() (*Report, error) {
	report := &Report{}

	err := t.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPostlist)

		knownDocs := roaring.New()
		if err := verifyDoclenList(b, report, knownDocs); err != nil {
			return err
		}
		report.DocCount = knownDocs.GetCardinality()

		terms, err := listTerms(b)
		if err != nil {
			return err
		}
		report.Terms = uint64(len(terms))

		for _, term := range terms {
			if err := verifyTermList(b, term, report, knownDocs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// listTerms scans the bucket for first-chunk keys (those with no docid
// suffix, per the layout in keylayout.go) and returns the non-empty
// terms they name, in key order.
func listTerms(b bucket) ([]string, error) {
	var terms []string
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		term, pos, err := splitTermFromKey(k)
		if err != nil {
			return nil, err
		}
		if pos != len(k) {
			continue
		}
		if len(term) == 0 {
			continue
		}
		terms = append(terms, string(term))
	}
	return terms, nil
}

func verifyDoclenList(b bucket, report *Report, knownDocs *roaring.Bitmap) error {
	cur, err := newCursor(b, "", true)
	if err != nil {
		return err
	}
	var lastDID uint64
	first := true
	for {
		if err := cur.Next(); err != nil {
			return err
		}
		if cur.AtEnd() {
			break
		}
		did := cur.DocID()
		if !first && did <= lastDID {
			report.problem("doclen list: docid %d out of order after %d", did, lastDID)
		}
		first = false
		lastDID = did
		knownDocs.Add(uint32(did))
	}
	return nil
}

func verifyTermList(b bucket, term string, report *Report, knownDocs *roaring.Bitmap) error {
	tag := b.Get(makeKey(term))
	if tag == nil {
		report.problem("term %q: listed but first chunk vanished", term)
		return nil
	}
	var termfreq, collfreq uint64
	if _, _, err := readFirstChunkHeader(tag, 0, &termfreq, &collfreq); err != nil {
		return err
	}

	cur, err := newCursor(b, term, false)
	if err != nil {
		return err
	}

	var entries, wdfSum uint64
	var lastDID uint64
	first := true
	for {
		if err := cur.Next(); err != nil {
			return err
		}
		if cur.AtEnd() {
			break
		}
		did := cur.DocID()
		if !first && did <= lastDID {
			report.problem("term %q: docid %d out of order after %d", term, did, lastDID)
		}
		if !knownDocs.Contains(uint32(did)) {
			report.problem("term %q: references docid %d with no doclen entry", term, did)
		}
		first = false
		lastDID = did
		entries++
		wdfSum += cur.WDF()
	}

	if entries != termfreq {
		report.problem("term %q: header termfreq %d but found %d entries", term, termfreq, entries)
	}
	if wdfSum != collfreq {
		report.problem("term %q: header collfreq %d but summed wdf is %d", term, collfreq, wdfSum)
	}
	return nil
}
