// Package termdict builds an in-memory FST over a postlist table's
// terms, giving fast prefix, fuzzy and regex term enumeration the way
// internal/segment's field FSTs do for its stored segments, adapted to
// a table whose term set changes as chunks are merged rather than one
// fixed at segment-build time.
package termdict

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/couchbase/vellum"
	"github.com/couchbase/vellum/levenshtein"
	"github.com/couchbase/vellum/regexp"
)

// Dict is an immutable snapshot of a table's term set. Build a new one
// whenever the underlying table may have changed; there is no
// incremental update, matching vellum's own FST immutability.
type Dict struct {
	fst *vellum.FST
}

// Build constructs a Dict from terms, which need not be sorted or
// unique; duplicates collapse and order is normalized internally since
// vellum.Builder requires keys inserted in sorted order.
func Build(terms []string) (*Dict, error) {
	sorted := append([]string(nil), terms...)
	sort.Strings(sorted)

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to create FST builder: %w", err)
	}

	var prev string
	for i, term := range sorted {
		if i > 0 && term == prev {
			continue
		}
		if err := builder.Insert([]byte(term), uint64(i)); err != nil {
			return nil, fmt.Errorf("termdict: failed to insert term %q: %w", term, err)
		}
		prev = term
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("termdict: failed to close FST builder: %w", err)
	}

	fst, err := vellum.Load(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to load FST: %w", err)
	}
	return &Dict{fst: fst}, nil
}

// Contains reports whether term is present.
func (d *Dict) Contains(term string) (bool, error) {
	_, ok, err := d.fst.Get([]byte(term))
	return ok, err
}

// PrefixTerms returns every term starting with prefix, via a direct FST
// range scan rather than a general automaton.
func (d *Dict) PrefixTerms(prefix string) ([]string, error) {
	start := []byte(prefix)
	end := prefixSuccessor(start)

	iter, err := d.fst.Iterator(start, end)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to create iterator: %w", err)
	}

	var terms []string
	for err == nil {
		key, _ := iter.Current()
		terms = append(terms, string(key))
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return nil, err
	}
	return terms, nil
}

// FuzzyTerms returns every term within fuzziness edits of term.
func (d *Dict) FuzzyTerms(term string, fuzziness uint8) ([]string, error) {
	builder, err := levenshtein.NewLevenshteinAutomatonBuilder(fuzziness, true)
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to create levenshtein builder: %w", err)
	}
	aut, err := builder.BuildDfa(term, fuzziness)
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to build fuzzy automaton: %w", err)
	}
	return d.searchWithAutomaton(aut)
}

// MatchingTerms returns every term matching the regex pattern.
func (d *Dict) MatchingTerms(pattern string) ([]string, error) {
	aut, err := regexp.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("termdict: invalid regex pattern: %w", err)
	}
	return d.searchWithAutomaton(aut)
}

func (d *Dict) searchWithAutomaton(aut vellum.Automaton) ([]string, error) {
	iter, err := d.fst.Search(aut, nil, nil)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("termdict: failed to search FST: %w", err)
	}

	var terms []string
	for err == nil {
		key, _ := iter.Current()
		terms = append(terms, string(key))
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return nil, err
	}
	return terms, nil
}

// prefixSuccessor returns the lexicographically next key after every
// key sharing prefix, or nil if prefix is all 0xff bytes (no bound
// needed; the scan simply runs to the end of the FST).
func prefixSuccessor(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	succ := bytes.Clone(prefix)
	for i := len(succ) - 1; i >= 0; i-- {
		if succ[i] < 0xff {
			succ[i]++
			return succ[:i+1]
		}
	}
	return nil
}
