package main

import (
	"fmt"
	"math/rand"

	"github.com/RoaringBitmap/roaring"
)

// SyntheticCorpus is a deterministically generated collection of documents
// used to exercise the posting list engine at a realistic scale without
// depending on any external data source.
type SyntheticCorpus struct {
	Vocabulary []string
	Docs       []SyntheticDoc

	// termDocs records, per term, which docids contain it, decided as
	// each document is generated rather than by rescanning afterwards.
	termDocs map[string]*roaring.Bitmap
}

// SyntheticDoc is one document: a docid, its length, and the wdf of every
// term it contains.
type SyntheticDoc struct {
	DocID    uint64
	Length   uint64
	Postings map[string]uint64
}

// generateVocabulary builds a word list with a long tail: the first words
// are common (saint, united, states, ...), the rest are filler terms that
// appear in only a handful of documents.
func generateVocabulary(size int) []string {
	common := []string{
		"the", "and", "was", "from", "with",
		"saint", "united", "states", "football", "general",
		"released", "highway", "newspaper", "broadcast", "periodic",
		"berkeley", "county", "district", "film", "movie",
		"wikipedia", "references", "population", "government", "archived",
		"retrieved", "south", "africa", "world", "war",
	}
	vocab := make([]string, 0, size)
	vocab = append(vocab, common...)
	for len(vocab) < size {
		vocab = append(vocab, fmt.Sprintf("term%d", len(vocab)))
	}
	return vocab[:size]
}

// GenerateCorpus builds numDocs synthetic documents over a vocabulary of
// vocabSize terms using a fixed seed, so successive runs produce identical
// benchmark input.
func GenerateCorpus(numDocs, vocabSize int) *SyntheticCorpus {
	vocab := generateVocabulary(vocabSize)
	rng := rand.New(rand.NewSource(42))

	docs := make([]SyntheticDoc, numDocs)
	termDocs := make(map[string]*roaring.Bitmap, vocabSize)

	for i := 0; i < numDocs; i++ {
		// Zipf-distributed term selection: low-index (common) words are
		// drawn far more often than the long tail.
		zipf := rand.NewZipf(rng, 1.6, 1, uint64(len(vocab)-1))

		termCount := 20 + rng.Intn(200)
		postings := make(map[string]uint64, termCount)
		var length uint64
		for t := 0; t < termCount; t++ {
			term := vocab[zipf.Uint64()]
			occurrences := uint64(1 + rng.Intn(3))
			postings[term] += occurrences
			length += occurrences
		}

		docID := uint64(i + 1)
		for term := range postings {
			bm := termDocs[term]
			if bm == nil {
				bm = roaring.New()
				termDocs[term] = bm
			}
			bm.Add(uint32(docID))
		}

		docs[i] = SyntheticDoc{
			DocID:    docID,
			Length:   length,
			Postings: postings,
		}
	}

	return &SyntheticCorpus{Vocabulary: vocab, Docs: docs, termDocs: termDocs}
}

// InvertedChanges groups a corpus by term so it can be merged into a
// postlist.Table one posting list at a time, mirroring the flush of an
// in-memory index segment. Per-term docid membership comes from the
// roaring bitmap recorded during generation, the same Add/Contains
// bitmap-of-docids idiom the teacher's segment.Builder uses for
// Deleted, and its iterator already yields docids in the ascending
// order MergeChanges requires.
func (c *SyntheticCorpus) InvertedChanges() map[string][]postingEntry {
	byTerm := make(map[string][]postingEntry, len(c.termDocs))
	for term, bm := range c.termDocs {
		entries := make([]postingEntry, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			docID := uint64(it.Next())
			entries = append(entries, postingEntry{docID: docID, wdf: c.Docs[docID-1].Postings[term]})
		}
		byTerm[term] = entries
	}
	return byTerm
}

type postingEntry struct {
	docID uint64
	wdf   uint64
}
