package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"harshagw/postings/internal/postlist"
)

// Scenario is one scripted sequence of edits against a fresh table, plus
// the post-conditions we expect to hold once they're applied.
type Scenario struct {
	Name  string
	Run   func(table *postlist.Table) error
	Check func(table *postlist.Table) []string
}

func main() {
	fmt.Println("Posting List Engine Verification")
	fmt.Println("=================================")
	fmt.Println()

	dir, err := os.MkdirTemp("", "postlist-verify-*")
	if err != nil {
		fmt.Printf("Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	passed, failed := 0, 0
	for _, sc := range scenarios() {
		ok := runScenario(dir, sc)
		if ok {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println()
	fmt.Println("========================================")
	fmt.Printf("Results: %d passed, %d failed, %d total\n", passed, failed, passed+failed)
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("\nAll scenarios passed!")
}

func runScenario(baseDir string, sc Scenario) bool {
	dir, err := os.MkdirTemp(baseDir, "scenario-*")
	if err != nil {
		fmt.Printf("  ✗ %s\n    Error creating dir: %v\n", sc.Name, err)
		return false
	}

	table, err := postlist.Open(postlist.DefaultOptions(dir))
	if err != nil {
		fmt.Printf("  ✗ %s\n    Error opening table: %v\n", sc.Name, err)
		return false
	}
	defer table.Close()

	if err := sc.Run(table); err != nil {
		fmt.Printf("  ✗ %s\n    Error: %v\n", sc.Name, err)
		return false
	}

	problems := sc.Check(table)
	if len(problems) > 0 {
		fmt.Printf("  ✗ %s\n", sc.Name)
		for _, p := range problems {
			fmt.Printf("    %s\n", p)
		}
		return false
	}

	fmt.Printf("  ✓ %s\n", sc.Name)
	return true
}

func scenarios() []Scenario {
	return []Scenario{
		basicMergeAndFreqs(),
		deletionEmptiesList(),
		chunkSplittingPreservesOrder(),
		doclenRoundtrip(),
		skipToLandsOnNextEntry(),
		verifyFlagsOrphanPosting(),
		verifyCleanAfterFullIndex(),
	}
}

func basicMergeAndFreqs() Scenario {
	return Scenario{
		Name: "merge changes then read back termfreq/collfreq",
		Run: func(table *postlist.Table) error {
			return table.MergeChanges("whale", 3, 9, []postlist.PostingChange{
				{DocID: 1, WDF: 4},
				{DocID: 2, WDF: 2},
				{DocID: 7, WDF: 3},
			})
		},
		Check: func(table *postlist.Table) []string {
			tf, cf, err := table.GetFreqs("whale")
			if err != nil {
				return []string{fmt.Sprintf("GetFreqs: %v", err)}
			}
			var problems []string
			if tf != 3 {
				problems = append(problems, fmt.Sprintf("termfreq: got %d, want 3", tf))
			}
			if cf != 9 {
				problems = append(problems, fmt.Sprintf("collfreq: got %d, want 9", cf))
			}
			return problems
		},
	}
}

func deletionEmptiesList() Scenario {
	return Scenario{
		Name: "deleting every posting removes the list entirely",
		Run: func(table *postlist.Table) error {
			if err := table.MergeChanges("shark", 2, 5, []postlist.PostingChange{
				{DocID: 1, WDF: 2},
				{DocID: 4, WDF: 3},
			}); err != nil {
				return err
			}
			return table.MergeChanges("shark", -2, -5, []postlist.PostingChange{
				{DocID: 1, WDF: postlist.TombstoneWDF},
				{DocID: 4, WDF: postlist.TombstoneWDF},
			})
		},
		Check: func(table *postlist.Table) []string {
			tf, cf, err := table.GetFreqs("shark")
			if err != nil {
				return []string{fmt.Sprintf("GetFreqs: %v", err)}
			}
			if tf != 0 || cf != 0 {
				return []string{fmt.Sprintf("expected empty list, got tf=%d cf=%d", tf, cf)}
			}
			return nil
		},
	}
}

func chunkSplittingPreservesOrder() Scenario {
	const n = 3000
	return Scenario{
		Name: "a posting list spanning many chunks stays in docid order",
		Run: func(table *postlist.Table) error {
			changes := make([]postlist.PostingChange, n)
			for i := 0; i < n; i++ {
				changes[i] = postlist.PostingChange{DocID: uint64(i + 1), WDF: uint64(i%5 + 1)}
			}
			return table.MergeChanges("otter", n, 0, changes)
		},
		Check: func(table *postlist.Table) []string {
			cur, err := table.OpenCursor("otter")
			if err != nil {
				return []string{fmt.Sprintf("OpenCursor: %v", err)}
			}
			defer cur.Close()

			var problems []string
			count := 0
			var lastDID uint64
			for {
				if err := cur.Next(); err != nil {
					return []string{fmt.Sprintf("Next: %v", err)}
				}
				if cur.AtEnd() {
					break
				}
				if count > 0 && cur.DocID() <= lastDID {
					problems = append(problems, fmt.Sprintf("docids out of order: %d after %d", cur.DocID(), lastDID))
				}
				lastDID = cur.DocID()
				count++
			}
			if count != n {
				problems = append(problems, fmt.Sprintf("got %d entries, want %d", count, n))
			}
			return problems
		},
	}
}

func doclenRoundtrip() Scenario {
	return Scenario{
		Name: "doclen changes are visible through GetDocLength",
		Run: func(table *postlist.Table) error {
			return table.MergeDoclenChanges([]postlist.DoclenChange{
				{DocID: 1, Length: 120},
				{DocID: 2, Length: 45},
				{DocID: 50, Length: 300},
			})
		},
		Check: func(table *postlist.Table) []string {
			var problems []string
			for did, want := range map[uint64]uint64{1: 120, 2: 45, 50: 300} {
				got, err := table.GetDocLength(did)
				if err != nil {
					problems = append(problems, fmt.Sprintf("GetDocLength(%d): %v", did, err))
					continue
				}
				if got != want {
					problems = append(problems, fmt.Sprintf("GetDocLength(%d): got %d, want %d", did, got, want))
				}
			}
			if _, err := table.GetDocLength(999); err == nil {
				problems = append(problems, "expected error for a missing document")
			}
			return problems
		},
	}
}

func skipToLandsOnNextEntry() Scenario {
	return Scenario{
		Name: "skip-to a missing docid lands on the next stored one",
		Run: func(table *postlist.Table) error {
			return table.MergeChanges("gull", 4, 4, []postlist.PostingChange{
				{DocID: 10, WDF: 1},
				{DocID: 20, WDF: 1},
				{DocID: 30, WDF: 1},
				{DocID: 40, WDF: 1},
			})
		},
		Check: func(table *postlist.Table) []string {
			cur, err := table.OpenCursor("gull")
			if err != nil {
				return []string{fmt.Sprintf("OpenCursor: %v", err)}
			}
			defer cur.Close()
			if err := cur.Next(); err != nil {
				return []string{fmt.Sprintf("Next: %v", err)}
			}
			if err := cur.SkipTo(25); err != nil {
				return []string{fmt.Sprintf("SkipTo: %v", err)}
			}
			if cur.AtEnd() || cur.DocID() != 30 {
				return []string{fmt.Sprintf("SkipTo(25): got docid=%d atEnd=%v, want 30", cur.DocID(), cur.AtEnd())}
			}
			return nil
		},
	}
}

func verifyFlagsOrphanPosting() Scenario {
	return Scenario{
		Name: "Verify flags a posting list whose docs have no doclen entry",
		Run: func(table *postlist.Table) error {
			return table.MergeChanges("orphan", 1, 9, []postlist.PostingChange{{DocID: 500, WDF: 9}})
		},
		Check: func(table *postlist.Table) []string {
			report, err := table.Verify()
			if err != nil {
				return []string{fmt.Sprintf("Verify: %v", err)}
			}
			if len(report.Problems) == 0 {
				return []string{"expected Verify to report at least one problem"}
			}
			return nil
		},
	}
}

// miniCorpusEntry is one synthetic (term, docid, wdf) posting, used to
// build a small multi-term corpus without depending on cmd/bench (a
// separate main package, so it can't be imported directly).
type miniCorpusEntry struct {
	term string
	did  uint64
	wdf  uint64
}

func generateMiniCorpus(numDocs int, vocab []string) (doclens []postlist.DoclenChange, postings []miniCorpusEntry) {
	rng := rand.New(rand.NewSource(7))
	doclens = make([]postlist.DoclenChange, numDocs)
	for i := 0; i < numDocs; i++ {
		did := uint64(i + 1)
		termCount := 3 + rng.Intn(8)
		var length uint64
		perDoc := make(map[string]uint64, termCount)
		for t := 0; t < termCount; t++ {
			term := vocab[rng.Intn(len(vocab))]
			wdf := uint64(1 + rng.Intn(3))
			perDoc[term] += wdf
			length += wdf
		}
		for term, wdf := range perDoc {
			postings = append(postings, miniCorpusEntry{term: term, did: did, wdf: wdf})
		}
		doclens[i] = postlist.DoclenChange{DocID: did, Length: length}
	}
	return doclens, postings
}

func verifyCleanAfterFullIndex() Scenario {
	vocab := []string{"otter", "seal", "gull", "whale", "shark", "crab", "kelp", "tide"}
	doclens, postings := generateMiniCorpus(200, vocab)

	return Scenario{
		Name: "a fully indexed synthetic corpus verifies clean",
		Run: func(table *postlist.Table) error {
			if err := table.MergeDoclenChanges(doclens); err != nil {
				return err
			}

			byTerm := make(map[string][]miniCorpusEntry)
			for _, p := range postings {
				byTerm[p.term] = append(byTerm[p.term], p)
			}
			for term, entries := range byTerm {
				sort.Slice(entries, func(i, j int) bool { return entries[i].did < entries[j].did })
				changes := make([]postlist.PostingChange, len(entries))
				var collfreq uint64
				for i, e := range entries {
					changes[i] = postlist.PostingChange{DocID: e.did, WDF: e.wdf}
					collfreq += e.wdf
				}
				if err := table.MergeChanges(term, int64(len(entries)), int64(collfreq), changes); err != nil {
					return err
				}
			}
			return nil
		},
		Check: func(table *postlist.Table) []string {
			report, err := table.Verify()
			if err != nil {
				return []string{fmt.Sprintf("Verify: %v", err)}
			}
			if len(report.Problems) != 0 {
				return []string{fmt.Sprintf("expected a clean report, got %v", report.Problems)}
			}
			if report.DocCount != uint64(len(doclens)) {
				return []string{fmt.Sprintf("DocCount: got %d, want %d", report.DocCount, len(doclens))}
			}
			return nil
		},
	}
}
