// Playground for exercising the posting list storage engine directly.
//
// Run with: go run ./cmd/playground
package main

import (
	"fmt"
	"log"
	"os"

	"harshagw/postings/internal/postlist"
	"harshagw/postings/internal/termdict"
)

func main() {
	dir, err := os.MkdirTemp("", "postlist-playground-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	fmt.Println("=== Posting List Engine Playground ===")
	fmt.Printf("Table directory: %s\n\n", dir)

	table, err := postlist.Open(postlist.DefaultOptions(dir))
	if err != nil {
		log.Fatal(err)
	}
	defer table.Close()

	fmt.Println("Indexing sample postings...")
	terms := map[string][]postlist.PostingChange{
		"go":     {{DocID: 1, WDF: 3}, {DocID: 2, WDF: 1}, {DocID: 6, WDF: 2}},
		"python": {{DocID: 3, WDF: 2}, {DocID: 7, WDF: 1}},
		"rust":   {{DocID: 4, WDF: 4}},
		"web":    {{DocID: 5, WDF: 1}, {DocID: 6, WDF: 3}, {DocID: 7, WDF: 2}},
	}
	for term, changes := range terms {
		var collfreq uint64
		for _, c := range changes {
			collfreq += c.WDF
		}
		if err := table.MergeChanges(term, int64(len(changes)), int64(collfreq), changes); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-8s %d postings\n", term, len(changes))
	}

	if err := table.MergeDoclenChanges([]postlist.DoclenChange{
		{DocID: 1, Length: 80}, {DocID: 2, Length: 40}, {DocID: 3, Length: 55},
		{DocID: 4, Length: 90}, {DocID: 5, Length: 30}, {DocID: 6, Length: 120},
		{DocID: 7, Length: 65},
	}); err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	fmt.Println("--- Term Frequencies ---")
	for _, term := range []string{"go", "python", "rust", "web", "missing"} {
		tf, cf, err := table.GetFreqs(term)
		if err != nil {
			fmt.Printf("  %-8s error: %v\n", term, err)
			continue
		}
		fmt.Printf("  %-8s termfreq=%d collfreq=%d\n", term, tf, cf)
	}
	fmt.Println()

	fmt.Println("--- Posting List for \"web\" ---")
	cur, err := table.OpenCursor("web")
	if err != nil {
		log.Fatal(err)
	}
	for {
		if err := cur.Next(); err != nil {
			log.Fatal(err)
		}
		if cur.AtEnd() {
			break
		}
		fmt.Printf("  doc=%d wdf=%d\n", cur.DocID(), cur.WDF())
	}
	cur.Close()
	fmt.Println()

	fmt.Println("--- Document Lengths ---")
	for did := uint64(1); did <= 7; did++ {
		length, err := table.GetDocLength(did)
		if err != nil {
			fmt.Printf("  doc=%d error: %v\n", did, err)
			continue
		}
		fmt.Printf("  doc=%d length=%d\n", did, length)
	}
	fmt.Println()

	fmt.Println("--- Term Dictionary ---")
	allTerms, err := table.ListTerms()
	if err != nil {
		log.Fatal(err)
	}
	dict, err := termdict.Build(allTerms)
	if err != nil {
		log.Fatal(err)
	}
	prefixed, err := dict.PrefixTerms("p")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  terms starting with \"p\": %v\n", prefixed)

	fuzzy, err := dict.FuzzyTerms("rusty", 2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  terms within 2 edits of \"rusty\": %v\n", fuzzy)
	fmt.Println()

	fmt.Println("--- Consistency Check ---")
	report, err := table.Verify()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  %d term(s), %d document(s), %d problem(s)\n", report.Terms, report.DocCount, len(report.Problems))
}
