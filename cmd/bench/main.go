package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"harshagw/postings/internal/postlist"
	"harshagw/postings/internal/termdict"
)

const (
	numDocs   = 20000
	vocabSize = 5000
)

func main() {
	fmt.Println("Posting List Engine Benchmark")
	fmt.Println("==============================")
	fmt.Println()

	benchStart := time.Now()

	corpus := GenerateCorpus(numDocs, vocabSize)
	fmt.Printf("Generated %d synthetic documents over a %d-word vocabulary\n\n", len(corpus.Docs), len(corpus.Vocabulary))

	dir, err := os.MkdirTemp("", "postlist-bench-*")
	if err != nil {
		fmt.Printf("Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	table, err := postlist.Open(postlist.DefaultOptions(dir))
	if err != nil {
		fmt.Printf("Error opening table: %v\n", err)
		os.Exit(1)
	}
	defer table.Close()

	runIndexingBenchmark(table, corpus)
	printTableInfo(table, corpus)

	dict := runTermDictBuild(table)

	runAllQueryBenchmarks(table, corpus, dict)

	fmt.Printf("Total time: %.2f seconds\n", time.Since(benchStart).Seconds())
}

// runIndexingBenchmark merges the whole corpus into table, one term at a
// time, the way a flush of an in-memory index segment would.
func runIndexingBenchmark(table *postlist.Table, corpus *SyntheticCorpus) {
	fmt.Println("INDEXING")
	fmt.Println("--------")

	start := time.Now()

	doclenChanges := make([]postlist.DoclenChange, len(corpus.Docs))
	for i, doc := range corpus.Docs {
		doclenChanges[i] = postlist.DoclenChange{DocID: doc.DocID, Length: doc.Length}
	}
	if err := table.MergeDoclenChanges(doclenChanges); err != nil {
		fmt.Printf("Error merging doclens: %v\n", err)
		os.Exit(1)
	}

	byTerm := corpus.InvertedChanges()
	for term, entries := range byTerm {
		sort.Slice(entries, func(i, j int) bool { return entries[i].docID < entries[j].docID })

		changes := make([]postlist.PostingChange, len(entries))
		var collfreq uint64
		for i, e := range entries {
			changes[i] = postlist.PostingChange{DocID: e.docID, WDF: e.wdf}
			collfreq += e.wdf
		}
		if err := table.MergeChanges(term, int64(len(entries)), int64(collfreq), changes); err != nil {
			fmt.Printf("Error merging term %q: %v\n", term, err)
			os.Exit(1)
		}
	}

	elapsed := time.Since(start)
	throughput := float64(len(corpus.Docs)) / elapsed.Seconds()

	fmt.Printf("  Documents:  %d\n", len(corpus.Docs))
	fmt.Printf("  Terms:      %d\n", len(byTerm))
	fmt.Printf("  Time:       %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  Throughput: %.0f docs/sec\n", throughput)
	fmt.Println()
}

func printTableInfo(table *postlist.Table, corpus *SyntheticCorpus) {
	report, err := table.Verify()
	if err != nil {
		fmt.Printf("Error verifying table: %v\n", err)
		return
	}
	fmt.Println("TABLE INFO")
	fmt.Println("----------")
	fmt.Printf("  Terms:    %d\n", report.Terms)
	fmt.Printf("  Docs:     %d\n", report.DocCount)
	fmt.Printf("  Problems: %d\n", len(report.Problems))
	fmt.Println()
}

func runTermDictBuild(table *postlist.Table) *termdict.Dict {
	fmt.Println("TERM DICTIONARY BUILD")
	fmt.Println("---------------------")
	start := time.Now()

	terms, err := table.ListTerms()
	if err != nil {
		fmt.Printf("Error listing terms: %v\n", err)
		os.Exit(1)
	}
	dict, err := termdict.Build(terms)
	if err != nil {
		fmt.Printf("Error building term dictionary: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Built FST over %d terms in %v\n\n", len(terms), time.Since(start).Round(time.Millisecond))
	return dict
}

func runAllQueryBenchmarks(table *postlist.Table, corpus *SyntheticCorpus, dict *termdict.Dict) {
	fmt.Println("TERM FREQUENCY LOOKUPS")
	fmt.Println("-----------------------")
	benchmarkFreqs(table, []string{"the", "and", "saint", "united", "states", "football", "general", "term4999"})

	fmt.Println("FULL LIST ITERATION")
	fmt.Println("--------------------")
	benchmarkIterate(table, []string{"the", "united", "football", "berkeley"})

	fmt.Println("SKIP-TO")
	fmt.Println("-------")
	benchmarkSkipTo(table, "united", corpus)

	fmt.Println("TERM DICTIONARY LOOKUPS")
	fmt.Println("------------------------")
	benchmarkDict(dict)
}

func benchmarkFreqs(table *postlist.Table, terms []string) {
	for _, term := range terms {
		start := time.Now()
		const iterations = 2000
		var tf, cf uint64
		for i := 0; i < iterations; i++ {
			tf, cf, _ = table.GetFreqs(term)
		}
		elapsed := time.Since(start) / iterations
		fmt.Printf("  %-12s %s  (termfreq=%d collfreq=%d)\n", term, formatLatency(elapsed), tf, cf)
	}
	fmt.Println()
}

func benchmarkIterate(table *postlist.Table, terms []string) {
	for _, term := range terms {
		start := time.Now()
		cur, err := table.OpenCursor(term)
		if err != nil {
			fmt.Printf("  %-12s error: %v\n", term, err)
			continue
		}
		count := 0
		for {
			if err := cur.Next(); err != nil {
				fmt.Printf("  %-12s error: %v\n", term, err)
				break
			}
			if cur.AtEnd() {
				break
			}
			count++
		}
		cur.Close()
		fmt.Printf("  %-12s %s  (%d postings)\n", term, formatLatency(time.Since(start)), count)
	}
	fmt.Println()
}

func benchmarkSkipTo(table *postlist.Table, term string, corpus *SyntheticCorpus) {
	cur, err := table.OpenCursor(term)
	if err != nil {
		fmt.Printf("  error opening cursor: %v\n", err)
		return
	}
	defer cur.Close()
	if err := cur.Next(); err != nil || cur.AtEnd() {
		fmt.Printf("  %q has no postings to skip through\n", term)
		return
	}

	targets := []uint64{uint64(numDocs / 4), uint64(numDocs / 2), uint64(numDocs * 3 / 4)}
	for _, target := range targets {
		start := time.Now()
		if err := cur.SkipTo(target); err != nil {
			fmt.Printf("  skip-to %d error: %v\n", target, err)
			continue
		}
		fmt.Printf("  skip-to %-8d %s  (landed on doc=%d atEnd=%v)\n", target, formatLatency(time.Since(start)), cur.DocID(), cur.AtEnd())
	}
	fmt.Println()
}

func benchmarkDict(dict *termdict.Dict) {
	queries := []string{"co", "sta", "uni", "foo"}
	for _, prefix := range queries {
		start := time.Now()
		terms, err := dict.PrefixTerms(prefix)
		if err != nil {
			fmt.Printf("  prefix %-8q error: %v\n", prefix, err)
			continue
		}
		fmt.Printf("  prefix %-8q %s  (%d matches)\n", prefix, formatLatency(time.Since(start)), len(terms))
	}

	fuzzyTargets := []string{"unitd", "footbal", "berkely"}
	for _, term := range fuzzyTargets {
		start := time.Now()
		terms, err := dict.FuzzyTerms(term, 1)
		if err != nil {
			fmt.Printf("  fuzzy %-8q error: %v\n", term, err)
			continue
		}
		fmt.Printf("  fuzzy  %-8q %s  (%d matches)\n", term, formatLatency(time.Since(start)), len(terms))
	}
	fmt.Println()
}

func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%8.2f µs", float64(d.Nanoseconds())/1000)
}
