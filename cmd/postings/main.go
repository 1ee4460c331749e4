package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"harshagw/postings/internal/postlist"
	"harshagw/postings/internal/termdict"

	"github.com/c-bata/go-prompt"
)

const TableDir = ".history"

type REPL struct {
	table *postlist.Table
	dict  *termdict.Dict
}

func main() {
	fmt.Println("Postlist Storage Engine REPL")
	fmt.Println()
	printHelp()
	fmt.Println()

	if err := os.MkdirAll(TableDir, 0755); err != nil {
		fmt.Printf("Error creating table directory: %v\n", err)
		os.Exit(1)
	}

	table, err := postlist.Open(postlist.DefaultOptions(TableDir))
	if err != nil {
		fmt.Printf("Error opening table: %v\n", err)
		os.Exit(1)
	}

	r := &REPL{table: table}
	fmt.Printf("Table opened at %s\n\n", TableDir)

	p := prompt.New(
		r.executor,
		func(d prompt.Document) []prompt.Suggest { return nil },
		prompt.OptionPrefix("postlist >> "),
		prompt.OptionTitle("postlist"),
	)
	p.Run()
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  freqs <term>                      - Show termfreq/collfreq for a term")
	fmt.Println("  merge <term> <tfDelta> <cfDelta> <did:wdf> ... - Apply posting edits (wdf=- deletes)")
	fmt.Println("  doclen <docID>                    - Show a document's length")
	fmt.Println("  exists <docID>                    - Check whether a document has a doclen entry")
	fmt.Println("  doclens <did:len|did:-> ...        - Apply doclen edits (len=- deletes)")
	fmt.Println("  iterate <term>                    - Dump a whole posting list in order")
	fmt.Println("  skip-to <term> <docID>            - Skip a posting list cursor to docID")
	fmt.Println("  dump-terms                        - List every term with a posting list")
	fmt.Println("  dump-terms --prefix <p>           - List terms starting with p")
	fmt.Println("  dump-terms --fuzzy <term> <dist>  - List terms within edit distance of term")
	fmt.Println("  verify                            - Run the consistency checker")
	fmt.Println("  help                              - Show this help")
	fmt.Println("  quit                              - Exit")
}

func (r *REPL) executor(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "freqs":
		r.cmdFreqs(parts[1:])
	case "merge":
		r.cmdMerge(parts[1:])
	case "doclen":
		r.cmdDoclen(parts[1:])
	case "exists":
		r.cmdExists(parts[1:])
	case "doclens":
		r.cmdDoclens(parts[1:])
	case "iterate":
		r.cmdIterate(parts[1:])
	case "skip-to":
		r.cmdSkipTo(parts[1:])
	case "dump-terms":
		r.cmdDumpTerms(parts[1:])
	case "verify":
		r.cmdVerify()
	case "help":
		printHelp()
	case "quit", "exit":
		fmt.Println("Goodbye!")
		r.table.Close()
		os.Exit(0)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
}

func (r *REPL) cmdFreqs(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: freqs <term>")
		return
	}
	tf, cf, err := r.table.GetFreqs(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%q: termfreq=%d collfreq=%d\n", args[0], tf, cf)
}

// parsePostingChange turns "did:wdf" (or "did:-" for a deletion) into a
// PostingChange.
func parsePostingChange(s string) (postlist.PostingChange, error) {
	didStr, wdfStr, ok := strings.Cut(s, ":")
	if !ok {
		return postlist.PostingChange{}, fmt.Errorf("expected did:wdf, got %q", s)
	}
	did, err := strconv.ParseUint(didStr, 10, 64)
	if err != nil {
		return postlist.PostingChange{}, fmt.Errorf("invalid docid in %q: %w", s, err)
	}
	if wdfStr == "-" {
		return postlist.PostingChange{DocID: did, WDF: postlist.TombstoneWDF}, nil
	}
	wdf, err := strconv.ParseUint(wdfStr, 10, 64)
	if err != nil {
		return postlist.PostingChange{}, fmt.Errorf("invalid wdf in %q: %w", s, err)
	}
	return postlist.PostingChange{DocID: did, WDF: wdf}, nil
}

func (r *REPL) cmdMerge(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: merge <term> <tfDelta> <cfDelta> <did:wdf> ...")
		return
	}
	term := args[0]
	tfDelta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Invalid tfDelta: %v\n", err)
		return
	}
	cfDelta, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid cfDelta: %v\n", err)
		return
	}

	changes := make([]postlist.PostingChange, 0, len(args)-3)
	for _, a := range args[3:] {
		c, err := parsePostingChange(a)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		changes = append(changes, c)
	}

	if err := r.table.MergeChanges(term, tfDelta, cfDelta, changes); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Applied %d change(s) to %q\n", len(changes), term)
}

func (r *REPL) cmdDoclen(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: doclen <docID>")
		return
	}
	did, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid docID: %v\n", err)
		return
	}
	length, err := r.table.GetDocLength(did)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("doc %d: length=%d\n", did, length)
}

func (r *REPL) cmdExists(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: exists <docID>")
		return
	}
	did, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid docID: %v\n", err)
		return
	}
	exists, err := r.table.DocumentExists(did)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("doc %d exists: %v\n", did, exists)
}

func (r *REPL) cmdDoclens(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: doclens <did:len|did:-> ...")
		return
	}
	changes := make([]postlist.DoclenChange, 0, len(args))
	for _, a := range args {
		didStr, lenStr, ok := strings.Cut(a, ":")
		if !ok {
			fmt.Printf("Error: expected did:len, got %q\n", a)
			return
		}
		did, err := strconv.ParseUint(didStr, 10, 64)
		if err != nil {
			fmt.Printf("Invalid docid in %q: %v\n", a, err)
			return
		}
		if lenStr == "-" {
			changes = append(changes, postlist.DoclenChange{DocID: did, Delete: true})
			continue
		}
		length, err := strconv.ParseUint(lenStr, 10, 64)
		if err != nil {
			fmt.Printf("Invalid length in %q: %v\n", a, err)
			return
		}
		changes = append(changes, postlist.DoclenChange{DocID: did, Length: length})
	}

	if err := r.table.MergeDoclenChanges(changes); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Applied %d doclen change(s)\n", len(changes))
}

func (r *REPL) cmdIterate(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: iterate <term>")
		return
	}
	cur, err := r.table.OpenCursor(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer cur.Close()

	count := 0
	for {
		if err := cur.Next(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if cur.AtEnd() {
			break
		}
		fmt.Printf("  doc=%d wdf=%d\n", cur.DocID(), cur.WDF())
		count++
	}
	fmt.Printf("%d entries\n", count)
}

func (r *REPL) cmdSkipTo(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: skip-to <term> <docID>")
		return
	}
	did, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Invalid docID: %v\n", err)
		return
	}

	cur, err := r.table.OpenCursor(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer cur.Close()

	if err := cur.Next(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := cur.SkipTo(did); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if cur.AtEnd() {
		fmt.Println("reached end of list")
		return
	}
	fmt.Printf("landed on doc=%d wdf=%d\n", cur.DocID(), cur.WDF())
}

func (r *REPL) refreshDict() error {
	terms, err := r.table.ListTerms()
	if err != nil {
		return err
	}
	dict, err := termdict.Build(terms)
	if err != nil {
		return err
	}
	r.dict = dict
	return nil
}

func (r *REPL) cmdDumpTerms(args []string) {
	if err := r.refreshDict(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if len(args) == 0 {
		terms, err := r.table.ListTerms()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		for _, t := range terms {
			fmt.Println(" ", t)
		}
		fmt.Printf("%d term(s)\n", len(terms))
		return
	}

	switch args[0] {
	case "--prefix":
		if len(args) < 2 {
			fmt.Println("Usage: dump-terms --prefix <p>")
			return
		}
		terms, err := r.dict.PrefixTerms(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		for _, t := range terms {
			fmt.Println(" ", t)
		}
	case "--fuzzy":
		if len(args) < 3 {
			fmt.Println("Usage: dump-terms --fuzzy <term> <dist>")
			return
		}
		dist, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil {
			fmt.Printf("Invalid distance: %v\n", err)
			return
		}
		terms, err := r.dict.FuzzyTerms(args[1], uint8(dist))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		for _, t := range terms {
			fmt.Println(" ", t)
		}
	default:
		fmt.Printf("Unknown dump-terms option: %s\n", args[0])
	}
}

func (r *REPL) cmdVerify() {
	report, err := r.table.Verify()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d term(s), %d document(s)\n", report.Terms, report.DocCount)
	if len(report.Problems) == 0 {
		fmt.Println("table is consistent")
		return
	}
	fmt.Printf("%d problem(s):\n", len(report.Problems))
	for _, p := range report.Problems {
		fmt.Println(" -", p)
	}
}
