package postlist

// doclenChange is one pending edit to the doclen list: a new length for
// DocID, or a tombstone when Delete is set. Table.MergeDoclenChanges
// requires changes sorted ascending by DocID, matching the ordered-map
// contract the posting side already assumes.
type doclenChange struct {
	DocID  uint64
	Length uint64
	Delete bool
}

// mergeDoclenEntries merges a run of changes into the entries decoded
// from one physical doclen chunk, in sorted-docid lockstep. It is a
// cleaner two-pointer restatement of the splicing DoclenChunkWriter
// does against its in-memory std::map in the original backend, not a
// line-for-line port: both reach the same merged, sorted result.
func mergeDoclenEntries(original []doclenEntry, changes []doclenChange) []doclenEntry {
	result := make([]doclenEntry, 0, len(original)+len(changes))
	oi := 0
	for _, c := range changes {
		for oi < len(original) && original[oi].DocID < c.DocID {
			result = append(result, original[oi])
			oi++
		}
		if oi < len(original) && original[oi].DocID == c.DocID {
			oi++
		}
		if !c.Delete {
			result = append(result, doclenEntry{DocID: c.DocID, Length: c.Length})
		}
	}
	result = append(result, original[oi:]...)
	return result
}

// writeDoclenChunks splits a merged, sorted entry list into one or more
// physical chunks bounded by maxEntriesInChunk and writes them under b.
// Only the first split retains the original first-chunk key/header (if
// isFirstChunk), and only the last split retains is-last status (if
// isLastChunk). An empty entries list writes nothing: the chunk simply
// disappears, matching spec.md §4.6's "no chunk is written" case.
func writeDoclenChunks(b bucket, entries []doclenEntry, isFirstChunk, isLastChunk bool) error {
	if len(entries) == 0 {
		return nil
	}

	for start := 0; start < len(entries); start += maxEntriesInChunk {
		end := start + maxEntriesInChunk
		if end > len(entries) {
			end = len(entries)
		}
		run := entries[start:end]
		runIsFirst := isFirstChunk && start == 0
		runIsLast := isLastChunk && end == len(entries)

		body := writeChunkHeader(nil, runIsLast, run[0].DocID, run[len(run)-1].DocID)
		body = append(body, encodeDoclenBody(run)...)

		var key []byte
		if runIsFirst {
			firstHdr := writeFirstChunkHeader(nil, 0, 0, run[0].DocID)
			body = append(firstHdr, body...)
			key = makeKey("")
		} else {
			key = makeKeyDocID("", run[0].DocID)
		}
		if err := b.Put(key, body); err != nil {
			return err
		}
	}
	return nil
}
