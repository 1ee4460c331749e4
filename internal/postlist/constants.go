package postlist

// Tunables named in spec.md §6.
const (
	// chunkSize is the soft post-append size threshold for term
	// posting chunks.
	chunkSize = 2000

	// minContig is the minimum run length for a doclen dense block to
	// be worth emitting.
	minContig = 12

	// minGoodRatio is the minimum good_bytes/used_bytes efficiency a
	// candidate dense run must maintain while being extended.
	minGoodRatio = 0.6

	// maxEntriesInChunk bounds how many docid/doclen pairs a single
	// doclen chunk may hold before the doclen writer splits it.
	maxEntriesInChunk = 2000

	// separator is the reserved plain-varint value that marks the
	// start of a doclen dense block. Sparse-block docid increments are
	// always ≥ 1, so 0 can never arise as a legitimate one.
	separator = 0
)
