// Package index defines the nearest-neighbour lookup behind the transcript
// correction pipeline.
//
// An Index stores (misheard, correction, context) entries and answers the
// question "which known misheard phrase is this utterance closest to?". Two
// implementations exist: memindex (in-process string-similarity search) and
// pgindex (pgvector-backed semantic search). Both report distance on a scale
// where the pipeline's confidence formula 1/(1+distance) is meaningful.
package index

import "context"

// Entry is one row of the correction lookup table.
type Entry struct {
	// Misheard is the phrase as the transcriber typically mangles it.
	Misheard string

	// Correction is the phrase that was actually said.
	Correction string

	// Context labels which dialogue phase the entry belongs to, e.g.
	// "patient information" or "insurance verification".
	Context string
}

// Match is the nearest entry found for an utterance.
type Match struct {
	Entry

	// Distance is the search distance to the utterance. Smaller is closer;
	// zero means an exact hit.
	Distance float64
}

// Index answers nearest-neighbour queries over correction entries.
//
// Implementations must be safe for concurrent Lookup calls.
type Index interface {
	// Lookup returns the entry nearest to utterance. The second return is
	// false when the index is empty.
	Lookup(ctx context.Context, utterance string) (Match, bool, error)
}
