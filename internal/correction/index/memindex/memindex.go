// Package memindex is the in-process correction index. It ranks lookup
// entries by Jaro-Winkler similarity against the misheard phrase, with a
// Double Metaphone pre-pass so phonetically aligned entries win ties against
// merely orthographically similar ones.
//
// Similarity s in (0, 1] is reported as distance (1-s)/s, which puts the
// pipeline's confidence formula 1/(1+distance) back at exactly s. No network,
// no storage; suitable for tests and single-office deployments.
package memindex

import (
	"context"
	"math"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
)

// Index is an immutable in-memory correction index. Safe for concurrent use.
type Index struct {
	entries []entry
}

type entry struct {
	index.Entry

	tokens []string
	lower  string
	codes  map[string]struct{}
}

// New builds an Index over entries. Entries with an empty misheard phrase
// are skipped.
func New(entries []index.Entry) *Index {
	idx := &Index{entries: make([]entry, 0, len(entries))}
	for _, e := range entries {
		lower := strings.ToLower(strings.TrimSpace(e.Misheard))
		if lower == "" {
			continue
		}
		tokens := strings.Fields(lower)
		idx.entries = append(idx.entries, entry{
			Entry:  e,
			tokens: tokens,
			lower:  lower,
			codes:  metaphoneCodes(tokens),
		})
	}
	return idx
}

// Lookup returns the entry whose misheard phrase is most similar to
// utterance. Phonetic candidates (sharing a Double Metaphone code with the
// utterance) are preferred over purely string-similar ones.
func (idx *Index) Lookup(_ context.Context, utterance string) (index.Match, bool, error) {
	if len(idx.entries) == 0 {
		return index.Match{}, false, nil
	}

	lower := strings.ToLower(strings.TrimSpace(utterance))
	tokens := strings.Fields(lower)
	codes := metaphoneCodes(tokens)

	var (
		best         entry
		bestScore    float64
		bestPhonetic bool
		found        bool
	)
	for _, e := range idx.entries {
		score := similarity(tokens, e.tokens, lower, e.lower)
		phonetic := codesOverlap(codes, e.codes)
		better := false
		switch {
		case !found:
			better = true
		case phonetic != bestPhonetic:
			better = phonetic
		default:
			better = score > bestScore
		}
		if better {
			best, bestScore, bestPhonetic, found = e, score, phonetic, true
		}
	}

	return index.Match{Entry: best.Entry, Distance: toDistance(bestScore)}, true, nil
}

// toDistance maps similarity in [0, 1] onto the distance scale where
// 1/(1+distance) recovers the similarity.
func toDistance(score float64) float64 {
	if score <= 0 {
		return math.Inf(1)
	}
	return (1 - score) / score
}

// similarity is the best Jaro-Winkler score across three comparisons: full
// strings, space-stripped strings, and the best token pair. Multi-word
// phrases where the transcriber split or merged words score well under at
// least one of them.
func similarity(aTokens, bTokens []string, aFull, bFull string) float64 {
	score := matchr.JaroWinkler(aFull, bFull, false)

	if len(aTokens) > 1 || len(bTokens) > 1 {
		joined := matchr.JaroWinkler(strings.Join(aTokens, ""), strings.Join(bTokens, ""), false)
		if joined > score {
			score = joined
		}
	}

	for _, at := range aTokens {
		for _, bt := range bTokens {
			if s := matchr.JaroWinkler(at, bt, false); s > score {
				score = s
			}
		}
	}
	return score
}

func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

var _ index.Index = (*Index)(nil)
