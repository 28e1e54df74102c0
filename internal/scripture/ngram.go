package scripture

import (
	"sort"
	"strings"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

const ngramSize = 3

// ngramIndex is a character trigram inverted index over the search form of
// every line. It is built once at load time and read concurrently afterwards.
type ngramIndex struct {
	postings map[string][]int
	// tokens holds the tokenized search form per line, for the word-overlap
	// fallback when trigram lookup comes up empty.
	tokens [][]string
}

func newNgramIndex(searchForms []string) *ngramIndex {
	idx := &ngramIndex{
		postings: make(map[string][]int),
		tokens:   make([][]string, len(searchForms)),
	}
	for i, form := range searchForms {
		idx.tokens[i] = textutil.Tokenize(form)
		seen := make(map[string]struct{})
		for _, g := range ngrams(form) {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			idx.postings[g] = append(idx.postings[g], i)
		}
	}
	return idx
}

// lookup returns candidate line offsets ranked by trigram hit ratio. When the
// query yields no trigram hits it falls back to token overlap so short
// queries still produce candidates.
func (idx *ngramIndex) lookup(searchForm string, topK int) []scored {
	grams := ngrams(searchForm)
	hits := make(map[int]int)
	for _, g := range grams {
		for _, off := range idx.postings[g] {
			hits[off]++
		}
	}

	if len(hits) == 0 {
		return idx.tokenFallback(searchForm, topK)
	}

	out := make([]scored, 0, len(hits))
	for off, n := range hits {
		out = append(out, scored{offset: off, score: float64(n) / float64(len(grams))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].offset < out[j].offset
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func (idx *ngramIndex) tokenFallback(searchForm string, topK int) []scored {
	queryTokens := textutil.Tokenize(searchForm)
	if len(queryTokens) == 0 {
		return nil
	}
	var out []scored
	for off, lineTokens := range idx.tokens {
		ratio := textutil.OverlapRatio(queryTokens, lineTokens)
		if ratio > 0 {
			out = append(out, scored{offset: off, score: ratio})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].offset < out[j].offset
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

type scored struct {
	offset int
	score  float64
}

func ngrams(s string) []string {
	runes := []rune(strings.ToLower(textutil.CollapseSpace(s)))
	if len(runes) < ngramSize {
		if len(runes) == 0 {
			return nil
		}
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-ngramSize+1)
	for i := 0; i+ngramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+ngramSize]))
	}
	return out
}
