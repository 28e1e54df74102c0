package scripture

import (
	"context"
	"sort"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Index is the read-only scripture corpus. It is loaded once at startup and
// safe for concurrent readers; nothing mutates it after construction.
type Index struct {
	lines    []Line
	byID     map[string]int
	byShabad map[string][]int
	ngrams   *ngramIndex
	// searchForms holds the ASCII search form per line, aligned with lines.
	searchForms []string
}

// Open loads one or more corpus files and builds the in-memory index.
// A missing or unreadable primary file is fatal; the error explains how to
// fix it.
func Open(ctx context.Context, configs ...StoreConfig) (*Index, error) {
	var all []Line
	for _, cfg := range configs {
		lines, err := loadLines(ctx, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return NewIndex(all), nil
}

// NewIndex builds an index over already-loaded lines. Tests and tools use
// this to construct a corpus without a database file.
func NewIndex(lines []Line) *Index {
	idx := &Index{
		lines:       lines,
		byID:        make(map[string]int, len(lines)),
		byShabad:    make(map[string][]int),
		searchForms: make([]string, len(lines)),
	}
	for i, line := range lines {
		idx.byID[line.ID] = i
		if line.ShabadID != "" {
			idx.byShabad[line.ShabadID] = append(idx.byShabad[line.ShabadID], i)
		}
		idx.searchForms[i] = ToSearchForm(textutil.Clean(line.Gurmukhi))
	}
	for _, offsets := range idx.byShabad {
		sort.Slice(offsets, func(a, b int) bool {
			return idx.lines[offsets[a]].LinePosition < idx.lines[offsets[b]].LinePosition
		})
	}
	idx.ngrams = newNgramIndex(idx.searchForms)
	return idx
}

// Len returns the number of lines in the corpus.
func (idx *Index) Len() int { return len(idx.lines) }

// SearchByText returns up to topK lines ordered by lexical similarity to the
// query. The query is normalized (NFC, whitespace collapse, punctuation
// stripped for tokenization) and converted to the corpus search form before
// lookup. An empty result is normal, not an error.
func (idx *Index) SearchByText(query string, topK int) []Line {
	if topK <= 0 {
		topK = 10
	}
	cleaned := textutil.Clean(query)
	if cleaned == "" {
		return nil
	}
	searchForm := ToSearchForm(cleaned)

	// Over-fetch from the trigram index, then rerank by edit similarity
	// against the full search form.
	candidates := idx.ngrams.lookup(searchForm, topK*4)
	if len(candidates) == 0 {
		return nil
	}

	type ranked struct {
		offset int
		score  float64
	}
	out := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		score := textutil.Similarity(searchForm, idx.searchForms[c.offset])
		out = append(out, ranked{offset: c.offset, score: score})
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
	lines := make([]Line, len(out))
	for i, r := range out {
		lines[i] = idx.lines[r.offset]
	}
	return lines
}

// GetLine retrieves a line by its stable id.
func (idx *Index) GetLine(lineID string) (Line, error) {
	off, ok := idx.byID[lineID]
	if !ok {
		return Line{}, &NotFoundError{LineID: lineID}
	}
	return idx.lines[off], nil
}

// GetContext returns the lines of the same shabad within ±radius of the
// requested line's position, ordered by position. A line without a shabad id
// yields just itself.
func (idx *Index) GetContext(lineID string, radius int) ([]Line, error) {
	off, ok := idx.byID[lineID]
	if !ok {
		return nil, &NotFoundError{LineID: lineID}
	}
	line := idx.lines[off]
	if line.ShabadID == "" || radius <= 0 {
		return []Line{line}, nil
	}

	siblings := idx.byShabad[line.ShabadID]
	pos := -1
	for i, s := range siblings {
		if s == off {
			pos = i
			break
		}
	}
	if pos < 0 {
		return []Line{line}, nil
	}
	lo := pos - radius
	if lo < 0 {
		lo = 0
	}
	hi := pos + radius + 1
	if hi > len(siblings) {
		hi = len(siblings)
	}
	out := make([]Line, 0, hi-lo)
	for _, s := range siblings[lo:hi] {
		out = append(out, idx.lines[s])
	}
	return out, nil
}
