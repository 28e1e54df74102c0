package textutil

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// NFC applies Unicode NFC normalization.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// CollapseSpace trims the string and collapses runs of whitespace to a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clean applies NFC normalization and whitespace collapsing. This is the
// canonical pre-comparison form used throughout the pipeline.
func Clean(s string) string {
	return CollapseSpace(NFC(s))
}

// StripPunctuation replaces punctuation and symbol runes with spaces, keeping
// letters, marks, and digits of any script.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}

// Tokenize splits cleaned text into whitespace-delimited tokens after
// stripping punctuation.
func Tokenize(s string) []string {
	return strings.Fields(StripPunctuation(Clean(s)))
}

// Similarity returns a normalized edit similarity in [0,1]: 1 for identical
// strings, 0 for completely different ones. Both inputs are cleaned first so
// whitespace and Unicode form differences do not count as edits.
func Similarity(a, b string) float64 {
	a = Clean(a)
	b = Clean(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	if dist > max {
		dist = max
	}
	return 1.0 - float64(dist)/float64(max)
}

// TokenSimilarity compares two token slices by the edit similarity of their
// sorted joins. Word order differences are forgiven, which matches how
// spoken quotes drift from the canonical line.
func TokenSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	return Similarity(strings.Join(sa, " "), strings.Join(sb, " "))
}

// OverlapRatio returns |a ∩ b| / max(|a|, |b|) over token sets.
func OverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	common := 0
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			common++
		}
	}
	max := len(set)
	if len(seen) > max {
		max = len(seen)
	}
	return float64(common) / float64(max)
}
