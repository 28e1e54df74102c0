package script

import (
	"sort"
	"strings"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Gurmukhi diacritic normalization. Rules:
//  1. Tippi before consonants and at word end, bindi before vowels.
//  2. Combining marks ordered: base -> nukta -> vowel sign -> nasalization -> adhak.
//  3. Stacked identical marks deduplicated.
// Normalization is idempotent: applying it twice equals applying it once.

const (
	bindi = 'ਂ' // ਂ
	tippi = 'ੰ' // ੰ
	adhak = 'ੱ' // ੱ
	nukta = '਼' // ਼
	udaat = 'ੑ' // ੑ
)

func isGurmukhiConsonant(r rune) bool {
	return r >= 0x0A15 && r <= 0x0A39
}

func isDependentVowel(r rune) bool {
	return (r >= 0x0A3E && r <= 0x0A42) || (r >= 0x0A47 && r <= 0x0A48) || (r >= 0x0A4B && r <= 0x0A4C)
}

func isIndependentVowel(r rune) bool {
	switch r {
	case 0x0A05, 0x0A06, 0x0A07, 0x0A08, 0x0A09, 0x0A0A, 0x0A0F, 0x0A10, 0x0A13, 0x0A14:
		return true
	}
	return false
}

func isVowelRune(r rune) bool {
	return isDependentVowel(r) || isIndependentVowel(r)
}

func isCombiningMark(r rune) bool {
	return isDependentVowel(r) || r == nukta || r == bindi || r == tippi || r == adhak || r == udaat || r == '੍'
}

// markOrder ranks combining marks into the canonical cluster order.
func markOrder(r rune) int {
	switch {
	case r == nukta:
		return 0
	case r == '੍': // virama keeps its position right after the base
		return 1
	case isDependentVowel(r):
		return 2
	case r == bindi || r == tippi:
		return 3
	case r == adhak:
		return 4
	default:
		return 5
	}
}

// NormalizeGurmukhi applies NFC then the diacritic rules above.
func NormalizeGurmukhi(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	normalized := textutil.NFC(text)
	normalized = normalizeNasalization(normalized)
	normalized = orderClusters(normalized)
	return normalized
}

// normalizeNasalization rewrites tippi/bindi by the category of the next
// codepoint: bindi before vowels, tippi before consonants and at end of word.
func normalizeNasalization(text string) string {
	if !strings.ContainsRune(text, tippi) && !strings.ContainsRune(text, bindi) {
		return text
	}
	runes := []rune(text)
	for i, r := range runes {
		if r != tippi && r != bindi {
			continue
		}
		next := nextSpelledRune(runes, i)
		switch {
		case next == 0 || next == ' ':
			runes[i] = tippi
		case isVowelRune(next):
			runes[i] = bindi
		case isGurmukhiConsonant(next):
			runes[i] = tippi
		}
	}
	return string(runes)
}

// nextSpelledRune returns the next rune that is not a combining mark, or 0 at
// end of text. Whitespace is reported as ' '.
func nextSpelledRune(runes []rune, i int) rune {
	for j := i + 1; j < len(runes); j++ {
		r := runes[j]
		if r == ' ' || r == '\t' || r == '\n' {
			return ' '
		}
		if isCombiningMark(r) {
			continue
		}
		return r
	}
	return 0
}

// orderClusters sorts the combining marks after each base character into the
// canonical order and drops duplicated marks.
func orderClusters(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(runes) {
		r := runes[i]
		b.WriteRune(r)
		i++
		if isCombiningMark(r) {
			// Orphan mark with no base: passed through above, keep scanning.
			continue
		}

		start := i
		for i < len(runes) && isCombiningMark(runes[i]) {
			i++
		}
		if i == start {
			continue
		}
		marks := append([]rune(nil), runes[start:i]...)
		sort.SliceStable(marks, func(a, c int) bool {
			return markOrder(marks[a]) < markOrder(marks[c])
		})
		var prev rune
		for _, m := range marks {
			if m == prev {
				continue
			}
			b.WriteRune(m)
			prev = m
		}
	}
	return b.String()
}
