package script

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kathascribe/kathascribe/internal/registry"
)

// Romanizer renders Gurmukhi text in a Latin transliteration scheme.
type Romanizer interface {
	Scheme() string
	Romanize(gurmukhi string) string
}

// Romanizers is the registry of transliteration schemes, selected by config.
var Romanizers = registry.New[Romanizer]()

func init() {
	Romanizers.Register("iso15919", func(map[string]string) (Romanizer, error) {
		return &tableRomanizer{scheme: "iso15919", table: iso15919Table}, nil
	})
	Romanizers.Register("iast", func(map[string]string) (Romanizer, error) {
		return &tableRomanizer{scheme: "iast", table: iastTable}, nil
	})
	Romanizers.Register("practical", func(config map[string]string) (Romanizer, error) {
		return &tableRomanizer{
			scheme:     "practical",
			table:      practicalTable,
			capitalize: config["capitalize_words"] == "true",
		}, nil
	})
}

// schemeTable holds the per-scheme letter mappings.
type schemeTable struct {
	independentVowels map[rune]string
	dependentVowels   map[rune]string
	consonants        map[rune]string
	nuktaConsonants   map[rune]string
	nasal             string // rendering for bindi and tippi
	// contextualNasal renders nasalization as the homorganic nasal letter
	// instead of a diacritic mark.
	contextualNasal bool
}

var iso15919Table = &schemeTable{
	independentVowels: map[rune]string{
		'ਅ': "a", 'ਆ': "ā", 'ਇ': "i", 'ਈ': "ī", 'ਉ': "u",
		'ਊ': "ū", 'ਏ': "ē", 'ਐ': "ai", 'ਓ': "ō", 'ਔ': "au",
	},
	dependentVowels: map[rune]string{
		'ਾ': "ā", 'ਿ': "i", 'ੀ': "ī", 'ੁ': "u", 'ੂ': "ū",
		'ੇ': "ē", 'ੈ': "ai", 'ੋ': "ō", 'ੌ': "au",
	},
	consonants: map[rune]string{
		'ਕ': "k", 'ਖ': "kh", 'ਗ': "g", 'ਘ': "gh", 'ਙ': "ṅ",
		'ਚ': "c", 'ਛ': "ch", 'ਜ': "j", 'ਝ': "jh", 'ਞ': "ñ",
		'ਟ': "ṭ", 'ਠ': "ṭh", 'ਡ': "ḍ", 'ਢ': "ḍh", 'ਣ': "ṇ",
		'ਤ': "t", 'ਥ': "th", 'ਦ': "d", 'ਧ': "dh", 'ਨ': "n",
		'ਪ': "p", 'ਫ': "ph", 'ਬ': "b", 'ਭ': "bh", 'ਮ': "m",
		'ਯ': "y", 'ਰ': "r", 'ਲ': "l", 'ਵ': "v", 'ਸ': "s",
		'ਹ': "h", 'ੜ': "ṛ",
	},
	nuktaConsonants: map[rune]string{
		'ਖ': "k̲h", 'ਗ': "ġ", 'ਜ': "z", 'ਫ': "f", 'ਸ': "ś", 'ਲ': "ḷ",
	},
	nasal: "ṁ",
}

var iastTable = &schemeTable{
	independentVowels: map[rune]string{
		'ਅ': "a", 'ਆ': "ā", 'ਇ': "i", 'ਈ': "ī", 'ਉ': "u",
		'ਊ': "ū", 'ਏ': "e", 'ਐ': "ai", 'ਓ': "o", 'ਔ': "au",
	},
	dependentVowels: map[rune]string{
		'ਾ': "ā", 'ਿ': "i", 'ੀ': "ī", 'ੁ': "u", 'ੂ': "ū",
		'ੇ': "e", 'ੈ': "ai", 'ੋ': "o", 'ੌ': "au",
	},
	consonants: map[rune]string{
		'ਕ': "k", 'ਖ': "kh", 'ਗ': "g", 'ਘ': "gh", 'ਙ': "ṅ",
		'ਚ': "c", 'ਛ': "ch", 'ਜ': "j", 'ਝ': "jh", 'ਞ': "ñ",
		'ਟ': "ṭ", 'ਠ': "ṭh", 'ਡ': "ḍ", 'ਢ': "ḍh", 'ਣ': "ṇ",
		'ਤ': "t", 'ਥ': "th", 'ਦ': "d", 'ਧ': "dh", 'ਨ': "n",
		'ਪ': "p", 'ਫ': "ph", 'ਬ': "b", 'ਭ': "bh", 'ਮ': "m",
		'ਯ': "y", 'ਰ': "r", 'ਲ': "l", 'ਵ': "v", 'ਸ': "s",
		'ਹ': "h", 'ੜ': "ṛ",
	},
	nuktaConsonants: map[rune]string{
		'ਖ': "kh", 'ਗ': "ġ", 'ਜ': "z", 'ਫ': "f", 'ਸ': "ś", 'ਲ': "ḷ",
	},
	nasal: "ṃ",
}

var practicalTable = &schemeTable{
	independentVowels: map[rune]string{
		'ਅ': "a", 'ਆ': "ā", 'ਇ': "i", 'ਈ': "ī", 'ਉ': "u",
		'ਊ': "ū", 'ਏ': "e", 'ਐ': "ai", 'ਓ': "o", 'ਔ': "au",
	},
	dependentVowels: map[rune]string{
		'ਾ': "ā", 'ਿ': "i", 'ੀ': "ī", 'ੁ': "u", 'ੂ': "ū",
		'ੇ': "e", 'ੈ': "ai", 'ੋ': "o", 'ੌ': "au",
	},
	consonants: map[rune]string{
		'ਕ': "k", 'ਖ': "kh", 'ਗ': "g", 'ਘ': "gh", 'ਙ': "ng",
		'ਚ': "ch", 'ਛ': "chh", 'ਜ': "j", 'ਝ': "jh", 'ਞ': "n",
		'ਟ': "t", 'ਠ': "th", 'ਡ': "d", 'ਢ': "dh", 'ਣ': "n",
		'ਤ': "t", 'ਥ': "th", 'ਦ': "d", 'ਧ': "dh", 'ਨ': "n",
		'ਪ': "p", 'ਫ': "ph", 'ਬ': "b", 'ਭ': "bh", 'ਮ': "m",
		'ਯ': "y", 'ਰ': "r", 'ਲ': "l", 'ਵ': "v", 'ਸ': "s",
		'ਹ': "h", 'ੜ': "r",
	},
	nuktaConsonants: map[rune]string{
		'ਖ': "kh", 'ਗ': "g", 'ਜ': "z", 'ਫ': "f", 'ਸ': "sh", 'ਲ': "l",
	},
	nasal:           "n",
	contextualNasal: true,
}

// tableRomanizer walks Gurmukhi clusters and emits scheme letters, handling
// inherent vowels, gemination via adhak, nasalization, nukta consonants, and
// subjoined (virama) forms.
type tableRomanizer struct {
	scheme     string
	table      *schemeTable
	capitalize bool
}

func (t *tableRomanizer) Scheme() string { return t.scheme }

func (t *tableRomanizer) Romanize(gurmukhi string) string {
	words := strings.Split(NormalizeGurmukhi(gurmukhi), " ")
	out := make([]string, 0, len(words))
	for _, word := range words {
		roman := t.romanizeWord(word)
		if t.capitalize && roman != "" {
			r := []rune(roman)
			r[0] = unicode.ToUpper(r[0])
			roman = string(r)
		}
		out = append(out, roman)
	}
	return strings.Join(out, " ")
}

func (t *tableRomanizer) romanizeWord(word string) string {
	runes := []rune(word)
	var b strings.Builder
	geminate := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if v, ok := t.table.independentVowels[r]; ok {
			b.WriteString(v)
			geminate = false
			continue
		}
		if v, ok := t.table.dependentVowels[r]; ok {
			b.WriteString(v)
			continue
		}

		switch r {
		case adhak:
			geminate = true
			continue
		case '੍':
			// Virama: the preceding consonant already skipped its inherent
			// vowel; the subjoined consonant follows plain.
			continue
		case bindi, tippi:
			b.WriteString(t.nasalFor(runes, i))
			continue
		case nukta, udaat:
			// Nukta is consumed with its consonant below; a stray one adds
			// nothing.
			continue
		}

		if c, ok := t.table.consonants[r]; ok {
			if i+1 < len(runes) && runes[i+1] == nukta {
				if n, nok := t.table.nuktaConsonants[r]; nok {
					c = n
				}
				i++
			}
			if geminate && c != "" {
				b.WriteRune([]rune(c)[0])
				geminate = false
			}
			b.WriteString(c)
			if t.wantsInherentVowel(runes, i) {
				b.WriteString("a")
			}
			continue
		}

		// Precomposed nukta consonants (ਖ਼ ਗ਼ ਜ਼ ਫ਼ ਲ਼ ਸ਼ as base+nukta pairs).
		if i+1 < len(runes) {
			if c, ok := precomposedNukta[string(runes[i:i+2])]; ok {
				if n, nok := t.table.nuktaConsonants[c]; nok {
					b.WriteString(n)
				} else {
					b.WriteString(t.table.consonants[c])
				}
				if t.wantsInherentVowel(runes, i+1) {
					b.WriteString("a")
				}
				i++
				continue
			}
		}

		// Unknown codepoints pass through.
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// precomposedNukta maps the base+nukta consonant pairs to their base rune.
var precomposedNukta = map[string]rune{
	"ਖ਼": 'ਖ', "ਗ਼": 'ਗ', "ਜ਼": 'ਜ', "ਫ਼": 'ਫ', "ਲ਼": 'ਲ', "ਸ਼": 'ਸ',
}

// wantsInherentVowel decides whether the consonant at position i carries the
// unwritten mukta vowel: yes when it is not word-final and not followed by a
// dependent vowel sign or virama.
func (t *tableRomanizer) wantsInherentVowel(runes []rune, i int) bool {
	for j := i + 1; j < len(runes); j++ {
		r := runes[j]
		if r == nukta {
			continue
		}
		if _, ok := t.table.dependentVowels[r]; ok {
			return false
		}
		if r == '੍' {
			return false
		}
		if r == bindi || r == tippi || r == adhak || r == udaat {
			continue
		}
		// Next spelled character exists: medial consonant keeps its mukta.
		return true
	}
	return false
}

// nasalFor renders a nasalization mark. Schemes with contextual nasals use
// the homorganic letter (m before labials, n otherwise) and collapse into a
// following identical letter; academic schemes keep the diacritic form.
func (t *tableRomanizer) nasalFor(runes []rune, i int) string {
	if !t.table.contextualNasal {
		return t.table.nasal
	}
	next := nextSpelledRune(runes, i)
	letter := "n"
	switch next {
	case 'ਪ', 'ਫ', 'ਬ', 'ਭ', 'ਮ':
		letter = "m"
	}
	if c, ok := t.table.consonants[next]; ok && strings.HasPrefix(c, letter) {
		// The nasal assimilates into the following consonant: ਧੰਨ -> dhan.
		return ""
	}
	return letter
}

// reverseISO15919Consonants maps scheme letters back to Gurmukhi consonants,
// longest form first. Used for the best-effort round-trip over the canonical
// alphabet-only subset.
var reverseISO15919Consonants = []struct {
	roman    string
	gurmukhi rune
}{
	{"k̲h", 'ਖ'}, {"kh", 'ਖ'}, {"gh", 'ਘ'}, {"ch", 'ਛ'}, {"jh", 'ਝ'},
	{"ṭh", 'ਠ'}, {"ḍh", 'ਢ'}, {"th", 'ਥ'}, {"dh", 'ਧ'}, {"ph", 'ਫ'},
	{"bh", 'ਭ'}, {"ṅ", 'ਙ'}, {"ñ", 'ਞ'}, {"ṭ", 'ਟ'}, {"ḍ", 'ਡ'},
	{"ṇ", 'ਣ'}, {"ġ", 'ਗ'}, {"ś", 'ਸ'}, {"ḷ", 'ਲ'}, {"ṛ", 'ੜ'},
	{"k", 'ਕ'}, {"g", 'ਗ'}, {"c", 'ਚ'}, {"j", 'ਜ'}, {"z", 'ਜ'},
	{"t", 'ਤ'}, {"d", 'ਦ'}, {"n", 'ਨ'}, {"p", 'ਪ'}, {"f", 'ਫ'},
	{"b", 'ਬ'}, {"m", 'ਮ'}, {"y", 'ਯ'}, {"r", 'ਰ'}, {"l", 'ਲ'},
	{"v", 'ਵ'}, {"s", 'ਸ'}, {"h", 'ਹ'},
}

// ConsonantSkeleton extracts the ordered consonant sequence of a Gurmukhi
// string, ignoring vowels and marks.
func ConsonantSkeleton(gurmukhi string) []rune {
	runes := []rune(NormalizeGurmukhi(gurmukhi))
	var out []rune
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) {
			if base, ok := precomposedNukta[string(runes[i:i+2])]; ok {
				out = append(out, base)
				i++
				continue
			}
		}
		r := runes[i]
		// A trailing nukta does not change the skeleton.
		if isGurmukhiConsonant(r) {
			out = append(out, r)
		}
	}
	return out
}

// SkeletonFromRoman recovers the consonant skeleton from ISO 15919 romanized
// text, longest match first. Best effort: it only holds for the canonical
// alphabet-only subset.
func SkeletonFromRoman(roman string) []rune {
	var out []rune
	s := strings.ToLower(roman)
	for len(s) > 0 {
		matched := false
		for _, m := range reverseISO15919Consonants {
			if strings.HasPrefix(s, m.roman) {
				// "a" before "i"/"u" in ai/au is vowel context; consonant
				// table has no "a" so this is safe.
				out = append(out, m.gurmukhi)
				s = s[len(m.roman):]
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s)
			s = s[size:]
		}
	}
	return out
}
