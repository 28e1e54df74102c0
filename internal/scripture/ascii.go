package scripture

import "strings"

// ShabadOS-style databases store the canonical text in ASCII transliteration
// (ਸਤਿ ਨਾਮੁ -> "siq nwmu"). Queries arriving as Unicode Gurmukhi are converted
// to that form before lookup.

var gurmukhiToASCII = map[rune]string{
	// Independent vowels
	'ਅ': "A", 'ਆ': "Aw", 'ਇ': "i", 'ਈ': "I", 'ਉ': "u",
	'ਊ': "U", 'ਏ': "ey", 'ਐ': "AY", 'ਓ': "o", 'ਔ': "aU",
	// Dependent vowels
	'ਾ': "w", 'ਿ': "i", 'ੀ': "I", 'ੁ': "u", 'ੂ': "U",
	'ੇ': "ey", 'ੈ': "AY", 'ੋ': "o", 'ੌ': "aU",
	// Consonants
	'ਕ': "k", 'ਖ': "K", 'ਗ': "g", 'ਘ': "G", 'ਙ': "^",
	'ਚ': "c", 'ਛ': "C", 'ਜ': "j", 'ਝ': "J", 'ਞ': "&",
	'ਟ': "t", 'ਠ': "T", 'ਡ': "f", 'ਢ': "F", 'ਣ': "x",
	'ਤ': "q", 'ਥ': "Q", 'ਦ': "d", 'ਧ': "D", 'ਨ': "n",
	'ਪ': "p", 'ਫ': "P", 'ਬ': "b", 'ਭ': "B", 'ਮ': "m",
	'ਯ': "X", 'ਰ': "r", 'ਲ': "l", 'ਵ': "v",
	'ਸ': "s", 'ਹ': "h", 'ੜ': "V",
	// Nasalization and gemination
	'ਂ': "N", 'ੰ': "M", 'ੱ': "~", '਼': "",
	// Subjoined marker
	'੍': "R",
	// Digits
	'੦': "0", '੧': "1", '੨': "2", '੩': "3", '੪': "4",
	'੫': "5", '੬': "6", '੭': "7", '੮': "8", '੯': "9",
	// Line-final markers
	'॥': "]", '।': "[",
}

// Whole-word mappings where character-by-character conversion diverges from
// the ShabadOS convention.
var asciiWordOverrides = map[string]string{
	"ਸਤਿ":      "siq",
	"ਨਾਮੁ":     "nwmu",
	"ਕਰਤਾ":     "krqw",
	"ਪੁਰਖੁ":    "purKu",
	"ਵਾਹਿਗੁਰੂ": "vwhgurU",
	"ਸਤਿਗੁਰੂ":  "siqgurU",
	"ਗੁਰੂ":     "gurU",
	"ਬਾਣੀ":     "bwxI",
	"ਸ਼ਬਦ":      "sbd",
}

// ToSearchForm converts Unicode Gurmukhi to the ASCII transliteration used by
// the corpus. Text with no Gurmukhi codepoints is returned unchanged so ASCII
// queries pass straight through.
func ToSearchForm(text string) string {
	hasGurmukhi := false
	for _, r := range text {
		if r >= 0x0A00 && r <= 0x0A7F {
			hasGurmukhi = true
			break
		}
	}
	if !hasGurmukhi {
		return text
	}

	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		if mapped, ok := asciiWordOverrides[word]; ok {
			out = append(out, mapped)
			continue
		}
		var b strings.Builder
		for _, r := range word {
			if mapped, ok := gurmukhiToASCII[r]; ok {
				b.WriteString(mapped)
			} else {
				b.WriteRune(r)
			}
		}
		out = append(out, b.String())
	}
	return strings.Join(out, " ")
}
