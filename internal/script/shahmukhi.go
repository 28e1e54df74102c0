package script

import (
	"strings"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

// Shahmukhi to Gurmukhi conversion. Two layers: whole-word lookup in the
// frozen dictionary, then contextual per-character rules. The rune sequence
// arrives in logical reading order; the resulting Gurmukhi is written LTR.

// Deterministic consonant mappings.
var shahmukhiConsonants = map[rune]string{
	'ب': "ਬ", 'پ': "ਪ", 'ت': "ਤ", 'ٹ': "ਟ", 'ث': "ਸ",
	'ج': "ਜ", 'چ': "ਚ", 'ح': "ਹ", 'خ': "ਖ਼", 'د': "ਦ",
	'ڈ': "ਡ", 'ذ': "ਜ਼", 'ر': "ਰ", 'ڑ': "ੜ", 'ز': "ਜ਼",
	'ژ': "ਜ਼", 'س': "ਸ", 'ش': "ਸ਼", 'ص': "ਸ", 'ض': "ਜ਼",
	'ط': "ਤ", 'ظ': "ਜ਼", 'غ': "ਗ਼", 'ف': "ਫ਼", 'ق': "ਕ",
	'ک': "ਕ", 'گ': "ਗ", 'ل': "ਲ", 'م': "ਮ", 'ن': "ਨ",
	'ہ': "ਹ",
}

// Aspiration digraphs: consonant followed by do-chashmi he (ھ).
var shahmukhiAspirated = map[rune]string{
	'ب': "ਭ", 'پ': "ਫ", 'ت': "ਥ", 'ٹ': "ਠ", 'ج': "ਝ",
	'چ': "ਛ", 'د': "ਧ", 'ڈ': "ਢ", 'ک': "ਖ", 'گ': "ਘ",
	'ر': "ੜ੍ਹ", 'ل': "ਲ੍ਹ", 'م': "ਮ੍ਹ", 'ن': "ਨ੍ਹ",
}

// Short-vowel diacritics (zabar, zer, pesh) and tanwin.
var shahmukhiDiacritics = map[rune]string{
	'َ': "ਾ", // zabar
	'ِ': "ੀ", // zer
	'ُ': "ੂ", // pesh
	'ً': "ਂ", // tanwin fath
	'ٍ': "ਂ", // tanwin kasr
	'ٌ': "ਂ", // tanwin damm
}

// WordDictionary resolves whole Shahmukhi words to their Gurmukhi form.
// Implemented by the domain lexicon.
type WordDictionary interface {
	ShahmukhiWord(word string) (string, bool)
}

// ConvertShahmukhi converts Shahmukhi text to Gurmukhi. It returns the
// converted text together with the fraction of words resolved via the
// dictionary layer, which feeds the conversion confidence.
func ConvertShahmukhi(text string, dict WordDictionary) (string, float64) {
	words := strings.Fields(textutil.Clean(text))
	if len(words) == 0 {
		return "", 1.0
	}

	out := make([]string, 0, len(words))
	dictHits := 0
	for _, word := range words {
		if dict != nil {
			if mapped, ok := dict.ShahmukhiWord(word); ok {
				out = append(out, mapped)
				dictHits++
				continue
			}
		}
		out = append(out, convertShahmukhiWord(word))
	}

	return strings.Join(out, " "), float64(dictHits) / float64(len(words))
}

// convertShahmukhiWord applies the per-character rule layer to one word.
// Vowel letters are contextual: alif, waw, and ye take different Gurmukhi
// forms in initial, medial, and final position.
func convertShahmukhiWord(word string) string {
	runes := []rune(word)
	var b strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		initial := i == 0
		final := i == len(runes)-1

		// Aspiration digraph consumes the following do-chashmi he.
		if i+1 < len(runes) && runes[i+1] == 'ھ' {
			if asp, ok := shahmukhiAspirated[r]; ok {
				b.WriteString(asp)
				i++
				continue
			}
		}

		switch r {
		case 'ا': // alif: independent vowel initially, kanna medially
			if initial {
				b.WriteString("ਅ")
			} else {
				b.WriteString("ਾ")
			}
		case 'أ':
			b.WriteString("ਅ")
		case 'آ': // alif madda: long aa
			b.WriteString("ਆ")
		case 'و': // waw: vowel o initially, hora finally, else va
			if initial {
				b.WriteString("ਓ")
			} else if final {
				b.WriteString("ੋ")
			} else {
				b.WriteString("ਵ")
			}
		case 'ی': // ye: consonant initially, bihari elsewhere
			if initial {
				b.WriteString("ਯ")
			} else {
				b.WriteString("ੀ")
			}
		case 'ے', 'ۓ': // bari ye: e vowel
			if initial {
				b.WriteString("ਏ")
			} else {
				b.WriteString("ੇ")
			}
		case 'ں': // nun ghunna: nasal mark, tippi/bindi settled by the normalizer
			b.WriteString("ਂ")
		case 'ع', 'ء': // ayn and hamza: silent in Punjabi
		case 'ھ': // stray aspiration mark without a preceding consonant
		default:
			if mapped, ok := shahmukhiConsonants[r]; ok {
				b.WriteString(mapped)
			} else if mapped, ok := shahmukhiDiacritics[r]; ok {
				b.WriteString(mapped)
			} else {
				// Unknown codepoints pass through; content is never discarded.
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
