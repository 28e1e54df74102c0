// Package lexicon holds the domain language knowledge the pipeline leans on:
// scripture cue phrases, Gurbani vocabulary, function-word stoplists, and the
// frozen Shahmukhi word dictionary. Lexicons load from YAML files and can be
// hot-reloaded from a directory.
package lexicon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kathascribe/kathascribe/internal/textutil"
)

// CuePattern is one "a quote is coming" phrase pattern.
type CuePattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// Document is the YAML shape of one lexicon file.
type Document struct {
	Name           string            `yaml:"name"`
	CuePatterns    []CuePattern      `yaml:"cue_patterns"`
	Vocabulary     []string          `yaml:"vocabulary"`
	Stopwords      []string          `yaml:"stopwords"`
	ShahmukhiWords map[string]string `yaml:"shahmukhi_words"`
	FinalMarkers   []string          `yaml:"final_markers"`
}

// Lexicon is the compiled, queryable form. Immutable once built; the loader
// swaps whole instances on reload.
type Lexicon struct {
	name         string
	cues         []compiledCue
	vocabulary   map[string]struct{}
	stopwords    map[string]struct{}
	shahmukhi    map[string]string
	finalMarkers []string
}

type compiledCue struct {
	name string
	re   *regexp.Regexp
}

// Compile builds a Lexicon from a document, validating every cue pattern.
func Compile(doc Document) (*Lexicon, error) {
	lex := &Lexicon{
		name:         doc.Name,
		vocabulary:   make(map[string]struct{}, len(doc.Vocabulary)),
		stopwords:    make(map[string]struct{}, len(doc.Stopwords)),
		shahmukhi:    make(map[string]string, len(doc.ShahmukhiWords)),
		finalMarkers: append([]string(nil), doc.FinalMarkers...),
	}
	for _, cue := range doc.CuePatterns {
		re, err := regexp.Compile(cue.Pattern)
		if err != nil {
			return nil, fmt.Errorf("lexicon %q: cue pattern %q: %w", doc.Name, cue.Name, err)
		}
		name := cue.Name
		if name == "" {
			name = cue.Pattern
		}
		lex.cues = append(lex.cues, compiledCue{name: name, re: re})
	}
	for _, w := range doc.Vocabulary {
		lex.vocabulary[textutil.NFC(w)] = struct{}{}
	}
	for _, w := range doc.Stopwords {
		lex.stopwords[textutil.NFC(w)] = struct{}{}
	}
	for k, v := range doc.ShahmukhiWords {
		lex.shahmukhi[textutil.NFC(k)] = textutil.NFC(v)
	}
	if len(lex.finalMarkers) == 0 {
		lex.finalMarkers = []string{"॥", "।"}
	}
	return lex, nil
}

// Name returns the lexicon's name (its domain mode).
func (l *Lexicon) Name() string { return l.name }

// MatchCue returns the name of the first cue phrase pattern matching the
// text, or empty when none fires.
func (l *Lexicon) MatchCue(text string) string {
	text = textutil.Clean(text)
	for _, cue := range l.cues {
		if cue.re.MatchString(text) {
			return cue.name
		}
	}
	return ""
}

// VocabularyRatio returns the fraction of tokens present in the scripture
// vocabulary.
func (l *Lexicon) VocabularyRatio(text string) float64 {
	tokens := textutil.Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if _, ok := l.vocabulary[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// IsStopword reports whether a token is a function word.
func (l *Lexicon) IsStopword(token string) bool {
	_, ok := l.stopwords[textutil.NFC(token)]
	return ok
}

// ContentTokens filters out function words, leaving the distinctive tokens
// semantic comparison relies on.
func (l *Lexicon) ContentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !l.IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// ShahmukhiWord looks up a whole Shahmukhi word in the frozen dictionary.
func (l *Lexicon) ShahmukhiWord(word string) (string, bool) {
	v, ok := l.shahmukhi[textutil.NFC(word)]
	return v, ok
}

// EndsWithFinalMarker reports whether the text closes with a shabad line
// terminator.
func (l *Lexicon) EndsWithFinalMarker(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, m := range l.finalMarkers {
		if strings.HasSuffix(trimmed, m) {
			return true
		}
	}
	// Rahao and numbered verse endings close with a marker plus digits.
	if strings.HasSuffix(trimmed, "॥") {
		return true
	}
	for _, m := range l.finalMarkers {
		if i := strings.LastIndex(trimmed, m); i >= 0 && strings.TrimSpace(trimmed[i+len(m):]) == "" {
			return true
		}
	}
	return false
}
