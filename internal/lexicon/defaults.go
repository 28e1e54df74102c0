package lexicon

import "sync"

// Built-in lexicons per domain mode, used when no lexicon directory is
// configured. The content mirrors the curated word lists shipped with the
// scripture data.

var defaultCuePatterns = []CuePattern{
	{Name: "jiven_bani_ch_kiha", Pattern: `ਜਿਵੇਂ\s+ਬਾਣੀ\s+ਚ\s+ਕਿਹਾ`},
	{Name: "gurbani_phurmandi", Pattern: `ਗੁਰਬਾਣੀ\s+ਫੁਰਮਾਉਂਦੀ`},
	{Name: "bani_ch_kiha", Pattern: `ਬਾਣੀ\s+ਚ\s+ਕਿਹਾ`},
	{Name: "guru_sahib_phurmande", Pattern: `ਗੁਰੂ\s+ਸਾਹਿਬ\s+ਫੁਰਮਾਉਂਦੇ`},
	{Name: "ang_reference", Pattern: `ਅੰਗ\s+\d+\s+ਚ`},
	{Name: "raag_reference", Pattern: `ਰਾਗ\s+\S+\s+ਚ`},
	{Name: "jiven_kiha_hai", Pattern: `ਜਿਵੇਂ\s+ਕਿਹਾ\s+ਹੈ`},
	{Name: "bani_ch_aaya", Pattern: `ਬਾਣੀ\s+ਚ\s+ਆਇਆ`},
}

var defaultVocabulary = []string{
	"ਵਾਹਿਗੁਰੂ", "ਸਤਿਗੁਰੂ", "ਗੁਰੂ", "ਬਾਣੀ", "ਸ਼ਬਦ",
	"ਅੰਗ", "ਰਾਗ", "ਪਾਤਸ਼ਾਹ", "ਮਹਲਾ", "ਚਰਨ", "ਪਦ",
	"ਭਗਤ", "ਸੰਤ", "ਗੁਰਮੁਖ", "ਮਨਮੁਖ", "ਮਾਇਆ", "ਮੋਹ",
	"ਅਹੰਕਾਰ", "ਮਮਤਾ", "ਵਿਸਾਰ", "ਸਿਮਰਨ", "ਨਾਮ", "ਧਿਆਨ",
	"ਧਰਮ", "ਕਰਮ", "ਪ੍ਰਭੂ", "ਰਾਮ", "ਹਰਿ", "ਗੋਬਿੰਦ",
	"ਕਿਰਪਾ", "ਦਇਆ", "ਮਿਹਰ", "ਭਾਣਾ", "ਹੁਕਮ", "ਚਿਤ",
	"ਸਤਿ", "ਨਾਮੁ", "ਕਰਤਾ", "ਪੁਰਖੁ", "ਨਿਰਭਉ", "ਨਿਰਵੈਰੁ",
}

var defaultStopwords = []string{
	// Modern Punjabi function words that carry no quote-matching signal.
	"ਹੈ", "ਹਨ", "ਸੀ", "ਨੇ", "ਨੂੰ", "ਤੋਂ", "ਵਿੱਚ", "ਉੱਤੇ",
	"ਦਾ", "ਦੀ", "ਦੇ", "ਇਹ", "ਉਹ", "ਇੱਕ", "ਅਤੇ", "ਜਾਂ",
	"ਕਿ", "ਜੋ", "ਤੇ", "ਚ", "ਜੀ",
	// English function words, for mixed discourse.
	"the", "a", "an", "is", "are", "was", "of", "to", "in", "and", "or",
}

var defaultShahmukhiWords = map[string]string{
	"دھن":    "ਧੰਨ",
	"گرنانک": "ਗੁਰਨਾਨਕ",
	"گرو":    "ਗੁਰੂ",
	"نانک":   "ਨਾਨਕ",
	"دیو":    "ਦੇਵ",
	"جی":     "ਜੀ",
	"مہاراج": "ਮਹਾਰਾਜ",
	"رام":    "ਰਾਮ",
	"راکھ":   "ਰਾਖ",
	"دے":     "ਦੇ",
	"اندر":   "ਅੰਦਰ",
	"سری":    "ਸ੍ਰੀ",
	"اکال":   "ਅਕਾਲ",
	"ست":     "ਸਤਿ",
	"ہے":     "ਹੈ",
	"ہیں":    "ਹਨ",
	"نے":     "ਨੇ",
	"کو":     "ਕੋ",
	"سے":     "ਸੇ",
	"میں":    "ਮੇਂ",
	"کا":     "ਕਾ",
	"کی":     "ਕੀ",
	"کے":     "ਕੇ",
}

var (
	defaultsOnce sync.Once
	defaults     map[string]*Lexicon
)

// Default returns the built-in lexicon for a domain mode. Unknown modes get
// the sggs lexicon, which is the broadest.
func Default(mode string) *Lexicon {
	defaultsOnce.Do(func() {
		defaults = make(map[string]*Lexicon)
		for _, name := range []string{"sggs", "dasam", "generic"} {
			doc := Document{
				Name:           name,
				CuePatterns:    defaultCuePatterns,
				Vocabulary:     defaultVocabulary,
				Stopwords:      defaultStopwords,
				ShahmukhiWords: defaultShahmukhiWords,
			}
			if name == "generic" {
				// Generic mode keeps the cue patterns but not the archaic
				// vocabulary bias.
				doc.Vocabulary = nil
			}
			lex, err := Compile(doc)
			if err != nil {
				// Built-in patterns are compile-checked by tests; this path
				// indicates a programming error.
				panic(err)
			}
			defaults[name] = lex
		}
	})
	if lex, ok := defaults[mode]; ok {
		return lex
	}
	return defaults["sggs"]
}
