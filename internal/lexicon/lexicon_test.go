package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLexicons(t *testing.T) {
	for _, mode := range []string{"sggs", "dasam", "generic"} {
		lex := Default(mode)
		if lex == nil {
			t.Fatalf("Default(%q) = nil", mode)
		}
		if lex.Name() != mode {
			t.Errorf("Default(%q).Name() = %q", mode, lex.Name())
		}
	}
	// Unknown modes fall back to the broadest lexicon.
	if Default("whatever").Name() != "sggs" {
		t.Error("unknown mode did not fall back to sggs")
	}
}

func TestMatchCue(t *testing.T) {
	lex := Default("sggs")
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "bani ch kiha", text: "ਜਿਵੇਂ ਬਾਣੀ ਚ ਕਿਹਾ ਹੈ", want: true},
		{name: "gurbani phurmandi", text: "ਗੁਰਬਾਣੀ ਫੁਰਮਾਉਂਦੀ ਹੈ", want: true},
		{name: "ang reference", text: "ਅੰਗ 917 ਚ ਆਉਂਦਾ ਹੈ", want: true},
		{name: "plain speech", text: "ਅੱਜ ਮੌਸਮ ਚੰਗਾ ਹੈ", want: false},
		{name: "empty", text: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lex.MatchCue(tt.text) != ""
			if got != tt.want {
				t.Errorf("MatchCue(%q) fired=%v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestVocabularyRatio(t *testing.T) {
	lex := Default("sggs")
	if got := lex.VocabularyRatio("ਵਾਹਿਗੁਰੂ ਗੁਰੂ"); got != 1.0 {
		t.Errorf("all-vocab ratio = %v, want 1.0", got)
	}
	if got := lex.VocabularyRatio(""); got != 0 {
		t.Errorf("empty ratio = %v, want 0", got)
	}
	// Generic mode drops the archaic vocabulary bias.
	if got := Default("generic").VocabularyRatio("ਵਾਹਿਗੁਰੂ ਗੁਰੂ"); got != 0 {
		t.Errorf("generic ratio = %v, want 0", got)
	}
}

func TestContentTokens(t *testing.T) {
	lex := Default("sggs")
	got := lex.ContentTokens([]string{"ਸਤਿ", "ਹੈ", "ਨਾਮੁ", "ਦਾ"})
	if len(got) != 2 {
		t.Fatalf("content tokens = %v, want the two non-function words", got)
	}
	if got[0] != "ਸਤਿ" || got[1] != "ਨਾਮੁ" {
		t.Errorf("content tokens = %v", got)
	}
}

func TestShahmukhiWord(t *testing.T) {
	lex := Default("sggs")
	if got, ok := lex.ShahmukhiWord("دھن"); !ok || got != "ਧੰਨ" {
		t.Errorf("ShahmukhiWord(دھن) = %q, %v", got, ok)
	}
	if _, ok := lex.ShahmukhiWord("ਨਹੀਂ"); ok {
		t.Error("non-shahmukhi word resolved")
	}
}

func TestEndsWithFinalMarker(t *testing.T) {
	lex := Default("sggs")
	tests := []struct {
		text string
		want bool
	}{
		{"ਸਤਿ ਨਾਮੁ ॥", true},
		{"ਸਤਿ ਨਾਮੁ ॥੧॥", true},
		{"ਸਤਿ ਨਾਮੁ", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := lex.EndsWithFinalMarker(tt.text); got != tt.want {
			t.Errorf("EndsWithFinalMarker(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLoaderLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := `name: custom
cue_patterns:
  - name: test_cue
    pattern: 'ਪਰਖ\s+ਵਾਕ'
vocabulary: [ਪਰਖ]
stopwords: [ਹੈ]
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)
	if err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	lex := loader.Get("custom")
	if lex.Name() != "custom" {
		t.Fatalf("loaded lexicon name = %q", lex.Name())
	}
	if lex.MatchCue("ਇਹ ਪਰਖ ਵਾਕ ਹੈ") == "" {
		t.Error("custom cue pattern did not fire")
	}

	// Unknown names still resolve to built-in defaults.
	if loader.Get("sggs").Name() != "sggs" {
		t.Error("fallback to default lexicon broken")
	}
}

func TestLoaderMissingDirIsFine(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll on missing dir: %v", err)
	}
	if loader.Get("sggs") == nil {
		t.Error("defaults unavailable after missing dir load")
	}
}

func TestLoaderRejectsBadPattern(t *testing.T) {
	dir := t.TempDir()
	doc := "name: broken\ncue_patterns:\n  - name: bad\n    pattern: '('\n"
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("expected error for invalid cue regex")
	}
}
