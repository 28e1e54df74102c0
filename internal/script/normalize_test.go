package script

import "testing"

func TestNormalizeNasalization(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		// Bindi before a vowel stays bindi; tippi before a vowel becomes bindi.
		{name: "tippi before vowel becomes bindi", in: "ਮੈੰਆ", want: "ਮੈਂਆ"},
		// Bindi before a consonant becomes tippi.
		{name: "bindi before consonant becomes tippi", in: "ਧਂਨ", want: "ਧੰਨ"},
		// Word-final nasal defaults to tippi.
		{name: "final bindi becomes tippi", in: "ਨਾਮਂ", want: "ਨਾਮੰ"},
		{name: "tippi before consonant kept", in: "ਧੰਨ", want: "ਧੰਨ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeGurmukhi(tt.in); got != tt.want {
				t.Errorf("NormalizeGurmukhi(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeMarkOrder(t *testing.T) {
	// Nasal mark written before the vowel sign gets reordered: base, vowel,
	// nasal.
	in := "ਗੁਰੰੂ" // ਗ aunkar ਰ tippi dulankar, marks swapped
	want := "ਗੁਰੂੰ"
	if got := NormalizeGurmukhi(in); got != want {
		t.Errorf("NormalizeGurmukhi(%q) = %q, want %q", in, got, want)
	}
}

func TestNormalizeDedupesStackedMarks(t *testing.T) {
	in := "ਗੁੁਰੂ" // doubled aunkar
	got := NormalizeGurmukhi(in)
	if got != "ਗੁਰੂ" {
		t.Errorf("NormalizeGurmukhi(%q) = %q, want %q", in, got, "ਗੁਰੂ")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"ਧੰਨ ਗੁਰੂ ਨਾਨਕ ਦੇਵ ਜੀ",
		"ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ",
		"ਧਂਨ ਮੈੰਆ ਗੁੁਰੂ",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := NormalizeGurmukhi(in)
		twice := NormalizeGurmukhi(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
