package script

// Code identifies a writing system detected in text.
type Code string

const (
	Gurmukhi   Code = "gurmukhi"
	Shahmukhi  Code = "shahmukhi"
	Devanagari Code = "devanagari"
	Latin      Code = "latin"
	Mixed      Code = "mixed"
	Empty      Code = "empty"
)

// Unicode block boundaries.
const (
	gurmukhiLo   = 0x0A00
	gurmukhiHi   = 0x0A7F
	arabicLo     = 0x0600
	arabicHi     = 0x06FF
	devanagariLo = 0x0900
	devanagariHi = 0x097F
)

func isGurmukhiRune(r rune) bool   { return r >= gurmukhiLo && r <= gurmukhiHi }
func isArabicRune(r rune) bool     { return r >= arabicLo && r <= arabicHi }
func isDevanagariRune(r rune) bool { return r >= devanagariLo && r <= devanagariHi }
func isLatinLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// Detection is the outcome of script detection.
type Detection struct {
	Script     Code
	Confidence float64
	// Counts per script, retained for the purity check.
	GurmukhiCount   int
	ShahmukhiCount  int
	DevanagariCount int
	LatinCount      int
	TotalLetters    int
}

// Detect classifies text by counting codepoints per script block. When the
// top two scripts are within mixDelta of each other (as fractions of all
// letter codepoints) the text is Mixed.
func Detect(text string, mixDelta float64) Detection {
	var d Detection
	for _, r := range text {
		switch {
		case isGurmukhiRune(r):
			d.GurmukhiCount++
		case isArabicRune(r):
			d.ShahmukhiCount++
		case isDevanagariRune(r):
			d.DevanagariCount++
		case isLatinLetter(r):
			d.LatinCount++
		default:
			continue
		}
		d.TotalLetters++
	}

	if d.TotalLetters == 0 {
		d.Script = Empty
		d.Confidence = 1.0
		return d
	}

	type scored struct {
		code  Code
		count int
	}
	scores := []scored{
		{Gurmukhi, d.GurmukhiCount},
		{Shahmukhi, d.ShahmukhiCount},
		{Devanagari, d.DevanagariCount},
		{Latin, d.LatinCount},
	}
	best, second := scores[0], scored{}
	for _, s := range scores[1:] {
		if s.count > best.count {
			second = best
			best = s
		} else if s.count > second.count {
			second = s
		}
	}

	bestFrac := float64(best.count) / float64(d.TotalLetters)
	secondFrac := float64(second.count) / float64(d.TotalLetters)
	if second.count > 0 && bestFrac-secondFrac <= mixDelta {
		d.Script = Mixed
		d.Confidence = bestFrac
		return d
	}
	d.Script = best.code
	d.Confidence = bestFrac
	return d
}
