// Package lang implements the Language Detector (C2): scoring a string
// against known Unicode script ranges to determine its primary language.
package lang

// Script is a Unicode codepoint range associated with one supported language.
type script struct {
	lang string
	in   func(r rune) bool
}

func inRange(lo, hi rune) func(rune) bool {
	return func(r rune) bool { return r >= lo && r <= hi }
}

var scripts = []script{
	{"en", func(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }},
	{"hi", inRange(0x0900, 0x097F)}, // Devanagari
	{"bn", inRange(0x0980, 0x09FF)}, // Bengali
	{"or", inRange(0x0B00, 0x0B7F)}, // Oriya
	{"ta", inRange(0x0B80, 0x0BFF)}, // Tamil
	{"te", inRange(0x0C00, 0x0C7F)}, // Telugu
	{"kn", inRange(0x0C80, 0x0CFF)}, // Kannada
	{"ml", inRange(0x0D00, 0x0D7F)}, // Malayalam
}

// MinPrimaryFraction is the threshold a language's fraction must clear for
// it to be reported as the primary language; below it, "en" is the default.
const MinPrimaryFraction = 0.3

// Detect scores text against each supported script and returns the primary
// language tag along with the full per-language fraction distribution.
// Deterministic and side-effect-free.
func Detect(text string) (primary string, distribution map[string]float64) {
	runes := []rune(text)
	distribution = make(map[string]float64, len(scripts))
	if len(runes) == 0 {
		return "en", distribution
	}

	counts := make(map[string]int, len(scripts))
	for _, r := range runes {
		for _, s := range scripts {
			if s.in(r) {
				counts[s.lang]++
			}
		}
	}

	total := float64(len(runes))
	best := "en"
	bestFrac := 0.0
	for _, s := range scripts {
		frac := float64(counts[s.lang]) / total
		distribution[s.lang] = frac
		if frac > bestFrac {
			bestFrac = frac
			best = s.lang
		}
	}

	if bestFrac < MinPrimaryFraction {
		return "en", distribution
	}
	return best, distribution
}
