package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// supportedScript reports whether r falls in one of the Indian-script ranges
// the normalization filter retains alongside ASCII/printable text (§4.1).
func supportedScript(r rune) bool {
	switch {
	case r >= 0x0900 && r <= 0x097F: // Devanagari
		return true
	case r >= 0x0980 && r <= 0x09FF: // Bengali
		return true
	case r >= 0x0B00 && r <= 0x0B7F: // Oriya
		return true
	case r >= 0x0B80 && r <= 0x0BFF: // Tamil
		return true
	case r >= 0x0C00 && r <= 0x0C7F: // Telugu
		return true
	case r >= 0x0C80 && r <= 0x0CFF: // Kannada
		return true
	case r >= 0x0D00 && r <= 0x0D7F: // Malayalam
		return true
	default:
		return false
	}
}

// NormalizePage applies the §4.1 normalization filter to one page's raw
// extracted text: NFC normalization, stripping of null bytes and the
// replacement character, retention of only printable/whitespace/supported
// script codepoints, and collapsing of intra-line whitespace runs with
// empty lines dropped.
func NormalizePage(text string) string {
	text = norm.NFC.String(text)
	text = strings.Map(func(r rune) rune {
		if r == 0 || r == '�' {
			return -1
		}
		return r
	}, text)

	var kept strings.Builder
	for _, r := range text {
		if unicode.IsPrint(r) || unicode.IsSpace(r) || supportedScript(r) {
			kept.WriteRune(r)
		}
	}

	lines := strings.Split(kept.String(), "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = collapseWhitespace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

func collapseWhitespace(line string) string {
	line = strings.TrimSpace(line)
	var b strings.Builder
	prevSpace := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
