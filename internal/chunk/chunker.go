// Package chunk implements the Chunker (C3): splitting text into overlapping
// windowed chunks at natural sentence/paragraph/word boundaries.
package chunk

import (
	"strings"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/lang"
)

// DefaultSize and DefaultOverlap are the chunker's defaults per §4.3.
const (
	DefaultSize    = 800
	DefaultOverlap = 100
)

var sentenceTerminators = []rune{'.', '?', '!'}

// Split divides text into overlapping chunks. overlap must be less than
// size; callers (the postprocessor adapter) clamp it if not. Empty input
// yields exactly one empty chunk. Offsets are half-open rune indices into text.
func Split(text string, size, overlap int) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)

	if n == 0 {
		return []domain.Chunk{{Content: "", StartChar: 0, EndChar: 0, Language: "en"}}
	}

	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []domain.Chunk
	start := 0
	lastStart := -1

	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			end = chooseBoundary(runes, start, end, size)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			primary, _ := lang.Detect(content)
			chunks = append(chunks, domain.Chunk{
				Content:   content,
				StartChar: start,
				EndChar:   end,
				Language:  primary,
			})
		}

		lastStart = start
		next := end - overlap
		if next <= lastStart {
			next = end
		}
		start = next
	}

	return chunks
}

// chooseBoundary picks a cut point within [start+size*0.5, end] by
// preference: last sentence terminator, else last blank-line break within
// [start+size*0.3, end], else last space from start+size*0.5 onward, else
// the raw window end.
func chooseBoundary(runes []rune, start, end, size int) int {
	minBoundary := start + size/2
	if minBoundary > end {
		minBoundary = end
	}

	if pos := lastSentenceTerminator(runes, minBoundary, end); pos >= 0 {
		return pos + 1
	}

	paraMin := start + (size*3)/10
	if paraMin > end {
		paraMin = end
	}
	if pos := lastParagraphBreak(runes, paraMin, end); pos >= 0 {
		return pos
	}

	if pos := lastSpace(runes, minBoundary, end); pos >= 0 {
		return pos + 1
	}

	return end
}

func lastSentenceTerminator(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		for _, t := range sentenceTerminators {
			if runes[i] == t {
				return i
			}
		}
	}
	return -1
}

func lastParagraphBreak(runes []rune, from, to int) int {
	for i := to - 1; i > from; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

func lastSpace(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}
