package ocr

import (
	"regexp"
	"strings"
)

var (
	pipeRuns        = regexp.MustCompile(`\|{2,}`)
	underscoreRuns  = regexp.MustCompile(`_{2,}`)
	multiSpaceRuns  = regexp.MustCompile(`[ \t]{2,}`)
	ellipsisRuns    = regexp.MustCompile(`\.{3,}`)
	spaceBeforePunc = regexp.MustCompile(`\s+([,.!?;:])`)
)

// postProcess cleans raw tesseract output: collapses whitespace, strips
// pipe/underscore scan-artifact runs, normalizes ellipses, and fixes
// spacing before punctuation.
func postProcess(text string) string {
	text = pipeRuns.ReplaceAllString(text, "")
	text = underscoreRuns.ReplaceAllString(text, "")
	text = ellipsisRuns.ReplaceAllString(text, "...")
	text = spaceBeforePunc.ReplaceAllString(text, "$1")
	text = multiSpaceRuns.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
