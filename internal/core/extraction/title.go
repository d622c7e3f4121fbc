package extraction

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// NoTextTitle is used when neither the model nor the text yields a title.
	NoTextTitle = "Image (no text)"
	// FailedTitle replaces the title when the extraction attempt itself failed.
	FailedTitle = "Image (processing failed)"

	derivedTitleWords = 6
)

var titleCaser = cases.Title(language.Und)

// unusable reports blank titles and the sentinels models fall back to.
func unusable(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return t == "" || t == "untitled" || t == "none"
}

// titleFromText derives a title from the first line that is neither blank nor
// only digits. ok is false when no such line exists.
func titleFromText(text string) (title string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || allDigits(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) > derivedTitleWords {
			words = words[:derivedTitleWords]
		}
		t := strings.TrimRight(strings.Join(words, " "), ",:;.")
		if unusable(t) {
			continue
		}
		return titleCaser.String(t), true
	}
	return "", false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
