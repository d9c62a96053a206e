package title

import (
	"regexp"
	"strings"
	"unicode"

	"ai-tutor-be/pkg/store"
)

const maxWords = 10

var (
	codeFence   = regexp.MustCompile("(?s)```.*?```")
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mathDelims  = regexp.MustCompile(`\$\$|\$|\\\(|\\\)|\\\[|\\\]`)
	latexMacros = regexp.MustCompile(`\\[a-zA-Z]+`)
)

// IsSentinel reports whether a chat still carries its placeholder title
func IsSentinel(t string) bool {
	t = strings.TrimSpace(t)
	return t == "" || t == store.DefaultChatTitle
}

// Derive builds a title from the first ten words of a response once markup,
// math delimiters and punctuation are removed. Returns "" when nothing usable remains.
func Derive(response string) string {
	text := codeFence.ReplaceAllString(response, " ")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mathDelims.ReplaceAllString(text, " ")
	text = latexMacros.ReplaceAllString(text, " ")

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)

	words := strings.Fields(cleaned)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
