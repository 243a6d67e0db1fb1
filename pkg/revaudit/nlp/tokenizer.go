package nlp

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase tokens. Runs of letters and digits
// (with inner hyphens) form word tokens; every other non-space rune becomes
// a token of its own, so punctuation survives for later filtering.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := cleanToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r):
			current.WriteRune(unicode.ToLower(r))
		case r == '-' && current.Len() > 0:
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}

	// Don't forget the last token
	flush()

	return tokens
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")

	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}

	return token
}
