// Package features computes structural, lexical and sentiment metrics from
// raw (un-normalized) review text.
package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// asciiPunctuation is the ASCII punctuation set counted by PunctuationRatio.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Extractor computes FeatureSets. It holds no state besides its NLP
// collaborator and is safe for concurrent use.
type Extractor struct {
	nlp nlp.NLP
}

// New creates an extractor using n for segmentation, tokenization and
// sentiment.
func New(n nlp.NLP) *Extractor {
	return &Extractor{nlp: n}
}

// Extract computes the FeatureSet of text. Lengths are counted in runes.
// Every ratio is 0 when its denominator is 0.
func (e *Extractor) Extract(text string) record.FeatureSet {
	var fs record.FeatureSet

	fs.TextLength = utf8.RuneCountInString(text)

	words := strings.Fields(text)
	fs.WordCount = len(words)
	if len(words) > 0 {
		total := 0
		for _, w := range words {
			total += utf8.RuneCountInString(w)
			if isTitle(w) {
				fs.TitleCaseWords++
			}
		}
		fs.AvgWordLength = float64(total) / float64(len(words))
	}

	if strings.TrimSpace(text) != "" {
		fs.SentenceCount = len(e.nlp.SegmentSentences(text))
	}

	punct := 0
	for _, r := range text {
		switch r {
		case '!':
			fs.ExclamationCount++
		case '?':
			fs.QuestionCount++
		case ',':
			fs.CommaCount++
		case '.':
			fs.PeriodCount++
		}
		if r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r) {
			punct++
		}
		if unicode.IsUpper(r) {
			fs.UpperCaseCount++
		}
	}
	fs.PunctuationRatio = ratio(punct, fs.TextLength)
	fs.UpperCaseRatio = ratio(fs.UpperCaseCount, fs.TextLength)

	sentiment := nlp.SafeSentiment(e.nlp, text)
	fs.Polarity = sentiment.Polarity
	fs.Subjectivity = sentiment.Subjectivity

	tokens := e.nlp.Tokenize(text)
	if len(tokens) > 0 {
		unique := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			unique[tok] = struct{}{}
		}
		fs.UniqueWordRatio = ratio(len(unique), len(tokens))
	}

	return fs
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// isTitle reports whether word is title-cased: it has at least one cased
// letter, uppercase letters only follow uncased runes and lowercase letters
// only follow cased ones ("Metal", "Wi-Fi", "O'Neil" but not "iPhone").
func isTitle(word string) bool {
	cased := false
	prevCased := false
	for _, r := range word {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}
