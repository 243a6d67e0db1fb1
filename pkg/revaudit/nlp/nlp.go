// Package nlp defines the linguistic capabilities the pipeline consumes:
// tokenization, sentence segmentation, lemmatization, stemming, sentiment
// scoring and contraction expansion. The pipeline only talks to the NLP
// interface, so tests can substitute deterministic stubs.
package nlp

import "math"

// NLP is the single capability interface for external linguistic services.
// Implementations must be safe for concurrent use by pipeline workers.
type NLP interface {
	Tokenize(text string) []string
	SegmentSentences(text string) []string
	Lemmatize(tokens []string) []string
	Stem(tokens []string) []string
	ScoreSentiment(text string) (Sentiment, error)
	ExpandContractions(text string) (string, error)
}

// Sentiment is a polarity in [-1,1] and a subjectivity in [0,1].
type Sentiment struct {
	Polarity     float64
	Subjectivity float64
}

// SafeSentiment scores text and degrades to a neutral (0,0) result when the
// scorer fails or panics. Out-of-range values are clamped.
func SafeSentiment(n NLP, text string) (s Sentiment) {
	defer func() {
		if r := recover(); r != nil {
			s = Sentiment{}
		}
	}()

	s, err := n.ScoreSentiment(text)
	if err != nil {
		return Sentiment{}
	}
	return Sentiment{
		Polarity:     clamp(s.Polarity, -1, 1),
		Subjectivity: clamp(s.Subjectivity, 0, 1),
	}
}

// SafeExpand expands contractions, returning the input unchanged when the
// expander fails or panics.
func SafeExpand(n NLP, text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()

	expanded, err := n.ExpandContractions(text)
	if err != nil {
		return text
	}
	return expanded
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
