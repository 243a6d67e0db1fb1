// Package nlptest provides a deterministic NLP implementation for tests.
package nlptest

import (
	"errors"
	"strings"

	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
)

// ErrStub is returned by the stub's failure switches.
var ErrStub = errors.New("nlptest: simulated failure")

// Stub scores sentiment by summing per-word polarities and lemmatizes from a
// fixed table. The zero value is usable: every text scores (0,0) and tokens
// pass through lemmatization and stemming unchanged.
type Stub struct {
	// Words maps a lowercase token to its polarity contribution.
	Words map[string]float64
	// Lemmas maps a token to its lemma.
	Lemmas map[string]string
	// Stems maps a token to its stem.
	Stems map[string]string
	// Contractions maps a literal substring to its replacement.
	Contractions map[string]string

	FailSentiment    bool
	FailContractions bool
	// PanicOn makes ScoreSentiment panic for texts containing this substring.
	PanicOn string
}

var _ nlp.NLP = (*Stub)(nil)

// Tokenize uses the package tokenizer so tests see the production token shape.
func (s *Stub) Tokenize(text string) []string {
	return nlp.Tokenize(text)
}

// SegmentSentences splits after '.', '!' and '?'.
func (s *Stub) SegmentSentences(text string) []string {
	var out []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sent := strings.TrimSpace(current.String()); sent != "" && strings.Trim(sent, ".!?") != "" {
				out = append(out, sent)
			}
			current.Reset()
		}
	}
	if sent := strings.TrimSpace(current.String()); sent != "" {
		out = append(out, sent)
	}
	return out
}

func (s *Stub) Lemmatize(tokens []string) []string {
	return mapTokens(tokens, s.Lemmas)
}

func (s *Stub) Stem(tokens []string) []string {
	return mapTokens(tokens, s.Stems)
}

// ScoreSentiment sums word polarities (clamped to [-1,1]); subjectivity is
// the share of tokens that carry a polarity.
func (s *Stub) ScoreSentiment(text string) (nlp.Sentiment, error) {
	if s.PanicOn != "" && strings.Contains(text, s.PanicOn) {
		panic("nlptest: scorer panic")
	}
	if s.FailSentiment {
		return nlp.Sentiment{}, ErrStub
	}

	tokens := nlp.Tokenize(text)
	if len(tokens) == 0 {
		return nlp.Sentiment{}, nil
	}

	var sum float64
	scored := 0
	for _, tok := range tokens {
		if v, ok := s.Words[tok]; ok {
			sum += v
			scored++
		}
	}
	if sum > 1 {
		sum = 1
	}
	if sum < -1 {
		sum = -1
	}
	return nlp.Sentiment{
		Polarity:     sum,
		Subjectivity: float64(scored) / float64(len(tokens)),
	}, nil
}

func (s *Stub) ExpandContractions(text string) (string, error) {
	if s.FailContractions {
		return "", ErrStub
	}
	for from, to := range s.Contractions {
		text = strings.ReplaceAll(text, from, to)
	}
	return text, nil
}

func mapTokens(tokens []string, table map[string]string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if mapped, ok := table[tok]; ok {
			out[i] = mapped
		} else {
			out[i] = tok
		}
	}
	return out
}
