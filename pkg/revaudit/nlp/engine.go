package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jonreiter/govader"
	"github.com/kljensen/snowball"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/cognicore/revaudit/pkg/revaudit/lexicon"
)

// Engine is the default NLP implementation backed by VADER sentiment, a
// punkt sentence segmenter, a dictionary lemmatizer and the Snowball stemmer.
type Engine struct {
	segmenter    *sentences.DefaultSentenceTokenizer
	lemmatizer   *golem.Lemmatizer
	analyzer     *govader.SentimentIntensityAnalyzer
	contractions *lexicon.Lexicon
	language     string
}

// EngineOptions configures an Engine
type EngineOptions struct {
	Language     string           // only "english" is supported
	Contractions *lexicon.Lexicon // defaults to lexicon.English()
}

// NewEngine loads the language models. Loading is slow; build one Engine and
// share it between workers.
func NewEngine(opts EngineOptions) (*Engine, error) {
	language := strings.ToLower(strings.TrimSpace(opts.Language))
	if language == "" {
		language = "english"
	}
	if language != "english" {
		return nil, fmt.Errorf("unsupported language %q", opts.Language)
	}

	segmenter, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence model: %w", err)
	}

	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load lemma dictionary: %w", err)
	}

	contractions := opts.Contractions
	if contractions == nil {
		contractions = lexicon.English()
	}

	return &Engine{
		segmenter:    segmenter,
		lemmatizer:   lemmatizer,
		analyzer:     govader.NewSentimentIntensityAnalyzer(),
		contractions: contractions,
		language:     language,
	}, nil
}

// Tokenize implements NLP.
func (e *Engine) Tokenize(text string) []string {
	return Tokenize(text)
}

// SegmentSentences implements NLP.
func (e *Engine) SegmentSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, s := range e.segmenter.Tokenize(text) {
		if sent := strings.TrimSpace(s.Text); sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

// Lemmatize implements NLP. Tokens containing anything but letters are
// returned unchanged.
func (e *Engine) Lemmatize(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if !isAlpha(tok) {
			out[i] = tok
			continue
		}
		out[i] = e.lemmatizer.Lemma(tok)
	}
	return out
}

// Stem implements NLP.
func (e *Engine) Stem(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		stemmed, err := snowball.Stem(tok, e.language, true)
		if err != nil || stemmed == "" {
			out[i] = tok
			continue
		}
		out[i] = stemmed
	}
	return out
}

// ScoreSentiment implements NLP. Polarity is the VADER compound score;
// subjectivity is the share of the text carrying positive or negative
// valence.
func (e *Engine) ScoreSentiment(text string) (Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return Sentiment{}, nil
	}

	scores := e.analyzer.PolarityScores(text)
	return Sentiment{
		Polarity:     scores.Compound,
		Subjectivity: scores.Positive + scores.Negative,
	}, nil
}

// ExpandContractions implements NLP.
func (e *Engine) ExpandContractions(text string) (string, error) {
	return e.contractions.Expand(text)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
