package nlp

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestTokenizeBasic(t *testing.T) {
	tokens := Tokenize("The Metal Case, is great!")
	expected := []string{"the", "metal", "case", ",", "is", "great", "!"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizeHyphens(t *testing.T) {
	tokens := Tokenize("well-made --dash trailing-")
	expected := []string{"well-made", "-", "-", "dash", "trailing"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if tokens := Tokenize(""); len(tokens) != 0 {
		t.Errorf("Empty text should produce 0 tokens, got %v", tokens)
	}
	if tokens := Tokenize("   \t\n"); len(tokens) != 0 {
		t.Errorf("Whitespace should produce 0 tokens, got %v", tokens)
	}
}

func TestTokenizeUnicode(t *testing.T) {
	tokens := Tokenize("Café RÉSUMÉ")
	if len(tokens) != 2 || tokens[0] != "café" || tokens[1] != "résumé" {
		t.Errorf("Unicode letters should be kept and lowercased, got %v", tokens)
	}
}

type failingNLP struct {
	Engine
	panicSentiment bool
	polarity       float64
}

func (f *failingNLP) ScoreSentiment(text string) (Sentiment, error) {
	if f.panicSentiment {
		panic("boom")
	}
	if f.polarity != 0 {
		return Sentiment{Polarity: f.polarity, Subjectivity: 2}, nil
	}
	return Sentiment{Polarity: 0.9}, errors.New("scorer down")
}

func (f *failingNLP) ExpandContractions(text string) (string, error) {
	if f.panicSentiment {
		panic("boom")
	}
	return "garbage", errors.New("expander down")
}

func TestSafeSentimentDegrades(t *testing.T) {
	got := SafeSentiment(&failingNLP{}, "anything")
	if got != (Sentiment{}) {
		t.Errorf("Failing scorer should yield (0,0), got %+v", got)
	}

	got = SafeSentiment(&failingNLP{panicSentiment: true}, "anything")
	if got != (Sentiment{}) {
		t.Errorf("Panicking scorer should yield (0,0), got %+v", got)
	}
}

func TestSafeSentimentClamps(t *testing.T) {
	got := SafeSentiment(&failingNLP{polarity: -3}, "anything")
	if got.Polarity != -1 || got.Subjectivity != 1 {
		t.Errorf("Expected clamped (-1,1), got %+v", got)
	}

	got = SafeSentiment(&failingNLP{polarity: math.NaN()}, "anything")
	if got.Polarity != 0 {
		t.Errorf("NaN polarity should become 0, got %v", got.Polarity)
	}
}

func TestSafeExpandFallsBack(t *testing.T) {
	if got := SafeExpand(&failingNLP{}, "don't"); got != "don't" {
		t.Errorf("Failed expansion should return input, got %q", got)
	}
	if got := SafeExpand(&failingNLP{panicSentiment: true}, "can't"); got != "can't" {
		t.Errorf("Panicking expansion should return input, got %q", got)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(EngineOptions{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineUnsupportedLanguage(t *testing.T) {
	if _, err := NewEngine(EngineOptions{Language: "french"}); err == nil {
		t.Error("Unsupported language should return an error")
	}
}

func TestEngineSentiment(t *testing.T) {
	e := newTestEngine(t)

	pos, err := e.ScoreSentiment("This is a great product, I love it!")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Polarity <= 0 {
		t.Errorf("Expected positive polarity, got %v", pos.Polarity)
	}

	neg, _ := e.ScoreSentiment("Terrible. It broke and I hate it.")
	if neg.Polarity >= 0 {
		t.Errorf("Expected negative polarity, got %v", neg.Polarity)
	}

	for _, s := range []Sentiment{pos, neg} {
		if s.Polarity < -1 || s.Polarity > 1 || s.Subjectivity < 0 || s.Subjectivity > 1 {
			t.Errorf("Sentiment out of bounds: %+v", s)
		}
	}

	empty, _ := e.ScoreSentiment("   ")
	if empty != (Sentiment{}) {
		t.Errorf("Blank text should score (0,0), got %+v", empty)
	}
}

func TestEngineSegmentSentences(t *testing.T) {
	e := newTestEngine(t)

	sents := e.SegmentSentences("It arrived late. The box was crushed! Would I buy again?")
	if len(sents) != 3 {
		t.Errorf("Expected 3 sentences, got %d: %v", len(sents), sents)
	}

	if got := e.SegmentSentences(""); len(got) != 0 {
		t.Errorf("Empty text should have no sentences, got %v", got)
	}
}

func TestEngineLemmatizeAndStem(t *testing.T) {
	e := newTestEngine(t)

	lemmas := e.Lemmatize([]string{"cases", "batteries", "42", ","})
	if lemmas[0] != "case" {
		t.Errorf("Expected 'case', got %q", lemmas[0])
	}
	if lemmas[1] != "battery" {
		t.Errorf("Expected 'battery', got %q", lemmas[1])
	}
	if lemmas[2] != "42" || lemmas[3] != "," {
		t.Errorf("Non-alphabetic tokens should pass through, got %v", lemmas[2:])
	}

	stems := e.Stem([]string{"running", "quality"})
	if stems[0] != "run" {
		t.Errorf("Expected stem 'run', got %q", stems[0])
	}
	if !strings.HasPrefix(stems[1], "qualit") {
		t.Errorf("Unexpected stem for quality: %q", stems[1])
	}
}

func TestEngineExpandContractions(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.ExpandContractions("I'm sure it doesn't fit")
	if err != nil {
		t.Fatal(err)
	}
	if got != "I am sure it does not fit" {
		t.Errorf("Unexpected expansion: %q", got)
	}
}
