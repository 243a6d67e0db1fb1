package record

import (
	"fmt"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
)

// Label is the declared binary sentiment class of a review.
type Label int

const (
	Negative Label = 0
	Positive Label = 1
)

// Valid reports whether the label is one of the two known classes.
func (l Label) Valid() bool {
	return l == Negative || l == Positive
}

func (l Label) String() string {
	switch l {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// RawRecord is one review as produced by a data source. It is never modified.
type RawRecord struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Label   Label  `json:"label"`
}

// Combined returns the title and content joined by a single space.
func (r RawRecord) Combined() string {
	return r.Title + " " + r.Content
}

// Validate checks if the record can be processed. Only the label is
// checked: a record with empty title and content is still processed.
func (r RawRecord) Validate() error {
	if !r.Label.Valid() {
		return fmt.Errorf("%w: label %d is not 0 or 1", internalerr.ErrInvalidInput, int(r.Label))
	}
	return nil
}

// FeatureSet holds the structural, lexical and sentiment metrics of a text.
// Ratios are in [0,1], Polarity in [-1,1], Subjectivity in [0,1].
type FeatureSet struct {
	TextLength       int     `json:"text_length"`
	WordCount        int     `json:"word_count"`
	SentenceCount    int     `json:"sentence_count"`
	AvgWordLength    float64 `json:"avg_word_length"`
	ExclamationCount int     `json:"exclamation_count"`
	QuestionCount    int     `json:"question_count"`
	CommaCount       int     `json:"comma_count"`
	PeriodCount      int     `json:"period_count"`
	PunctuationRatio float64 `json:"punctuation_ratio"`
	UpperCaseCount   int     `json:"upper_case_count"`
	UpperCaseRatio   float64 `json:"upper_case_ratio"`
	TitleCaseWords   int     `json:"title_case_words"`
	Polarity         float64 `json:"polarity"`
	Subjectivity     float64 `json:"subjectivity"`
	UniqueWordRatio  float64 `json:"unique_word_ratio"`
}

// Map returns the features keyed by their downstream names.
func (f FeatureSet) Map() map[string]float64 {
	return map[string]float64{
		"text_length":       float64(f.TextLength),
		"word_count":        float64(f.WordCount),
		"sentence_count":    float64(f.SentenceCount),
		"avg_word_length":   f.AvgWordLength,
		"exclamation_count": float64(f.ExclamationCount),
		"question_count":    float64(f.QuestionCount),
		"comma_count":       float64(f.CommaCount),
		"period_count":      float64(f.PeriodCount),
		"punctuation_ratio": f.PunctuationRatio,
		"upper_case_count":  float64(f.UpperCaseCount),
		"upper_case_ratio":  f.UpperCaseRatio,
		"title_case_words":  float64(f.TitleCaseWords),
		"polarity":          f.Polarity,
		"subjectivity":      f.Subjectivity,
		"unique_word_ratio": f.UniqueWordRatio,
	}
}

// AuditVerdict is the outcome of checking a declared label against the
// sentiment and keyword signals of its text.
type AuditVerdict struct {
	IsSuspect        bool    `json:"is_label_suspect"`
	Reason           string  `json:"suspect_reason"`
	SuggestedLabel   Label   `json:"suggested_label"`
	Confidence       float64 `json:"confidence_score"`
	NegativeKeywords int     `json:"negative_keywords"`
	PositiveKeywords int     `json:"positive_keywords"`
}

// EnrichedRecord is the unit emitted by the pipeline, one per successfully
// processed input. Position is the record's index in the input stream.
type EnrichedRecord struct {
	Position int `json:"position"`
	RawRecord
	CombinedText    string `json:"combined_text"`
	ProcessedText   string `json:"processed_text"`
	ProcessedLength int    `json:"processed_length"`
	FeatureSet
	AuditVerdict
}
