// Package audit flags reviews whose declared label contradicts the sentiment
// and keyword signals of their text.
package audit

import (
	"fmt"
	"math"
	"strings"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// DefaultNegativeKeywords are strong markers of an unfavorable review.
var DefaultNegativeKeywords = []string{
	// "little disappointed" overlaps "disappointed" on purpose: the phrase
	// counts twice, so it alone reaches the default keyword minimum.
	"disappointed", "little disappointed", "terrible", "awful", "horrible",
	"worst", "hate", "broken", "defective", "useless", "waste", "regret",
	"disaster", "nightmare", "garbage", "trash", "scam", "fraud", "poor",
	"bad", "failed", "doesn't work", "not working", "stopped working",
}

// DefaultPositiveKeywords are strong markers of a favorable review.
var DefaultPositiveKeywords = []string{
	"amazing", "excellent", "fantastic", "wonderful", "perfect", "love",
	"great", "awesome", "brilliant", "outstanding", "recommend", "best",
	"impressed", "satisfied", "happy",
}

// Config holds the tunables of the audit heuristic.
type Config struct {
	PolarityThreshold   float64  `yaml:"polarity_threshold"`
	NegativeKeywords    []string `yaml:"negative_keywords"`
	PositiveKeywords    []string `yaml:"positive_keywords"`
	MinNegativeKeywords int      `yaml:"min_negative_keywords"`
}

// DefaultConfig returns threshold 0.3, the built-in keyword sets and a
// two-keyword minimum.
func DefaultConfig() Config {
	return Config{
		PolarityThreshold:   0.3,
		NegativeKeywords:    append([]string(nil), DefaultNegativeKeywords...),
		PositiveKeywords:    append([]string(nil), DefaultPositiveKeywords...),
		MinNegativeKeywords: 2,
	}
}

// Validate checks the threshold range and keyword minimum.
func (c Config) Validate() error {
	if math.IsNaN(c.PolarityThreshold) || c.PolarityThreshold < 0 || c.PolarityThreshold > 1 {
		return fmt.Errorf("%w: polarity threshold %v outside [0,1]", internalerr.ErrInvalidConfig, c.PolarityThreshold)
	}
	if c.MinNegativeKeywords < 1 {
		return fmt.Errorf("%w: min negative keywords must be at least 1", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Auditor applies the heuristic. It is safe for concurrent use.
type Auditor struct {
	nlp       nlp.NLP
	threshold float64
	minNeg    int
	negative  []string // lowercase, deduplicated
	positive  []string
}

// New builds an Auditor from cfg.
func New(n nlp.NLP, cfg Config) (*Auditor, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: auditor requires an NLP implementation", internalerr.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Auditor{
		nlp:       n,
		threshold: cfg.PolarityThreshold,
		minNeg:    cfg.MinNegativeKeywords,
		negative:  keywordSet(cfg.NegativeKeywords),
		positive:  keywordSet(cfg.PositiveKeywords),
	}, nil
}

// Threshold returns the configured polarity threshold.
func (a *Auditor) Threshold() float64 {
	return a.threshold
}

// Audit scores the sentiment of text and checks it against declared.
func (a *Auditor) Audit(text string, declared record.Label) record.AuditVerdict {
	return a.AuditWithPolarity(text, declared, nlp.SafeSentiment(a.nlp, text).Polarity)
}

// AuditWithPolarity checks declared against a polarity already computed for
// the same text.
//
// A record is suspect if any of these hold:
//   - declared positive and polarity < -threshold
//   - declared negative and polarity > +threshold
//   - declared positive and at least MinNegativeKeywords negative keywords
//
// SuggestedLabel follows the polarity sign only; keywords never change it.
func (a *Auditor) AuditWithPolarity(text string, declared record.Label, polarity float64) record.AuditVerdict {
	neg, pos := a.KeywordCounts(text)

	var reasons []string
	switch {
	case declared == record.Positive && polarity < -a.threshold:
		reasons = append(reasons, fmt.Sprintf("positive label but negative polarity (%.3f)", polarity))
	case declared == record.Negative && polarity > a.threshold:
		reasons = append(reasons, fmt.Sprintf("negative label but positive polarity (%.3f)", polarity))
	}
	if declared == record.Positive && neg >= a.minNeg {
		reasons = append(reasons, fmt.Sprintf("%d negative keywords", neg))
	}

	suggested := record.Negative
	if polarity > 0 {
		suggested = record.Positive
	}

	return record.AuditVerdict{
		IsSuspect:        len(reasons) > 0,
		Reason:           strings.Join(reasons, " + "),
		SuggestedLabel:   suggested,
		Confidence:       math.Abs(polarity),
		NegativeKeywords: neg,
		PositiveKeywords: pos,
	}
}

// KeywordCounts returns how many distinct negative and positive keywords
// occur in text (case-insensitive substring match).
func (a *Auditor) KeywordCounts(text string) (neg, pos int) {
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	for _, kw := range a.negative {
		if strings.Contains(lower, kw) {
			neg++
		}
	}
	for _, kw := range a.positive {
		if strings.Contains(lower, kw) {
			pos++
		}
	}
	return neg, pos
}

func keywordSet(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
