package audit

import (
	"sort"
	"unicode/utf8"

	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// Tier grades how much a correction suggestion can be trusted.
type Tier string

const (
	// TierHigh: sentiment and keywords agree with each other and disagree
	// with the declared label.
	TierHigh Tier = "high"
	// TierMedium: strong polarity (|p| > 0.5) without keyword agreement.
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const previewLength = 200

// Suggestion proposes a replacement label for one suspect record.
type Suggestion struct {
	Position   int          `json:"position"`
	Current    record.Label `json:"current_label"`
	Suggested  record.Label `json:"suggested_label"`
	Tier       Tier         `json:"tier"`
	Confidence float64      `json:"confidence_score"`
	Reason     string       `json:"reason"`
	Preview    string       `json:"text_preview"`
}

// Suggest returns corrections for the topN most confident suspects
// (topN <= 0 means all). Ties keep input order.
func Suggest(records []record.EnrichedRecord, topN int) []Suggestion {
	suspects := make([]record.EnrichedRecord, 0)
	for _, r := range records {
		if r.IsSuspect {
			suspects = append(suspects, r)
		}
	}
	sort.SliceStable(suspects, func(i, j int) bool {
		return suspects[i].Confidence > suspects[j].Confidence
	})
	if topN > 0 && len(suspects) > topN {
		suspects = suspects[:topN]
	}

	out := make([]Suggestion, 0, len(suspects))
	for _, r := range suspects {
		out = append(out, Suggestion{
			Position:   r.Position,
			Current:    r.Label,
			Suggested:  r.SuggestedLabel,
			Tier:       tierFor(r),
			Confidence: r.Confidence,
			Reason:     r.Reason,
			Preview:    preview(r.CombinedText),
		})
	}
	return out
}

// Apply returns a copy of records with labels replaced per suggestions.
// The input slice is not modified.
func Apply(records []record.EnrichedRecord, suggestions []Suggestion) []record.EnrichedRecord {
	byPosition := make(map[int]record.Label, len(suggestions))
	for _, s := range suggestions {
		byPosition[s.Position] = s.Suggested
	}

	out := make([]record.EnrichedRecord, len(records))
	copy(out, records)
	for i := range out {
		if label, ok := byPosition[out[i].Position]; ok {
			out[i].Label = label
		}
	}
	return out
}

func tierFor(r record.EnrichedRecord) Tier {
	keywordLabel := record.Negative
	if r.PositiveKeywords > r.NegativeKeywords {
		keywordLabel = record.Positive
	}
	switch {
	case keywordLabel == r.SuggestedLabel && r.SuggestedLabel != r.Label:
		return TierHigh
	case r.Confidence > 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
