package audit

import (
	"strings"
	"testing"

	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

func enriched(pos int, label record.Label, polarity float64, neg, posKw int, suspect bool) record.EnrichedRecord {
	suggested := record.Negative
	if polarity > 0 {
		suggested = record.Positive
	}
	if polarity < 0 {
		polarity = -polarity
	}
	return record.EnrichedRecord{
		Position:     pos,
		RawRecord:    record.RawRecord{Title: "t", Content: "c", Label: label},
		CombinedText: "t c",
		AuditVerdict: record.AuditVerdict{
			IsSuspect:        suspect,
			Reason:           "reason",
			SuggestedLabel:   suggested,
			Confidence:       polarity,
			NegativeKeywords: neg,
			PositiveKeywords: posKw,
		},
	}
}

func TestSuggestOrdersAndTiers(t *testing.T) {
	records := []record.EnrichedRecord{
		enriched(0, record.Positive, -0.4, 3, 0, true),  // high: keywords agree
		enriched(1, record.Positive, 0.9, 0, 0, false),  // not suspect
		enriched(2, record.Negative, 0.7, 2, 1, true),   // medium: strong polarity
		enriched(3, record.Positive, -0.35, 0, 2, true), // low
		enriched(4, record.Negative, 0.4, 0, 0, true),   // low: keyword label is negative
	}

	got := Suggest(records, 0)
	if len(got) != 4 {
		t.Fatalf("Expected 4 suggestions, got %d", len(got))
	}

	expectedOrder := []int{2, 0, 4, 3}
	for i, pos := range expectedOrder {
		if got[i].Position != pos {
			t.Errorf("Suggestion %d: expected position %d, got %d", i, pos, got[i].Position)
		}
	}

	tiers := map[int]Tier{0: TierHigh, 2: TierMedium, 3: TierLow, 4: TierLow}
	for _, s := range got {
		if s.Tier != tiers[s.Position] {
			t.Errorf("Position %d: expected tier %s, got %s", s.Position, tiers[s.Position], s.Tier)
		}
	}

	if got[1].Current != record.Positive || got[1].Suggested != record.Negative {
		t.Errorf("Unexpected labels for position 0: %+v", got[1])
	}
}

func TestSuggestTopN(t *testing.T) {
	records := []record.EnrichedRecord{
		enriched(0, record.Positive, -0.4, 0, 0, true),
		enriched(1, record.Positive, -0.4, 0, 0, true),
		enriched(2, record.Positive, -0.9, 0, 0, true),
	}

	got := Suggest(records, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(got))
	}
	if got[0].Position != 2 || got[1].Position != 0 {
		t.Errorf("Expected positions [2 0], got [%d %d]", got[0].Position, got[1].Position)
	}

	if got := Suggest(nil, 5); len(got) != 0 {
		t.Errorf("Expected no suggestions for empty input, got %d", len(got))
	}
}

func TestSuggestPreviewTruncates(t *testing.T) {
	r := enriched(0, record.Positive, -0.5, 0, 0, true)
	r.CombinedText = strings.Repeat("é", 250)

	got := Suggest([]record.EnrichedRecord{r}, 1)
	if !strings.HasSuffix(got[0].Preview, "...") {
		t.Errorf("Expected truncated preview, got %d chars", len(got[0].Preview))
	}
	if n := len([]rune(got[0].Preview)); n != previewLength+3 {
		t.Errorf("Expected %d runes, got %d", previewLength+3, n)
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	records := []record.EnrichedRecord{
		enriched(0, record.Positive, -0.8, 0, 0, true),
		enriched(1, record.Negative, -0.2, 0, 0, false),
	}

	corrected := Apply(records, Suggest(records, 0))

	if records[0].Label != record.Positive {
		t.Error("Apply modified the input slice")
	}
	if corrected[0].Label != record.Negative {
		t.Errorf("Expected corrected label negative, got %v", corrected[0].Label)
	}
	if corrected[1].Label != record.Negative {
		t.Errorf("Unsuggested record should keep its label, got %v", corrected[1].Label)
	}
}
