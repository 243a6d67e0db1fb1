// Package ingest turns raw review records into enriched records: the
// per-record processor, chunk partitioning and the chunk coordinator.
package ingest

import (
	"fmt"
	"unicode/utf8"

	"github.com/cognicore/revaudit/pkg/revaudit/audit"
	"github.com/cognicore/revaudit/pkg/revaudit/features"
	"github.com/cognicore/revaudit/pkg/revaudit/normalize"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
)

// RecordProcessor enriches one raw record. An error drops the record; an
// error wrapping internalerr.ErrFatal abandons the whole chunk.
type RecordProcessor interface {
	Process(position int, raw record.RawRecord) (record.EnrichedRecord, error)
}

// Processor is the default RecordProcessor:
// combine → normalize → extract features → audit.
type Processor struct {
	normalizer *normalize.Normalizer
	extractor  *features.Extractor
	auditor    *audit.Auditor
}

// NewProcessor wires the three per-record stages together.
func NewProcessor(n *normalize.Normalizer, e *features.Extractor, a *audit.Auditor) *Processor {
	return &Processor{
		normalizer: n,
		extractor:  e,
		auditor:    a,
	}
}

// Process builds the EnrichedRecord for raw. Panics inside any stage are
// returned as errors.
func (p *Processor) Process(position int, raw record.RawRecord) (rec record.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process record %d: panic: %v", position, r)
		}
	}()

	if err := raw.Validate(); err != nil {
		return rec, fmt.Errorf("process record %d: %w", position, err)
	}

	// 1. Combined text
	combined := raw.Combined()

	// 2. Normalized form
	processed := p.normalizer.Normalize(combined)

	// 3. Features from the un-normalized text
	fs := p.extractor.Extract(combined)

	// 4. Audit, reusing the polarity computed above
	verdict := p.auditor.AuditWithPolarity(combined, raw.Label, fs.Polarity)

	return record.EnrichedRecord{
		Position:        position,
		RawRecord:       raw,
		CombinedText:    combined,
		ProcessedText:   processed,
		ProcessedLength: utf8.RuneCountInString(processed),
		FeatureSet:      fs,
		AuditVerdict:    verdict,
	}, nil
}
