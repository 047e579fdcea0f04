// Package evaluation holds per-row evaluation records and their aggregate summary.
package evaluation

import (
	"slices"

	"github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/eccn"
)

// Sample is one labeled evaluation query.
type Sample struct {
	Query    string
	TrueCode string
}

// Outcome classifies how a row finished.
type Outcome string

// Row outcomes.
const (
	OutcomeDecided      Outcome = "decided"
	OutcomeAbstained    Outcome = "abstained"
	OutcomeParseFailure Outcome = "parse_failure"
	OutcomeError        Outcome = "error"
)

// Record is the immutable result of evaluating one sample.
type Record struct {
	sample       Sample
	predicted    string
	rawOutput    string
	errMsg       string
	candidates   []string
	exactMatch   bool
	parentMatch  bool
	recallAtK    bool
	abstained    bool
	inCandidates bool
	outcome      Outcome
}

// NewRecord scores a decision against the ground truth.
// An unparsed model response is scored as eccn.ParseError, not as an abstention.
func NewRecord(s Sample, d decision.Decision) Record {
	candidates := d.Candidates()
	predicted := d.PredictedCode()
	outcome := OutcomeDecided
	switch d.Outcome() {
	case decision.OutcomeUnparsed:
		predicted = eccn.ParseError
		outcome = OutcomeParseFailure
	case decision.OutcomeAbstained, decision.OutcomeNoCandidates:
		outcome = OutcomeAbstained
	}

	r := Record{
		sample:       s,
		predicted:    predicted,
		rawOutput:    d.RawOutput(),
		candidates:   candidates,
		exactMatch:   predicted == s.TrueCode,
		recallAtK:    eccn.Contains(candidates, s.TrueCode),
		abstained:    predicted == eccn.Abstain,
		inCandidates: eccn.Contains(candidates, predicted),
		outcome:      outcome,
	}
	if !eccn.IsSentinel(predicted) {
		r.parentMatch = eccn.Parent(predicted) == eccn.Parent(s.TrueCode)
	}
	return r
}

// NewFailedRecord records a row whose retrieval or model call failed.
// candidates may be nil when retrieval itself failed.
func NewFailedRecord(s Sample, candidates []string, err error) Record {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Record{
		sample:     s,
		errMsg:     msg,
		candidates: slices.Clone(candidates),
		recallAtK:  eccn.Contains(candidates, s.TrueCode),
		outcome:    OutcomeError,
	}
}

// Sample returns the evaluated sample.
func (r Record) Sample() Sample { return r.sample }

// PredictedCode returns the code, a sentinel, or "" for failed rows.
func (r Record) PredictedCode() string { return r.predicted }

// RawOutput returns the model response kept for audit.
func (r Record) RawOutput() string { return r.rawOutput }

// Error returns the failure message for OutcomeError rows.
func (r Record) Error() string { return r.errMsg }

// Candidates returns the retrieved candidate codes.
func (r Record) Candidates() []string { return slices.Clone(r.candidates) }

// ExactMatch reports predicted == true code.
func (r Record) ExactMatch() bool { return r.exactMatch }

// ParentMatch reports equal parent codes; always false for sentinels.
func (r Record) ParentMatch() bool { return r.parentMatch }

// RecallAtK reports whether the true code was retrieved.
func (r Record) RecallAtK() bool { return r.recallAtK }

// Abstained reports whether the prediction is the abstain sentinel.
func (r Record) Abstained() bool { return r.abstained }

// InCandidates reports whether the prediction was one of the candidates.
func (r Record) InCandidates() bool { return r.inCandidates }

// Outcome returns how the row finished.
func (r Record) Outcome() Outcome { return r.outcome }

// Generated is a synthesized sample together with the taxonomy description it was rewritten from.
type Generated struct {
	Query             string
	TrueCode          string
	SourceDescription string
}
