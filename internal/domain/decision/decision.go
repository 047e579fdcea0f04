// Package decision models the outcome of the candidate-gated classification step.
package decision

import (
	"slices"

	"github.com/kailas-cloud/eccnrag/internal/domain/eccn"
)

// NoCandidatesReason is the fixed explanation returned when retrieval yields nothing.
const NoCandidatesReason = "No relevant ECCN candidates retrieved."

// Outcome describes how a decision was reached.
type Outcome string

// Decision outcomes.
const (
	// OutcomeDecided means the model named a code.
	OutcomeDecided Outcome = "decided"
	// OutcomeAbstained means the model answered with the abstain sentinel.
	OutcomeAbstained Outcome = "abstained"
	// OutcomeNoCandidates means retrieval was empty and the model was never called.
	OutcomeNoCandidates Outcome = "no_candidates"
	// OutcomeUnparsed means the model response had no usable "ECCN:" line.
	OutcomeUnparsed Outcome = "unparsed"
)

// ParseResult is the tagged result of reading a model response: Parsed or Unparsed.
type ParseResult interface {
	isParseResult()
}

// Parsed is a response that carried an "ECCN:" line.
// Reason is empty when the response had no "Reason:" line.
type Parsed struct {
	Code   string
	Reason string
}

// Unparsed is a response without a usable "ECCN:" line. Raw is kept verbatim.
type Unparsed struct {
	Raw string
}

func (Parsed) isParseResult() {}
func (Unparsed) isParseResult() {}

// Decision is an immutable classification for one query.
type Decision struct {
	code       string
	reason     string
	raw        string
	candidates []string
	outcome    Outcome
}

// NoCandidates returns the gated abstention used when retrieval is empty.
func NoCandidates() Decision {
	return Decision{
		code:       eccn.Abstain,
		reason:     NoCandidatesReason,
		candidates: []string{},
		outcome:    OutcomeNoCandidates,
	}
}

// FromResponse builds a decision from a parsed model response.
// An Unparsed response degrades to the abstain sentinel with the raw text as reason.
// A Parsed response without a reason falls back to the raw text too.
func FromResponse(res ParseResult, raw string, candidates []string) Decision {
	d := Decision{raw: raw, candidates: slices.Clone(candidates)}
	if d.candidates == nil {
		d.candidates = []string{}
	}

	switch r := res.(type) {
	case Parsed:
		d.code = r.Code
		d.reason = r.Reason
		if d.reason == "" {
			d.reason = raw
		}
		d.outcome = OutcomeDecided
		if r.Code == eccn.Abstain {
			d.outcome = OutcomeAbstained
		}
	case Unparsed:
		d.code = eccn.Abstain
		d.reason = r.Raw
		d.outcome = OutcomeUnparsed
	default:
		d.code = eccn.Abstain
		d.reason = raw
		d.outcome = OutcomeUnparsed
	}
	return d
}

// PredictedCode returns the chosen code or the abstain sentinel.
// The code is whatever the model said; it is not checked against the candidates.
func (d Decision) PredictedCode() string { return d.code }

// Reason returns the justification shown to the caller.
func (d Decision) Reason() string { return d.reason }

// RawOutput returns the unmodified model response, empty when the model was not called.
func (d Decision) RawOutput() string { return d.raw }

// Candidates returns the retrieved candidate codes in rank order.
func (d Decision) Candidates() []string { return slices.Clone(d.candidates) }

// Outcome returns how the decision was reached.
func (d Decision) Outcome() Outcome { return d.outcome }

// Abstained reports whether the predicted code is the abstain sentinel.
func (d Decision) Abstained() bool { return d.code == eccn.Abstain }

// ModelInvoked reports whether the generative model was called for this decision.
func (d Decision) ModelInvoked() bool { return d.outcome != OutcomeNoCandidates }

// InCandidates reports whether the predicted code is one of the retrieved candidates.
func (d Decision) InCandidates() bool { return eccn.Contains(d.candidates, d.code) }
