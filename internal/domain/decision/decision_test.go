package decision

import (
	"testing"

	"github.com/kailas-cloud/eccnrag/internal/domain/eccn"
)

func TestNoCandidates(t *testing.T) {
	d := NoCandidates()
	if d.PredictedCode() != eccn.Abstain {
		t.Errorf("PredictedCode() = %q", d.PredictedCode())
	}
	if d.Reason() != NoCandidatesReason {
		t.Errorf("Reason() = %q", d.Reason())
	}
	if d.ModelInvoked() {
		t.Error("gated decision must not report a model call")
	}
	if d.Candidates() == nil || len(d.Candidates()) != 0 {
		t.Errorf("Candidates() = %#v, want empty non-nil", d.Candidates())
	}
}

func TestFromResponse_Parsed(t *testing.T) {
	raw := "ECCN: 3A001\nReason: matches control text"
	d := FromResponse(Parsed{Code: "3A001", Reason: "matches control text"}, raw, []string{"3A001", "3A002"})

	if d.Outcome() != OutcomeDecided {
		t.Errorf("Outcome() = %q", d.Outcome())
	}
	if d.PredictedCode() != "3A001" || d.Reason() != "matches control text" {
		t.Errorf("got %q / %q", d.PredictedCode(), d.Reason())
	}
	if d.RawOutput() != raw {
		t.Errorf("RawOutput() = %q", d.RawOutput())
	}
	if !d.InCandidates() {
		t.Error("expected code among candidates")
	}
}

func TestFromResponse_ParsedAbstain(t *testing.T) {
	d := FromResponse(Parsed{Code: eccn.Abstain, Reason: "nothing fits"}, "raw", []string{"1A001"})
	if d.Outcome() != OutcomeAbstained || !d.Abstained() {
		t.Errorf("Outcome() = %q, Abstained() = %v", d.Outcome(), d.Abstained())
	}
}

func TestFromResponse_ParsedWithoutReasonKeepsRaw(t *testing.T) {
	raw := "ECCN: 1A001"
	d := FromResponse(Parsed{Code: "1A001"}, raw, []string{"1A001"})
	if d.Reason() != raw {
		t.Errorf("Reason() = %q, want raw text", d.Reason())
	}
}

func TestFromResponse_Unparsed(t *testing.T) {
	raw := "I think it is probably a laser."
	d := FromResponse(Unparsed{Raw: raw}, raw, []string{"6A005"})

	if d.Outcome() != OutcomeUnparsed {
		t.Errorf("Outcome() = %q", d.Outcome())
	}
	if d.PredictedCode() != eccn.Abstain {
		t.Errorf("PredictedCode() = %q", d.PredictedCode())
	}
	if d.Reason() != raw {
		t.Errorf("Reason() = %q, want raw text", d.Reason())
	}
}

func TestFromResponse_NonCandidateCodePassesThrough(t *testing.T) {
	d := FromResponse(Parsed{Code: "9Z999", Reason: "invented"}, "raw", []string{"1A001", "2B002"})
	if d.PredictedCode() != "9Z999" {
		t.Errorf("PredictedCode() = %q, want unvalidated model code", d.PredictedCode())
	}
	if d.InCandidates() {
		t.Error("InCandidates() must be false for a non-candidate code")
	}
}

func TestCandidates_IsACopy(t *testing.T) {
	in := []string{"1A001"}
	d := FromResponse(Parsed{Code: "1A001"}, "raw", in)
	in[0] = "mutated"
	out := d.Candidates()
	out[0] = "mutated too"
	if d.Candidates()[0] != "1A001" {
		t.Error("decision candidates must be immutable")
	}
}
