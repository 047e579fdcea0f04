package evaluation

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/eccn"
)

func TestSummarize_AbstainRate(t *testing.T) {
	records := make([]Record, 0, 10)
	for i := 0; i < 4; i++ {
		d := decision.FromResponse(decision.Parsed{Code: eccn.Abstain}, "raw", []string{"1A001"})
		records = append(records, NewRecord(Sample{TrueCode: "1A001"}, d))
	}
	for i := 0; i < 6; i++ {
		records = append(records, NewRecord(Sample{TrueCode: "1A001"}, decided("1A001", "1A001")))
	}

	s := Summarize(records, 5)
	if s.Samples != 10 || s.K != 5 {
		t.Errorf("Samples=%d K=%d", s.Samples, s.K)
	}
	if s.AbstainRate != 0.4 {
		t.Errorf("AbstainRate = %v, want 0.4", s.AbstainRate)
	}
	if s.ExactMatch != 0.6 {
		t.Errorf("ExactMatch = %v, want 0.6", s.ExactMatch)
	}
	if s.RecallAtK != 1 {
		t.Errorf("RecallAtK = %v, want 1", s.RecallAtK)
	}
}

func TestSummarize_CountsFailures(t *testing.T) {
	raw := "garbage"
	records := []Record{
		NewRecord(Sample{TrueCode: "1A001"}, decision.FromResponse(decision.Unparsed{Raw: raw}, raw, nil)),
		NewFailedRecord(Sample{TrueCode: "1A001"}, nil, errors.New("boom")),
		NewRecord(Sample{TrueCode: "1A001.a"}, decided("1A001.b", "1A001.b")),
		NewRecord(Sample{TrueCode: "1A001"}, decided("1A001", "1A001")),
	}

	s := Summarize(records, 3)
	if s.ParseFailures != 1 || s.Errors != 1 {
		t.Errorf("ParseFailures=%d Errors=%d", s.ParseFailures, s.Errors)
	}
	if s.ParentMatch != 0.5 {
		t.Errorf("ParentMatch = %v, want 0.5", s.ParentMatch)
	}
	if s.ExactMatch != 0.25 {
		t.Errorf("ExactMatch = %v, want 0.25", s.ExactMatch)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 5)
	if s.Samples != 0 || s.ExactMatch != 0 || s.AbstainRate != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}
