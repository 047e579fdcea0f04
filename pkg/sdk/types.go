package eccnrag

import "time"

// Result is one classification.
type Result struct {
	// PredictedECN is a code or "EAR99" when the model abstained or its output could not be parsed.
	PredictedECN string
	Reason       string
	// Candidates are the retrieved codes, nearest first.
	Candidates []string
	// Outcome is one of "decided", "abstained", "no_candidates", "unparsed".
	Outcome string
	// InCandidates reports whether PredictedECN is one of Candidates.
	InCandidates bool
	// RawOutput is the model text, empty when the model was not called.
	RawOutput        string
	EmbeddingTokens  int
	GenerationTokens int
}

// Candidate is one retrieved taxonomy entry.
type Candidate struct {
	Code     string
	Text     string
	Distance float32
}

// IndexInfo describes the loaded index build.
type IndexInfo struct {
	BuildID    string
	Model      string
	Dimensions int
	Documents  int
	BuiltAt    time.Time
}
