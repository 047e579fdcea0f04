package evaluation

import "time"

// Run describes one evaluation run. FinishedAt is zero and Summary empty until the run completes.
type Run struct {
	ID         string
	Dataset    string
	BuildID    string
	Model      string
	K          int
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    Summary
}
