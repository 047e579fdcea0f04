package evaluation

// Summary aggregates records. Rates are means over all rows, failed rows included.
type Summary struct {
	Samples       int
	K             int
	ExactMatch    float64
	ParentMatch   float64
	RecallAtK     float64
	AbstainRate   float64
	ParseFailures int
	Errors        int
}

// Summarize computes the mean of each boolean column. An empty input yields zero rates.
func Summarize(records []Record, k int) Summary {
	s := Summary{Samples: len(records), K: k}
	if len(records) == 0 {
		return s
	}

	var exact, parent, recall, abstained int
	for _, r := range records {
		if r.exactMatch {
			exact++
		}
		if r.parentMatch {
			parent++
		}
		if r.recallAtK {
			recall++
		}
		if r.abstained {
			abstained++
		}
		switch r.outcome {
		case OutcomeParseFailure:
			s.ParseFailures++
		case OutcomeError:
			s.Errors++
		}
	}

	n := float64(len(records))
	s.ExactMatch = float64(exact) / n
	s.ParentMatch = float64(parent) / n
	s.RecallAtK = float64(recall) / n
	s.AbstainRate = float64(abstained) / n
	return s
}
