// Package eccn holds export-control classification number helpers and sentinels.
package eccn

import "strings"

const (
	// Abstain is the sentinel for "no confident classification".
	Abstain = "INSUFFICIENT_INFORMATION"
	// ParseError is the evaluation-only sentinel for a model response that could not be understood.
	ParseError = "PARSE_ERROR"
)

// Parent returns the part of code before its first dot. A code without a dot is its own parent.
func Parent(code string) string {
	parent, _, _ := strings.Cut(code, ".")
	return parent
}

// IsSentinel reports whether code is Abstain or ParseError rather than a real classification.
func IsSentinel(code string) bool {
	return code == Abstain || code == ParseError
}

// Contains reports whether code is one of candidates (exact comparison).
func Contains(candidates []string, code string) bool {
	for _, c := range candidates {
		if c == code {
			return true
		}
	}
	return false
}
