package decision

import (
	"strings"

	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
)

const (
	codePrefix   = "ECCN:"
	reasonPrefix = "Reason:"
)

// Parse reads a model response line by line. Lines are trimmed; when a prefix occurs
// more than once the last occurrence wins. A response without an "ECCN:" line, or with
// an empty code after it, is Unparsed. Parse never fails.
func Parse(raw string) domdec.ParseResult {
	var code, reason string
	var haveCode bool

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, codePrefix):
			code = strings.TrimSpace(strings.TrimPrefix(line, codePrefix))
			haveCode = true
		case strings.HasPrefix(line, reasonPrefix):
			reason = strings.TrimSpace(strings.TrimPrefix(line, reasonPrefix))
		}
	}

	if !haveCode || code == "" {
		return domdec.Unparsed{Raw: raw}
	}
	return domdec.Parsed{Code: code, Reason: reason}
}
