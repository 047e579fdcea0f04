package decision

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	"github.com/kailas-cloud/eccnrag/internal/domain/eccn"
)

const promptHeader = `You are an export control classification expert.

Your task:
- Choose the MOST appropriate ECCN code for the product.
- You MUST choose from the candidate ECCNs provided below.
- If none clearly match, respond with exactly: ` + eccn.Abstain + `

Rules:
- Do NOT invent ECCN codes.
- Do NOT use outside knowledge.
- Base your decision ONLY on the provided ECCN descriptions.
`

const promptFooter = `Output format (STRICT):
ECCN: <ecn_number or ` + eccn.Abstain + `>
Reason: <1–3 concise sentences>
`

// BuildPrompt renders the constrained decision prompt. Candidates are numbered from 1
// in rank order, each block carrying the code and the entry text.
func BuildPrompt(query string, candidates []document.Document) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\nProduct Description:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate ECCNs:\n")
	for i, c := range candidates {
		b.WriteString("\nCandidate ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\n")
		b.WriteString("ECCN ")
		b.WriteString(c.Code())
		b.WriteString("\n")
		b.WriteString(c.Text())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(promptFooter)
	return b.String()
}
