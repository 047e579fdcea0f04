package dataset

import "strings"

const rewriteTemplate = `You are helping generate evaluation data.

Rewrite the following product description so that it:
- Is shorter and simpler
- Sounds like a real user or product listing
- Keeps the original meaning
- Does NOT mention regulations, ECCN codes, or compliance language

ONLY output the rewritten description.
Do NOT explain anything.

Original description:
"{description}"
`

// BuildRewritePrompt asks the model to turn a control-list description into a product listing.
func BuildRewritePrompt(description string) string {
	return strings.Replace(rewriteTemplate, "{description}", description, 1)
}
