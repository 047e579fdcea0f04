// Package taxonomy models raw rows of the export-control classification list.
package taxonomy

import "strings"

// Entry is one row of the taxonomy corpus as read from disk.
type Entry struct {
	Code        string
	Description string
	Notes       string
	IsLeaf      bool
}

// Text joins description and notes with a newline and trims the result.
// Entries with neither field yield an empty string.
func (e Entry) Text() string {
	return strings.TrimSpace(strings.TrimSpace(e.Description) + "\n" + strings.TrimSpace(e.Notes))
}

// Leaves returns the entries marked as leaf nodes, in input order.
func Leaves(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsLeaf {
			out = append(out, e)
		}
	}
	return out
}
