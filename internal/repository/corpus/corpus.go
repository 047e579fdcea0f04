// Package corpus reads the taxonomy corpus from CSV or parquet files.
//
// Columns are matched by name, case-insensitively. Accepted names:
//
//	code:        code, ecn_number, eccn
//	description: description, description_en
//	notes:       notes
//	is_leaf:     is_leaf
//
// A missing notes column reads as empty notes; a missing is_leaf column marks every row a leaf.
package corpus

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/taxonomy"
)

type field int

const (
	fieldCode field = iota
	fieldDescription
	fieldNotes
	fieldIsLeaf
)

var columnAliases = map[string]field{
	"code":           fieldCode,
	"ecn_number":     fieldCode,
	"eccn":           fieldCode,
	"description":    fieldDescription,
	"description_en": fieldDescription,
	"notes":          fieldNotes,
	"is_leaf":        fieldIsLeaf,
}

// columns maps each field to its column index, -1 when absent.
type columns [4]int

func resolveColumns(names []string) (columns, error) {
	cols := columns{-1, -1, -1, -1}
	for i, name := range names {
		f, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if ok && cols[f] < 0 {
			cols[f] = i
		}
	}
	if cols[fieldCode] < 0 {
		return cols, fmt.Errorf("no code column (code, ecn_number): %w", domain.ErrInvalidCorpus)
	}
	if cols[fieldDescription] < 0 {
		return cols, fmt.Errorf("no description column (description, description_en): %w", domain.ErrInvalidCorpus)
	}
	return cols, nil
}

// Read loads all entries from path. The format is chosen by extension: .parquet or .csv.
func Read(path string) ([]taxonomy.Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ReadParquet(path)
	case ".csv", "":
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q: %w", filepath.Ext(path), domain.ErrInvalidCorpus)
	}
}

// cleanCell trims a cell and maps spreadsheet null markers to empty.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "null", "none":
		return ""
	}
	return s
}

func parseLeaf(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yes", "y":
		return true, nil
	case "no", "n", "":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("is_leaf value %q: %w", s, domain.ErrInvalidCorpus)
	}
	return b, nil
}
