package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/taxonomy"
)

// ReadCSV loads entries from a CSV file with a header row.
func ReadCSV(path string) ([]taxonomy.Entry, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	entries, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// DecodeCSV reads entries from r.
func DecodeCSV(r io.Reader) ([]taxonomy.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty corpus: %w", domain.ErrInvalidCorpus)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var entries []taxonomy.Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, domain.ErrInvalidCorpus, err)
		}

		e := taxonomy.Entry{
			Code:        cleanCell(cell(rec, cols[fieldCode])),
			Description: cleanCell(cell(rec, cols[fieldDescription])),
			Notes:       cleanCell(cell(rec, cols[fieldNotes])),
			IsLeaf:      true,
		}
		if cols[fieldIsLeaf] >= 0 {
			leaf, err := parseLeaf(cell(rec, cols[fieldIsLeaf]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			e.IsLeaf = leaf
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
