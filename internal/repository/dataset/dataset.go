// Package dataset reads and writes the CSV files of the evaluation workflow:
// labeled samples in, scored results out, and generated samples.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
)

// Column names.
const (
	ColQuery             = "query_text"
	ColTrueCode          = "true_ecn"
	ColSourceDescription = "source_ecn_description"
)

// ResultColumns is the header of the results file.
var ResultColumns = []string{
	ColQuery, ColTrueCode, "predicted_ecn", "exact_match", "parent_match",
	"recall_at_k", "abstained", "llm_output", "outcome", "in_candidates", "error",
}

// GeneratedColumns is the header of a generated dataset.
var GeneratedColumns = []string{ColQuery, ColTrueCode, ColSourceDescription}

// ReadSamples loads labeled samples from a CSV file.
func ReadSamples(path string) ([]evaluation.Sample, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return DecodeSamples(f)
}

// DecodeSamples reads samples from r. The header must contain query_text and true_ecn;
// other columns are ignored. Values are trimmed; blank rows are kept and fail later per row.
func DecodeSamples(r io.Reader) ([]evaluation.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty dataset: %w", domain.ErrInvalidDataset)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	qi, ti := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColQuery:
			qi = i
		case ColTrueCode:
			ti = i
		}
	}
	if qi < 0 || ti < 0 {
		return nil, fmt.Errorf("header needs %s and %s: %w", ColQuery, ColTrueCode, domain.ErrInvalidDataset)
	}

	var samples []evaluation.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, domain.ErrInvalidDataset, err)
		}
		samples = append(samples, evaluation.Sample{
			Query:    strings.TrimSpace(field(rec, qi)),
			TrueCode: strings.TrimSpace(field(rec, ti)),
		})
	}
	return samples, nil
}

// WriteResults writes scored records to path.
func WriteResults(path string, records []evaluation.Record) error {
	return writeFile(path, func(w io.Writer) error { return EncodeResults(w, records) })
}

// EncodeResults writes the header and one row per record.
func EncodeResults(w io.Writer, records []evaluation.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		s := r.Sample()
		row := []string{
			s.Query,
			s.TrueCode,
			r.PredictedCode(),
			strconv.FormatBool(r.ExactMatch()),
			strconv.FormatBool(r.ParentMatch()),
			strconv.FormatBool(r.RecallAtK()),
			strconv.FormatBool(r.Abstained()),
			r.RawOutput(),
			string(r.Outcome()),
			strconv.FormatBool(r.InCandidates()),
			r.Error(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error() //nolint:wrapcheck // flush error is self-describing
}

// WriteGenerated writes a generated dataset to path.
func WriteGenerated(path string, rows []evaluation.Generated) error {
	return writeFile(path, func(w io.Writer) error { return EncodeGenerated(w, rows) })
}

// EncodeGenerated writes the header and one row per generated sample.
func EncodeGenerated(w io.Writer, rows []evaluation.Generated) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GeneratedColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range rows {
		if err := cw.Write([]string{g.Query, g.TrueCode, g.SourceDescription}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error() //nolint:wrapcheck // flush error is self-describing
}

func writeFile(path string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
