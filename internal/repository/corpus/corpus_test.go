package corpus

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

func TestDecodeCSV_OriginalHeaders(t *testing.T) {
	in := "ecn_number,description_en,notes,is_leaf\n" +
		"0A504.b,Optical sighting devices,,True\n" +
		"0A504,Optical sights,Parent category,False\n" +
		"3A001.a,\"Electronic components, integrated circuits\",nan,True\n"

	entries, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	tests := []struct {
		code, desc, notes string
		leaf              bool
	}{
		{"0A504.b", "Optical sighting devices", "", true},
		{"0A504", "Optical sights", "Parent category", false},
		{"3A001.a", "Electronic components, integrated circuits", "", true},
	}
	for i, tt := range tests {
		e := entries[i]
		if e.Code != tt.code || e.Description != tt.desc || e.Notes != tt.notes || e.IsLeaf != tt.leaf {
			t.Errorf("entry %d = %+v, want %+v", i, e, tt)
		}
	}
}

func TestDecodeCSV_CanonicalHeadersAndBOM(t *testing.T) {
	in := "\ufeffCode,Description,Notes,IS_LEAF\n5A002,Information security,See note 3,1\n"
	entries, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(entries) != 1 || entries[0].Code != "5A002" || !entries[0].IsLeaf {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestDecodeCSV_NoLeafColumnMeansLeaf(t *testing.T) {
	entries, err := DecodeCSV(strings.NewReader("code,description\n1A001,Seals\n"))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if !entries[0].IsLeaf {
		t.Error("rows must default to leaf when is_leaf is absent")
	}
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no code column", "description,notes\nx,y\n"},
		{"no description column", "code,notes\nx,y\n"},
		{"bad is_leaf", "code,description,is_leaf\n1A001,Seals,maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(tt.in))
			if !errors.Is(err, domain.ErrInvalidCorpus) {
				t.Errorf("expected ErrInvalidCorpus, got %v", err)
			}
		})
	}
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read("corpus.xlsx")
	if !errors.Is(err, domain.ErrInvalidCorpus) {
		t.Fatalf("expected ErrInvalidCorpus, got %v", err)
	}
}

type parquetRow struct {
	ECNNumber     string `parquet:"ecn_number"`
	DescriptionEN string `parquet:"description_en"`
	Notes         string `parquet:"notes,optional"`
	IsLeaf        bool   `parquet:"is_leaf"`
	Extra         int64  `parquet:"extra"`
}

func TestReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eccn.parquet")
	rows := []parquetRow{
		{ECNNumber: "1A001", DescriptionEN: "Components made from fluorinated compounds", Notes: "Seals", IsLeaf: true, Extra: 7},
		{ECNNumber: "1A", DescriptionEN: "Materials", IsLeaf: false},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.Code != "1A001" || e.Notes != "Seals" || !e.IsLeaf {
		t.Errorf("entry 0 = %+v", e)
	}
	if e := entries[1]; e.Code != "1A" || e.IsLeaf {
		t.Errorf("entry 1 = %+v", e)
	}
}
