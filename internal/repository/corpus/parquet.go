package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/eccnrag/internal/domain/taxonomy"
)

const rowBatch = 1000

// ReadParquet loads entries from a parquet file.
// It reads generic rows and picks columns by name, so extra columns are ignored.
func ReadParquet(path string) ([]taxonomy.Entry, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	names := make([]string, 0, len(pf.Schema().Columns()))
	for _, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			names = append(names, "")
			continue
		}
		names = append(names, path[0])
	}
	cols, err := resolveColumns(names)
	if err != nil {
		return nil, err
	}

	var entries []taxonomy.Entry
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, rowBatch)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				e, err := rowToEntry(buf[i], cols)
				if err != nil {
					return nil, err
				}
				entries = append(entries, e)
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return entries, nil
}

func rowToEntry(row parquet.Row, cols columns) (taxonomy.Entry, error) {
	e := taxonomy.Entry{IsLeaf: cols[fieldIsLeaf] < 0}
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols[fieldCode]:
			e.Code = cleanCell(v.String())
		case cols[fieldDescription]:
			e.Description = cleanCell(v.String())
		case cols[fieldNotes]:
			e.Notes = cleanCell(v.String())
		case cols[fieldIsLeaf]:
			if v.Kind() == parquet.Boolean {
				e.IsLeaf = v.Boolean()
				continue
			}
			leaf, err := parseLeaf(v.String())
			if err != nil {
				return taxonomy.Entry{}, err
			}
			e.IsLeaf = leaf
		}
	}
	return e, nil
}
