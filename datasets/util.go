package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Noofbiz/vrmotion/features"
)

// ReadOptions controls how a capture CSV is split into numeric features and
// categorical columns.
type ReadOptions struct {
	// LabelColumn holds the gesture or key label; empty when the schema has none.
	LabelColumn string
	// HandColumn holds the typing hand tag; empty when the schema has none.
	HandColumn string
	// Drop lists columns that are neither features nor labels.
	Drop []string
}

// Capture column names.
const (
	TimestampColumn = "timestamp"
	GestureColumn   = "gesture"
	KeyColumn       = "key"
	HandColumn      = "hand"
)

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

// ReadTable reads one capture CSV. Every column that is not a label, hand or
// dropped column must parse as a number.
func ReadTable(path string, opts ReadOptions) (*features.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	name := filepath.Base(path)
	labelIdx, handIdx := -1, -1
	var numeric []int
	var columns []string
	for i, col := range header {
		col = strings.TrimSpace(col)
		switch {
		case opts.LabelColumn != "" && col == opts.LabelColumn:
			labelIdx = i
		case opts.HandColumn != "" && col == opts.HandColumn:
			handIdx = i
		case slices.Contains(opts.Drop, col):
		default:
			numeric = append(numeric, i)
			columns = append(columns, col)
		}
	}
	if opts.LabelColumn != "" && labelIdx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, opts.LabelColumn, name)
	}
	if opts.HandColumn != "" && handIdx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, opts.HandColumn, name)
	}

	t := features.NewTable(name, columns)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d of %s: %w", line, name, err)
		}
		line++
		row := make([]float64, len(numeric))
		for j, c := range numeric {
			v, err := parseFloat(record[c])
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s at row %d of %s: %w", columns[j], line, name, err)
			}
			row[j] = v
		}
		var label, hand string
		if labelIdx >= 0 {
			label = strings.TrimSpace(record[labelIdx])
		}
		if handIdx >= 0 {
			hand = strings.TrimSpace(record[handIdx])
		}
		t.Append(row, label, hand)
	}
	return t, nil
}

// listCSV returns the CSV files of dir in lexical order.
func listCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCSV, dir)
	}
	return out, nil
}

// ReadDir reads every CSV of dir.
func ReadDir(dir string, opts ReadOptions) ([]*features.Table, error) {
	paths, err := listCSV(dir)
	if err != nil {
		return nil, err
	}
	tables := make([]*features.Table, 0, len(paths))
	for _, p := range paths {
		t, err := ReadTable(p, opts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
