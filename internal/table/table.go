// Package table provides the in-memory columnar tables handed over by upstream
// collaborators and decoders that turn them into typed samples.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrissnell/freezecompare/internal/types"
)

// Table is a named set of string cells addressed by column name
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given header
func New(name string, columns ...string) *Table {
	t := &Table{
		Name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
	return t
}

// Append adds one row. The row must have one cell per column.
func (t *Table) Append(cells ...string) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("table %q: row has %d cells, header has %d", t.Name, len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// Columns returns the header in file order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Has reports whether the table carries the column
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require returns a SchemaError naming the first absent column
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return &types.SchemaError{Table: t.Name, Column: c}
		}
	}
	return nil
}

// Value returns the trimmed cell at row for column, or "" if the column is absent
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.rows[row][i])
}

// Load reads a CSV stream whose first record is the header
func Load(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &types.SchemaError{Table: name, Reason: "no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	t := New(name, header...)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read %q line %d: %w", name, line, err)
		}
		if err := t.Append(record...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return t, nil
}

// LoadFile reads a CSV file, naming the table after the file
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	return Load(filepath.Base(path), f)
}
