package csvstore

import (
	"fmt"
	"strings"
)

// column is one named field of a file. A column with a fallback may be
// absent from older files; every other column is required.
type column struct {
	name     string
	fallback *string
}

func required(name string) column {
	return column{name: name}
}

func optional(name, fallback string) column {
	return column{name: name, fallback: &fallback}
}

// schema is the ordered column set of one file. The order is the one
// written on save; on load columns are looked up by header name.
type schema []column

func (s schema) header() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.name
	}
	return out
}

// sheet is a parsed file whose cells are addressed by column name.
type sheet struct {
	schema schema
	index  map[string]int
	rows   [][]string
}

func newSheet(sc schema, header []string) (*sheet, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var missing []string
	for _, c := range sc {
		if _, ok := index[c.name]; !ok && c.fallback == nil {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return &sheet{schema: sc, index: index}, nil
}

// value returns the cell of column name in rec, the column's fallback when
// the file has no such column, or "" for a short row.
func (s *sheet) value(rec []string, name string) string {
	i, ok := s.index[name]
	if !ok {
		for _, c := range s.schema {
			if c.name == name && c.fallback != nil {
				return *c.fallback
			}
		}
		return ""
	}
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

// each calls fn for every data row. Errors are prefixed with the row's line
// number in the file, the header being line 1.
func (s *sheet) each(fn func(cell func(string) string) error) error {
	for i, rec := range s.rows {
		line := i + 2
		cell := func(name string) string { return s.value(rec, name) }
		if err := fn(cell); err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
	}
	return nil
}
