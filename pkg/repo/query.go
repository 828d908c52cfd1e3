package repo

import (
	"fmt"
	"strings"
)

type SortByField[T comparable] struct {
	Field     T
	Ascending bool
}

type SortBy[T comparable] struct {
	Fields []SortByField[T]
}

// ToSQL renders an ORDER BY clause. Fields missing from mapping are skipped;
// an empty string is returned when nothing is left.
func (s SortBy[T]) ToSQL(mapping map[T]string) string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		column, ok := mapping[f.Field]
		if !ok || column == "" {
			continue
		}
		direction := "DESC"
		if f.Ascending {
			direction = "ASC"
		}
		parts = append(parts, column+" "+direction)
	}
	if len(parts) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// Join concatenates non-empty query fragments with single spaces.
func Join(fragments ...string) string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// FormatLimitOffset renders LIMIT/OFFSET, omitting non-positive values.
func FormatLimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}

// Placeholders tracks positional arguments for dynamically built queries.
type Placeholders struct {
	args []any
}

// Add appends v and returns its "$n" placeholder.
func (p *Placeholders) Add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *Placeholders) Args() []any {
	return p.args
}
