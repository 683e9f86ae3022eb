package query

import (
	"fmt"
	"sort"
	"strings"
)

// MaxExprLength bounds a filter expression. Longer expressions are malformed.
const MaxExprLength = 2000

// Predicate reports whether a row survives a filter.
type Predicate[T any] func(T) bool

// Compile turns expr into a predicate over rows of s. A blank expression keeps
// every row. An expression that fails to parse, names an unknown column or
// compares a number column with text keeps nothing; the returned error says why.
func Compile[T any](expr string, s *Schema[T]) (Predicate[T], error) {
	if len(expr) > MaxExprLength {
		return none[T], fmt.Errorf("%w: expression longer than %d bytes", ErrMalformedClause, MaxExprLength)
	}
	clauses, err := Parse(expr)
	if err != nil {
		return none[T], err
	}

	preds := make([]Predicate[T], 0, len(clauses))
	for _, c := range clauses {
		p, err := compileClause(c, s)
		if err != nil {
			return none[T], err
		}
		preds = append(preds, p)
	}

	return func(row T) bool {
		for _, p := range preds {
			if !p(row) {
				return false
			}
		}
		return true
	}, nil
}

func none[T any](T) bool { return false }

func compileClause[T any](c Clause, s *Schema[T]) (Predicate[T], error) {
	col, ok := s.Column(c.Column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c.Column)
	}

	if c.Op == OpContains {
		needle := c.Value.Text
		return func(row T) bool {
			if col.DropMissingOnContains && s.anyMissing(row) {
				return false
			}
			v := col.Get(row)
			if v.Missing {
				return false
			}
			if col.Kind == KindNumber {
				return strings.Contains(Format(v, col.Kind), needle)
			}
			return strings.Contains(v.Text, needle)
		}, nil
	}

	if col.Kind == KindNumber && !c.Value.IsNumber {
		return nil, fmt.Errorf("%w: column %s is numeric, got %q", ErrMalformedClause, c.Column, c.Value.Text)
	}

	return func(row T) bool {
		v := col.Get(row)
		if v.Missing {
			return c.Op == OpNE
		}

		var cmp int
		if col.Kind == KindNumber {
			cmp = compareFloat(v.Number, c.Value.Number)
		} else {
			cmp = strings.Compare(v.Text, c.Value.Text)
		}

		switch c.Op {
		case OpEQ:
			return cmp == 0
		case OpNE:
			return cmp != 0
		case OpLT:
			return cmp < 0
		case OpLE:
			return cmp <= 0
		case OpGT:
			return cmp > 0
		case OpGE:
			return cmp >= 0
		}
		return false
	}, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Filter returns the rows matching p, preserving order.
func Filter[T any](rows []T, p Predicate[T]) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortKey is one entry of a multi-column sort, as sent by the table widget.
type SortKey struct {
	Column    string `json:"column_id"`
	Direction string `json:"direction"`
}

// Sort returns a copy of rows stably ordered by keys. Missing values sort last in
// either direction. Keys naming unknown columns are ignored.
func Sort[T any](rows []T, keys []SortKey, s *Schema[T]) []T {
	out := append([]T(nil), rows...)

	cols := make([]Column[T], 0, len(keys))
	desc := make([]bool, 0, len(keys))
	for _, k := range keys {
		if c, ok := s.Column(k.Column); ok {
			cols = append(cols, c)
			desc = append(desc, k.Direction == "desc")
		}
	}
	if len(cols) == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		for n, c := range cols {
			a, b := c.Get(out[i]), c.Get(out[j])
			switch {
			case a.Missing && b.Missing:
				continue
			case a.Missing:
				return false
			case b.Missing:
				return true
			}

			var cmp int
			if c.Kind == KindNumber {
				cmp = compareFloat(a.Number, b.Number)
			} else {
				cmp = strings.Compare(a.Text, b.Text)
			}
			if cmp == 0 {
				continue
			}
			if desc[n] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// Page returns the page-th slice of size rows, counting from zero.
func Page[T any](rows []T, page, size int) []T {
	if size <= 0 {
		return rows
	}
	start := page * size
	if page < 0 || start >= len(rows) {
		return []T{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
