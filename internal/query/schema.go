package query

import (
	"math"
)

type Kind int

const (
	KindText Kind = iota
	KindNumber
)

// Value is one cell as seen by the filter and sort code.
type Value struct {
	Text    string
	Number  float64
	Missing bool
}

// Column describes one filterable, sortable column of rows of type T.
type Column[T any] struct {
	Name string
	Kind Kind
	Get  func(T) Value
	// DropMissingOnContains removes every row with a missing value in any
	// column before a contains clause on this column is applied.
	DropMissingOnContains bool
}

func TextColumn[T any](name string, get func(T) string) Column[T] {
	return Column[T]{Name: name, Kind: KindText, Get: func(row T) Value {
		return Value{Text: get(row)}
	}}
}

// OptionalTextColumn treats a nil value as missing.
func OptionalTextColumn[T any](name string, get func(T) *string) Column[T] {
	return Column[T]{Name: name, Kind: KindText, Get: func(row T) Value {
		v := get(row)
		if v == nil {
			return Value{Missing: true}
		}
		return Value{Text: *v}
	}}
}

// NumberColumn treats NaN as missing.
func NumberColumn[T any](name string, get func(T) float64) Column[T] {
	return Column[T]{Name: name, Kind: KindNumber, Get: func(row T) Value {
		v := get(row)
		if math.IsNaN(v) {
			return Value{Missing: true}
		}
		return Value{Number: v}
	}}
}

// Rounded wraps a number column so values compare after rounding to places
// decimals.
func Rounded[T any](c Column[T], places int) Column[T] {
	get := c.Get
	scale := math.Pow(10, float64(places))
	c.Get = func(row T) Value {
		v := get(row)
		if !v.Missing {
			v.Number = math.Round(v.Number*scale) / scale
		}
		return v
	}
	return c
}

type Schema[T any] struct {
	columns map[string]Column[T]
	order   []string
}

func NewSchema[T any](cols ...Column[T]) *Schema[T] {
	s := &Schema[T]{columns: make(map[string]Column[T], len(cols))}
	for _, c := range cols {
		s.columns[c.Name] = c
		s.order = append(s.order, c.Name)
	}
	return s
}

func (s *Schema[T]) Column(name string) (Column[T], bool) {
	c, ok := s.columns[name]
	return c, ok
}

// Columns returns column names in declaration order.
func (s *Schema[T]) Columns() []string {
	return append([]string(nil), s.order...)
}

// anyMissing reports whether row has a missing value in any column.
func (s *Schema[T]) anyMissing(row T) bool {
	for _, c := range s.columns {
		if c.Get(row).Missing {
			return true
		}
	}
	return false
}
