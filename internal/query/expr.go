// Package query implements the table filter expressions and multi-column sorting
// used by the dashboard tables.
//
// An expression is a list of clauses joined by " && ". A clause has the form
//
//	{column} <op> <value>
//
// where op is one of ge/>=, le/<=, lt/<, gt/>, ne/!=, eq/= or contains, and value
// is a quoted string (', " or `), a number, or bare text.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedClause = errors.New("malformed filter clause")
	ErrUnknownColumn   = errors.New("unknown column")
)

type Op string

const (
	OpGE       Op = "ge"
	OpLE       Op = "le"
	OpLT       Op = "lt"
	OpGT       Op = "gt"
	OpNE       Op = "ne"
	OpEQ       Op = "eq"
	OpContains Op = "contains"
)

// operators are tried in this order; symbolic forms must precede their prefixes.
var operators = []struct {
	op       Op
	spelling []string
}{
	{OpGE, []string{"ge ", ">="}},
	{OpLE, []string{"le ", "<="}},
	{OpLT, []string{"lt ", "<"}},
	{OpGT, []string{"gt ", ">"}},
	{OpNE, []string{"ne ", "!="}},
	{OpEQ, []string{"eq ", "="}},
	{OpContains, []string{"contains "}},
}

// Operand is the right-hand side of a clause.
type Operand struct {
	Text     string
	Number   float64
	IsNumber bool
}

func (o Operand) String() string {
	if o.IsNumber {
		return strconv.FormatFloat(o.Number, 'f', -1, 64)
	}
	return o.Text
}

type Clause struct {
	Column string
	Op     Op
	Value  Operand
}

// ParseClause parses a single clause.
func ParseClause(s string) (Clause, error) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "{")
	closing := strings.Index(s, "}")
	if open != 0 || closing < 0 {
		return Clause{}, fmt.Errorf("%w: %q", ErrMalformedClause, s)
	}

	c := Clause{Column: s[1:closing]}
	rest := strings.TrimSpace(s[closing+1:]) + " "

	found := false
	for _, o := range operators {
		for _, sp := range o.spelling {
			if strings.HasPrefix(rest, sp) {
				c.Op = o.op
				rest = rest[len(sp):]
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found || c.Column == "" {
		return Clause{}, fmt.Errorf("%w: %q", ErrMalformedClause, s)
	}

	value, err := parseOperand(strings.TrimSpace(rest))
	if err != nil {
		return Clause{}, fmt.Errorf("%w: %q", err, s)
	}
	c.Value = value
	return c, nil
}

func parseOperand(v string) (Operand, error) {
	if v == "" {
		return Operand{}, ErrMalformedClause
	}

	q := v[0]
	if len(v) >= 2 && v[len(v)-1] == q && (q == '\'' || q == '"' || q == '`') {
		inner := v[1 : len(v)-1]
		return Operand{Text: strings.ReplaceAll(inner, `\`+string(q), string(q))}, nil
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return Operand{Number: f, IsNumber: true, Text: v}, nil
	}
	return Operand{Text: v}, nil
}

// Parse splits expr on " && " and parses every non-blank clause.
func Parse(expr string) ([]Clause, error) {
	var clauses []Clause
	for _, part := range strings.Split(expr, " && ") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseClause(part)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}
