package query

import "strconv"

// Format renders a cell for display and for contains matching.
func Format(v Value, kind Kind) string {
	if v.Missing {
		return ""
	}
	if kind == KindNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}
