package dashboard

import (
	"strings"
	"unicode"
)

// SearchKind says which node field a search term is matched against.
type SearchKind int

const (
	SearchNone SearchKind = iota
	SearchNodeID
	SearchUniProt
	SearchString
	SearchKegg
)

// Field is the node data field the kind selects on.
func (k SearchKind) Field() string {
	switch k {
	case SearchNodeID:
		return "id"
	case SearchUniProt:
		return "UniprotID"
	case SearchString:
		return "stringid"
	case SearchKegg:
		return "KEGG_ID"
	}
	return ""
}

func (k SearchKind) String() string {
	if k == SearchNone {
		return "none"
	}
	return k.Field()
}

// ClassifySearch guesses what kind of identifier term is. In order: a known node
// id, a letter followed by a digit (UniProt accession), anything containing "DR"
// (STRING id), anything containing "PA" (KEGG gene). Substring checks ignore case.
func ClassifySearch(term string, isNode func(string) bool) SearchKind {
	if term == "" {
		return SearchNone
	}
	if isNode != nil && isNode(term) {
		return SearchNodeID
	}

	r := []rune(term)
	if len(r) >= 2 && unicode.IsLetter(r[0]) && unicode.IsDigit(r[1]) {
		return SearchUniProt
	}

	upper := strings.ToUpper(term)
	switch {
	case strings.Contains(upper, "DR"):
		return SearchString
	case strings.Contains(upper, "PA"):
		return SearchKegg
	}
	return SearchNone
}
