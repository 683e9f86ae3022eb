package dashboard

import (
	"fmt"
	"strconv"
)

// LabelMode selects the node field shown as label.
type LabelMode string

const (
	LabelGeneName LabelMode = "pref_name"
	LabelString   LabelMode = "StringDB"
	LabelUniProt  LabelMode = "Uniprot"
	LabelKegg     LabelMode = "KEGG ID"
)

var LabelModes = []LabelMode{LabelGeneName, LabelString, LabelUniProt, LabelKegg}

func (m LabelMode) Valid() bool {
	for _, v := range LabelModes {
		if m == v {
			return true
		}
	}
	return false
}

// Expr is the cytoscape mapper for the label.
func (m LabelMode) Expr() string {
	switch m {
	case LabelString:
		return "data(stringid)"
	case LabelUniProt:
		return "data(UniprotID)"
	case LabelKegg:
		return "data(KEGG_ID)"
	}
	return "data(label)"
}

type Palette struct {
	Neutral      string
	Positive     string
	Negative     string
	SelectedEdge string
	Search       string
}

func DefaultPalette() Palette {
	return Palette{
		Neutral:      "#6c6f74",
		Positive:     "#7bb526",
		Negative:     "#f32c22",
		SelectedEdge: "#3c6975",
		Search:       "#B10DC9",
	}
}

func (p Palette) color(fc FoldChange) string {
	switch fc {
	case FoldChangePositive:
		return p.Positive
	case FoldChangeNegative:
		return p.Negative
	}
	return p.Neutral
}

type Style map[string]any

// Rule is one cytoscape stylesheet entry.
type Rule struct {
	Selector string `json:"selector"`
	Style    Style  `json:"style"`
}

// DefaultStylesheet colors every node by its fold change class.
func DefaultStylesheet(label LabelMode, p Palette) []Rule {
	return []Rule{
		{Selector: "node", Style: Style{"opacity": 1, "label": label.Expr(), "background-color": p.Neutral, "color": "#000000"}},
		{Selector: `[logFC = "positive"]`, Style: Style{"opacity": 1, "label": label.Expr(), "background-color": p.Positive}},
		{Selector: `[logFC = "negative"]`, Style: Style{"opacity": 1, "label": label.Expr(), "background-color": p.Negative}},
		{Selector: "edge", Style: Style{"line-color": "#C5D3E2", "curve-style": "haystack"}},
	}
}

// fadedStylesheet dims everything; highlights are appended to it.
func fadedStylesheet() []Rule {
	return []Rule{
		{Selector: "node", Style: Style{"opacity": 0.3}},
		{Selector: "edge", Style: Style{"opacity": 0.2, "curve-style": "bezier"}},
	}
}

// SearchStylesheet highlights nodes whose kind field equals term. An unclassified
// term leaves only the faded base.
func SearchStylesheet(term string, kind SearchKind, label LabelMode, p Palette) []Rule {
	rules := fadedStylesheet()
	if kind == SearchNone {
		return rules
	}
	return append(rules, Rule{
		Selector: fmt.Sprintf("node[%s = %s]", kind.Field(), strconv.Quote(term)),
		Style: Style{
			"background-color": p.Search,
			"border-color":     "purple",
			"border-width":     2,
			"border-opacity":   1,
			"opacity":          1,
			"label":            label.Expr(),
			"text-opacity":     1,
			"z-index":          9999,
		},
	})
}

// SelectionStylesheet highlights node, its direct neighbours and the edges
// between them. edges are the rendered edges touching node.
func SelectionStylesheet(node NodeData, edges []EdgeData, label LabelMode, edgeLabels bool, p Palette) []Rule {
	edgeLabel := ""
	if edgeLabels {
		edgeLabel = "data(interaction)"
	}

	rules := append(fadedStylesheet(), Rule{
		Selector: fmt.Sprintf("node[id = %s]", strconv.Quote(node.ID)),
		Style: Style{
			"background-color": p.color(node.LogFC),
			"border-color":     "purple",
			"border-width":     2,
			"border-opacity":   1,
			"opacity":          1,
			"label":            label.Expr(),
			"text-opacity":     1,
			"z-index":          9999,
		},
	})

	neighbour := func(id string, fc FoldChange) Rule {
		return Rule{
			Selector: fmt.Sprintf("node[id = %s][logFC = %s]", strconv.Quote(id), strconv.Quote(string(fc))),
			Style: Style{
				"background-color": p.color(fc),
				"opacity":          1,
				"label":            label.Expr(),
				"text-opacity":     1,
				"z-index":          9999,
			},
		}
	}
	edgeRule := func(e EdgeData) Rule {
		return Rule{
			Selector: fmt.Sprintf("edge[id = %s]", strconv.Quote(e.ID)),
			Style: Style{
				"label":         edgeLabel,
				"text-rotation": "autorotate",
				"line-color":    p.SelectedEdge,
				"opacity":       1,
				"z-index":       5000,
			},
		}
	}

	for _, e := range edges {
		if e.Source == node.ID {
			rules = append(rules, neighbour(e.Target, e.TargetLogFC), edgeRule(e))
		}
		if e.Target == node.ID {
			rules = append(rules, neighbour(e.Source, e.SourceLogFC), edgeRule(e))
		}
	}
	return rules
}
