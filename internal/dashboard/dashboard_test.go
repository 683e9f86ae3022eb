package dashboard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paces/backend/internal/query"
	"github.com/paces/backend/internal/storage/models"
)

var p = models.StringPtr

func fixture() Sources {
	return Sources{
		Edges: []models.InteractionEdge{
			{Node1: "Acad10", Node2: "acsA1", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_1056",
				CombinedScore: 0.9, Interaction: "binding", Node1UniProt: p("Q1"), Node2UniProt: p("Q2"), Node1Kegg: p("PA1")},
			{Node1: "Acad10", Node2: "DR97_149", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_149",
				CombinedScore: 0.8114, Interaction: "binding, reaction", Node1UniProt: p("Q1"), Node2UniProt: p("Q3"), Node1Kegg: p("PA1"), Node2Kegg: p("PA3")},
			{Node1: "ycgB", Node2: "ygaU", Node1StringID: "287.DR97_3555", Node2StringID: "287.DR97_2546",
				CombinedScore: 0.75, Interaction: models.UnknownMode},
			{Node1: "weak", Node2: "acsA1", Node1StringID: "287.DR97_1", Node2StringID: "287.DR97_1056",
				CombinedScore: 0.5, Interaction: "binding", Node2UniProt: p("Q2")},
		},
		Acetylation: []models.AcetylationPathway{
			{ProteinSummary: models.ProteinSummary{UniProtID: "Q1", GeneName: "acad10", NumAcSites: 2, ProtLogFC: "positive"},
				KeggID: p("PA1"), KeggPathways: p("pae00010:glycolysis // pae00620:pyruvate metabolism")},
			{ProteinSummary: models.ProteinSummary{UniProtID: "Q2", GeneName: "acsA", NumAcSites: 1, ProtLogFC: "negative !NaN in peptide(s)"},
				KeggID: p("NA"), KeggPathways: p(models.NoKeggIDGiven)},
			{ProteinSummary: models.ProteinSummary{UniProtID: "Q3", NumAcSites: 1, ProtLogFC: "depends on peptide"}},
		},
		Annotations: []models.ProteinAnnotation{
			{Node: "Acad10", Identifier: "287.DR97_5620", Annotation: "Acyl-CoA dehydrogenase"},
			{Node: "acsA1", Identifier: "287.DR97_1056", Annotation: "Acetyl-CoA synthetase"},
			{Node: "DR97_149", Identifier: "287.DR97_149", Annotation: models.NoAnnotation},
			{Node: "ycgB", Identifier: "287.DR97_3555", Annotation: "YcgB protein"},
			{Node: "ygaU", Identifier: "287.DR97_2546", Annotation: models.NoAnnotation},
		},
		Pathways: []models.PathwayAnnotation{
			{UniProtID: "Q1", KeggID: "PA1", KeggPathways: "pae00010:glycolysis // pae00620:pyruvate metabolism"},
			{UniProtID: "Q2", KeggID: "NA", KeggPathways: models.NoKeggIDGiven},
		},
	}
}

func testDataset() *Dataset {
	return NewDataset(fixture(), 0.7)
}

func nodeIDs(el Elements) []string {
	var out []string
	for _, n := range el.Nodes {
		out = append(out, n.Data.ID)
	}
	return out
}

func edgeIDs(el Elements) []string {
	var out []string
	for _, e := range el.Edges {
		out = append(out, e.Data.ID)
	}
	return out
}

func TestClassifyFoldChange(t *testing.T) {
	assert.Equal(t, FoldChangePositive, ClassifyFoldChange("positive"))
	assert.Equal(t, FoldChangeNegative, ClassifyFoldChange("negative !NaN in peptide(s)"))
	assert.Equal(t, FoldChangeSimilar, ClassifyFoldChange("depends on peptide"))
	assert.Equal(t, FoldChangeSimilar, ClassifyFoldChange(""))
}

func TestDatasetAppliesScoreCutoff(t *testing.T) {
	d := testDataset()
	assert.Len(t, d.Edges(), 3)
	_, ok := d.Node("weak")
	assert.False(t, ok)
}

func TestBuildElementsFull(t *testing.T) {
	d := testDataset()
	el := d.BuildElements(d.Edges(), false)

	assert.Equal(t, []string{"Acad10", "acsA1", "DR97_149", "ycgB", "ygaU"}, nodeIDs(el))
	assert.Equal(t, []string{"Acad10acsA1", "Acad10DR97_149", "ycgBygaU"}, edgeIDs(el))
	assert.Equal(t, 5, NodeCount(el))

	assert.Equal(t, FoldChangePositive, el.Nodes[0].Data.LogFC)
	assert.Equal(t, FoldChangeNegative, el.Nodes[1].Data.LogFC)
	assert.Equal(t, FoldChangeSimilar, el.Nodes[2].Data.LogFC)
	assert.Equal(t, FoldChangeNegative, el.Edges[0].Data.TargetLogFC)
	assert.Equal(t, "PA1", *el.Nodes[0].Data.KeggID)
}

func TestBuildElementsAnnotatedOnly(t *testing.T) {
	d := testDataset()
	el := d.BuildElements(d.Edges(), true)

	assert.Equal(t, []string{"Acad10", "acsA1", "ycgB"}, nodeIDs(el))
	assert.Equal(t, []string{"Acad10acsA1"}, edgeIDs(el))
	for _, e := range el.Edges {
		assert.NotEqual(t, "DR97_149", e.Data.Source)
		assert.NotEqual(t, "DR97_149", e.Data.Target)
	}
	assert.Equal(t, 2, NodeCount(el))
}

func TestElementsJSON(t *testing.T) {
	d := testDataset()
	raw, err := json.Marshal(d.BuildElements(d.Edges()[2:], false))
	require.NoError(t, err)

	var list []map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 3)
	assert.Equal(t, "ycgB", list[0]["data"]["source"])
	assert.Equal(t, "ycgB", list[1]["data"]["id"])
	assert.Contains(t, list[1]["data"], "KEGG_ID")
	assert.Nil(t, list[1]["data"]["KEGG_ID"])
}

func TestDetails(t *testing.T) {
	d := testDataset()

	n, _ := d.Node("Acad10")
	det := d.Details(n)
	assert.Equal(t, "Q1", det.UniProtID)
	assert.Equal(t, "https://www.uniprot.org/uniprot/Q1", det.UniProtURL)
	assert.Equal(t, "https://string-db.org/network/287.DR97_5620", det.StringURL)
	assert.Equal(t, "https://www.genome.jp/dbget-bin/www_bget?pae:PA1", det.KeggURL)
	assert.Equal(t, "2", det.AcetylationSites)
	assert.Equal(t, "positive", det.LogFC)
	assert.Equal(t, "Acyl-CoA dehydrogenase", det.Annotation)
	assert.Equal(t, "pae00010:glycolysis<br>pae00620:pyruvate metabolism", det.Pathways)

	n, _ = d.Node("DR97_149")
	det = d.Details(n)
	assert.Equal(t, models.AnnotationMissing, det.Annotation)
	assert.Equal(t, models.NoPath, det.Pathways)
	assert.Equal(t, "1", det.AcetylationSites)

	n, _ = d.Node("ycgB")
	det = d.Details(n)
	assert.Equal(t, "None", det.UniProtID)
	assert.Equal(t, "https://www.uniprot.org/uniprot/None", det.UniProtURL)
	assert.Equal(t, "None", det.KeggID)
	assert.Equal(t, "None", det.AcetylationSites)
	assert.Equal(t, "YcgB protein", det.Annotation)
	assert.Equal(t, models.NoPath, det.Pathways)
}

func TestClassifySearch(t *testing.T) {
	d := testDataset()
	isNode := func(id string) bool { _, ok := d.Node(id); return ok }

	cases := map[string]SearchKind{
		"Acad10":        SearchNodeID,
		"DR97_149":      SearchNodeID,
		"Q9HWX3":        SearchUniProt,
		"A1PA":          SearchUniProt,
		"287.DR97_5620": SearchString,
		"dr97":          SearchString,
		"pa0887":        SearchKegg,
		"xyz":           SearchNone,
		"":              SearchNone,
	}
	for term, want := range cases {
		assert.Equal(t, want, ClassifySearch(term, isNode), term)
	}
	assert.Equal(t, "KEGG_ID", SearchKegg.Field())
}

func TestSelectionStylesheet(t *testing.T) {
	d := testDataset()
	el := d.BuildElements(d.Edges(), false)
	n, _ := d.Node("Acad10")

	rules := SelectionStylesheet(n, Neighbourhood(el, "Acad10"), LabelUniProt, true, DefaultPalette())
	require.Len(t, rules, 7)
	assert.Equal(t, 0.3, rules[0].Style["opacity"])
	assert.Equal(t, `node[id = "Acad10"]`, rules[2].Selector)
	assert.Equal(t, "#7bb526", rules[2].Style["background-color"])
	assert.Equal(t, "data(UniprotID)", rules[2].Style["label"])
	assert.Equal(t, `node[id = "acsA1"][logFC = "negative"]`, rules[3].Selector)
	assert.Equal(t, "#f32c22", rules[3].Style["background-color"])
	assert.Equal(t, `edge[id = "Acad10acsA1"]`, rules[4].Selector)
	assert.Equal(t, "data(interaction)", rules[4].Style["label"])
	assert.Equal(t, 5000, rules[4].Style["z-index"])
}

func TestSearchStylesheet(t *testing.T) {
	rules := SearchStylesheet("PA1", SearchKegg, LabelGeneName, DefaultPalette())
	require.Len(t, rules, 3)
	assert.Equal(t, `node[KEGG_ID = "PA1"]`, rules[2].Selector)
	assert.Equal(t, "#B10DC9", rules[2].Style["background-color"])

	assert.Len(t, SearchStylesheet("xyz", SearchNone, LabelGeneName, DefaultPalette()), 2)
}

func TestLabelModes(t *testing.T) {
	assert.Equal(t, "data(label)", LabelGeneName.Expr())
	assert.Equal(t, "data(stringid)", LabelString.Expr())
	assert.Equal(t, "data(KEGG_ID)", LabelKegg.Expr())
	assert.False(t, LabelMode("nope").Valid())
}

func TestSessionToggleParity(t *testing.T) {
	s := NewSession("s1", testDataset(), DefaultPalette())
	assert.Equal(t, "Show only annotated proteins", s.ToggleLabel())

	el, label := s.ToggleAnnotated()
	assert.Equal(t, "Show all proteins", label)
	assert.Equal(t, []string{"Acad10", "acsA1", "ycgB"}, nodeIDs(el))

	el, label = s.ToggleAnnotated()
	assert.Equal(t, "Show only annotated proteins", label)
	assert.Len(t, el.Nodes, 5)
}

func TestSessionCrossFilter(t *testing.T) {
	d := testDataset()
	s := NewSession("s1", d, DefaultPalette())

	s.SetFilter(TableInteractions, TableState{Filter: "{interaction} contains reaction"})
	require.Len(t, s.Interactions(), 1)
	uniprots := func(rows []models.AcetylationPathway) []string {
		var out []string
		for _, r := range rows {
			out = append(out, r.UniProtID)
		}
		return out
	}
	assert.Equal(t, []string{"Q1", "Q3"}, uniprots(s.Acetylation()))
	assert.Len(t, s.Elements().Edges, 1)

	s.SetFilter(TableAcetylation, TableState{Filter: "{protLogFC} contains negative"})
	assert.Equal(t, []string{"Q2"}, uniprots(s.Acetylation()))
	assert.Empty(t, s.Interactions(), "reaction edge does not touch Q2")

	s.SetFilter(TableAcetylation, TableState{Filter: "{numAcSites} >= 1", Sort: []query.SortKey{{Column: "numAcSites", Direction: "desc"}}})
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, uniprots(s.Acetylation()))
	assert.Len(t, s.Interactions(), 1)
}

func TestSessionMalformedFilterMatchesNothing(t *testing.T) {
	s := NewSession("s1", testDataset(), DefaultPalette())
	s.SetFilter(TableInteractions, TableState{Filter: "{combined_score} = high"})
	assert.Empty(t, s.Interactions())
	assert.Empty(t, s.Acetylation())
	assert.Equal(t, 0, NodeCount(s.Elements()))
}

func TestSessionShowAllRestoresOriginals(t *testing.T) {
	d := testDataset()
	s := NewSession("s1", d, DefaultPalette())

	before, err := json.Marshal(Records(s.Interactions(), InteractionRecord))
	require.NoError(t, err)

	s.SetFilter(TableInteractions, TableState{Filter: "{combined_score} > 0.8", Sort: []query.SortKey{{Column: "node2", Direction: "desc"}}})
	s.SetFilter(TableAcetylation, TableState{Filter: "{uniprotID} = Q1"})
	require.NotEqual(t, d.Edges(), s.Interactions())

	s.ShowAll()
	assert.Equal(t, d.Edges(), s.Interactions())
	assert.Equal(t, d.Acetylation(), s.Acetylation())

	after, err := json.Marshal(Records(s.Interactions(), InteractionRecord))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSessionStylesheet(t *testing.T) {
	s := NewSession("s1", testDataset(), DefaultPalette())

	rules := s.Stylesheet(StyleRequest{Action: StyleLabel, Label: LabelKegg})
	require.Len(t, rules, 4)
	assert.Equal(t, "data(KEGG_ID)", rules[0].Style["label"])

	on := true
	rules = s.Stylesheet(StyleRequest{Action: StyleSelect, NodeID: "acsA1", EdgeLabels: &on})
	require.Len(t, rules, 5)
	assert.Equal(t, "data(KEGG_ID)", rules[2].Style["label"])
	assert.Equal(t, "data(interaction)", rules[4].Style["label"])

	rules = s.Stylesheet(StyleRequest{Action: StyleSearch, Search: "ycgB"})
	require.Len(t, rules, 3)
	assert.Equal(t, `node[id = "ycgB"]`, rules[2].Selector)

	rules = s.Stylesheet(StyleRequest{Action: StyleDefault, NodeID: "acsA1"})
	assert.Len(t, rules, 4)
}

func TestSessionLayout(t *testing.T) {
	s := NewSession("s1", testDataset(), DefaultPalette())
	assert.Equal(t, "grid", s.Layout().Name)

	dir, err := s.SetLayout("cose-bilkent")
	require.NoError(t, err)
	assert.Equal(t, "cose-bilkent", dir.Name)

	_, err = s.SetLayout("spiral")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestExportImage(t *testing.T) {
	dir, err := ExportImage("svg")
	require.NoError(t, err)
	assert.Equal(t, ImageDirective{Type: "svg", Action: "download"}, dir)

	_, err = ExportImage("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(testDataset(), DefaultPalette(), time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())

	now = now.Add(45 * time.Second)
	_, ok := store.Get(a.ID)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.Sweep())

	_, ok = store.Get(b.ID)
	assert.False(t, ok)
	assert.Same(t, a, store.GetOrCreate(a.ID))
	assert.NotSame(t, a, store.GetOrCreate("unknown"))
}
