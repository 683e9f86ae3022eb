package network

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
)

func readTable(t *testing.T, text string) *tsv.Table {
	t.Helper()
	table, err := tsv.Read(strings.NewReader(text))
	require.NoError(t, err)
	return table
}

const interactionsTSV = "#node1\tnode2\tnode1_string_id\tnode2_string_id\tneighborhood_on_chromosome\tcombined_score\n" +
	"Acad10\tacsA1\t287.DR97_5620\t287.DR97_1056\t0\t0.671\n" +
	"Acad10\tDR97_149\t287.DR97_5620\t287.DR97_149\t0\t0.811\n" +
	"ycgB\tygaU\t287.DR97_3555\t287.DR97_2546\t0\t0.59\n"

const actionsTSV = "item_id_a\titem_id_b\tmode\taction\tis_directional\ta_is_acting\tscore\n" +
	"287.DR97_5620\t287.DR97_1056\tbinding\t\tf\tf\t671\n" +
	"287.DR97_5620\t287.DR97_149\treaction\t\tf\tf\t811\n" +
	"287.DR97_5620\t287.DR97_149\tbinding\t\tf\tf\t811\n" +
	"287.DR97_5620\t287.DR97_149\tbinding\t\tt\tt\t811\n" +
	"287.DR97_1056\t287.DR97_5620\tcatalysis\t\tf\tf\t671\n"

func merged(t *testing.T) []models.InteractionEdge {
	t.Helper()
	interactions, err := ReadInteractions(readTable(t, interactionsTSV))
	require.NoError(t, err)
	actions, err := ReadActions(readTable(t, actionsTSV))
	require.NoError(t, err)
	return Merge(interactions, actions)
}

func TestMergeCollapsesInteractionTypes(t *testing.T) {
	edges := merged(t)
	require.Len(t, edges, 3)

	assert.Equal(t, "Acad10", edges[0].Node1)
	assert.Equal(t, "DR97_149", edges[0].Node2)
	assert.Equal(t, "binding, reaction", edges[0].Interaction)
	assert.InDelta(t, 0.811, edges[0].CombinedScore, 1e-9)

	assert.Equal(t, "acsA1", edges[1].Node2)
	assert.Equal(t, "binding", edges[1].Interaction, "only the directed pair is joined")

	assert.Equal(t, "ycgB", edges[2].Node1)
	assert.Equal(t, models.UnknownMode, edges[2].Interaction)
}

func TestMergeOneRowPerGroup(t *testing.T) {
	interactions := []RawInteraction{
		{Node1: "a", Node2: "b", Node1StringID: "1", Node2StringID: "2", CombinedScore: 0.9, ScoreText: "0.9"},
		{Node1: "a", Node2: "b", Node1StringID: "1", Node2StringID: "2", CombinedScore: 0.9, ScoreText: "0.9"},
		{Node1: "a", Node2: "b", Node1StringID: "1", Node2StringID: "2", CombinedScore: 0.8, ScoreText: "0.8"},
	}
	actions := []models.InteractionAction{
		{ItemA: "1", ItemB: "2", Mode: "reaction"},
		{ItemA: "1", ItemB: "2", Mode: "binding"},
		{ItemA: "1", ItemB: "2", Mode: "reaction"},
	}

	edges := Merge(interactions, actions)
	require.Len(t, edges, 2)
	assert.InDelta(t, 0.8, edges[0].CombinedScore, 1e-9)
	for _, e := range edges {
		assert.Equal(t, "binding, reaction", e.Interaction)
	}
}

func TestCrossRefs(t *testing.T) {
	edges := merged(t)

	mappings, err := ReadMappings(readTable(t, "queryItem\tstringId\tpreferredName\n"+
		"sp|Q9HWX3|ACSA_PSEAE\t287.DR97_5620\tAcad10\n"+
		"tr|Q9I0M6|Q9I0M6_PSEAE\t287.DR97_149\tDR97_149\n"+
		"nobars\t287.DR97_3555\tycgB\n"))
	require.NoError(t, err)

	uniprot := UniProtDict(mappings)
	assert.Equal(t, map[string]string{"287.DR97_5620": "Q9HWX3", "287.DR97_149": "Q9I0M6"}, uniprot)

	kegg := KeggDict([]models.PathwayAnnotation{
		{UniProtID: "Q9HWX3", KeggID: "PA0887"},
		{UniProtID: "Q9I0M6", KeggID: models.KeggIDMissing},
	})
	assert.Equal(t, map[string]string{"Q9HWX3": "PA0887"}, kegg)

	AttachCrossRefs(edges, uniprot, kegg)

	e := edges[0]
	assert.Equal(t, "Q9HWX3", models.Deref(e.Node1UniProt))
	assert.Equal(t, "Q9I0M6", models.Deref(e.Node2UniProt))
	assert.Equal(t, "PA0887", models.Deref(e.Node1Kegg))
	assert.Nil(t, e.Node2Kegg)

	assert.Nil(t, edges[2].Node1UniProt)
	assert.Nil(t, edges[2].Node1Kegg)
}

func TestReadAnnotationsAcceptsHashHeader(t *testing.T) {
	rows, err := ReadAnnotations(readTable(t, "#node\tidentifier\tannotation\nAcad10\t287.DR97_5620\tAcyl-CoA dehydrogenase\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.ProteinAnnotation{{Node: "Acad10", Identifier: "287.DR97_5620", Annotation: "Acyl-CoA dehydrogenase"}}, rows)
}

func TestJoinPathways(t *testing.T) {
	summaries := []models.ProteinSummary{
		{UniProtID: "Q9HWX3", NumAcSites: 2},
		{UniProtID: "P00001", NumAcSites: 1},
	}
	pathways := []models.PathwayAnnotation{
		{UniProtID: "Q9HWX3", KeggID: "PA0887", KeggPathways: "pae00010:glycolysis / gluconeogenesis"},
	}

	rows := JoinPathways(summaries, pathways)
	require.Len(t, rows, 2)
	assert.Equal(t, "PA0887", models.Deref(rows[0].KeggID))
	assert.Equal(t, 2, rows[0].NumAcSites)
	assert.Nil(t, rows[1].KeggID)
	assert.Nil(t, rows[1].KeggPathways)
}

func TestEdgeTableRoundTrip(t *testing.T) {
	edges := merged(t)
	AttachCrossRefs(edges, map[string]string{"287.DR97_5620": "Q9HWX3"}, map[string]string{"Q9HWX3": "PA0887"})

	got, err := EdgesFromTable(EdgesToTable(edges))
	require.NoError(t, err)
	assert.Equal(t, edges, got)
	assert.Equal(t, "0.811", EdgesToTable(edges).Rows[0][4])
}

func TestAcKeggTableRoundTrip(t *testing.T) {
	rows := []models.AcetylationPathway{
		{
			ProteinSummary: models.ProteinSummary{UniProtID: "Q9HWX3", GeneName: "acsA", NumAcSites: 1,
				Peptides: "peptide 1: _AAK(ac)_", DetectCondition: "all peptides: gp13", PeptLogFC: "peptide 1: 1.0", ProtLogFC: "positive"},
			KeggID:       models.StringPtr("PA0887"),
			KeggPathways: models.StringPtr("No pathways"),
		},
		{ProteinSummary: models.ProteinSummary{UniProtID: "P00001", NumAcSites: 3}},
	}

	table := AcKeggToTable(rows)
	assert.Equal(t, AcKeggColumns, table.Header)

	got, err := AcKeggFromTable(table)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
