package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paces/backend/internal/kg/neo4j"
	"github.com/paces/backend/internal/storage/models"
)

type recordingWriter struct {
	calls        []string
	proteins     []neo4j.Protein
	interactions []neo4j.Interaction
	failOn       string
}

func (w *recordingWriter) Counts(context.Context) (int64, int64, error) {
	if err := w.step("counts"); err != nil {
		return 0, 0, err
	}
	return int64(len(w.proteins)), int64(len(w.interactions)), nil
}

func (w *recordingWriter) step(name string) error {
	w.calls = append(w.calls, name)
	if w.failOn == name {
		return errors.New("neo4j unavailable")
	}
	return nil
}

func (w *recordingWriter) EnsureConstraints(context.Context) error { return w.step("constraints") }

func (w *recordingWriter) MergeProteins(_ context.Context, p []neo4j.Protein) error {
	w.proteins = p
	return w.step("proteins")
}

func (w *recordingWriter) MergeInteractions(_ context.Context, in []neo4j.Interaction) error {
	w.interactions = in
	return w.step("interactions")
}

func edges() []models.InteractionEdge {
	return []models.InteractionEdge{
		{Node1: "Acad10", Node2: "acsA1", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_1056",
			CombinedScore: 0.9, Interaction: "binding", Node1UniProt: models.StringPtr("Q1"), Node1Kegg: models.StringPtr("PA1")},
		{Node1: "Acad10", Node2: "ycgB", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_3555",
			CombinedScore: 0.4, Interaction: "unknown"},
	}
}

func TestBuildGraph(t *testing.T) {
	g := BuildGraph(edges(), []models.ProteinSummary{{UniProtID: "Q1", NumAcSites: 3, ProtLogFC: "negative !NaN in peptide(s)"}}, 0.7)

	require.Len(t, g.Proteins, 2)
	assert.Equal(t, neo4j.Protein{Name: "Acad10", StringID: "287.DR97_5620", UniProtID: "Q1", KeggID: "PA1", FoldChange: "negative", AcSites: 3}, g.Proteins[0])
	assert.Equal(t, "similar", g.Proteins[1].FoldChange)
	assert.Equal(t, []neo4j.Interaction{{Source: "Acad10", Target: "acsA1", Score: 0.9, Interaction: "binding"}}, g.Interactions)
}

func TestExportOrder(t *testing.T) {
	w := &recordingWriter{}
	g := BuildGraph(edges(), nil, 0)

	totals, err := NewBuilder(w).Export(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []string{"constraints", "proteins", "interactions", "counts"}, w.calls)
	assert.Equal(t, Totals{Proteins: 3, Interactions: 2}, totals)
	assert.Len(t, w.proteins, 3)
	assert.Len(t, w.interactions, 2)
}

func TestExportStopsOnError(t *testing.T) {
	w := &recordingWriter{failOn: "proteins"}
	_, err := NewBuilder(w).Export(context.Background(), BuildGraph(edges(), nil, 0))
	require.Error(t, err)
	assert.Equal(t, []string{"constraints", "proteins"}, w.calls)
}

func TestExportFailsWhenCountingFails(t *testing.T) {
	w := &recordingWriter{failOn: "counts"}
	totals, err := NewBuilder(w).Export(context.Background(), BuildGraph(edges(), nil, 0.7))
	require.Error(t, err)
	assert.Equal(t, Totals{}, totals)
	assert.Equal(t, []string{"constraints", "proteins", "interactions", "counts"}, w.calls)
}
