package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paces/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "paces.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestInteractionsRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	edges := []models.InteractionEdge{
		{Node1: "Acad10", Node2: "acsA1", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_1056",
			CombinedScore: 0.9, Interaction: "binding", Node1UniProt: models.StringPtr("Q9HWX3"), Node1Kegg: models.StringPtr("PA0887")},
		{Node1: "ycgB", Node2: "ygaU", Node1StringID: "287.DR97_3555", Node2StringID: "287.DR97_2546",
			CombinedScore: 0.59, Interaction: "unknown"},
	}
	require.NoError(t, c.ReplaceInteractions(ctx, edges))

	got, err := c.GetInteractions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, edges, got)

	got, err = c.GetInteractions(ctx, 0.7)
	require.NoError(t, err)
	assert.Equal(t, edges[:1], got)

	require.NoError(t, c.ReplaceInteractions(ctx, edges[1:]))
	got, err = c.GetInteractions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1, "replace drops the previous rows")
}

func TestPeptidesKeepNaN(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	peptides := []models.Peptide{
		{Protein: "Q9HWX3", Description: "GN=acsA PE=3", ModifiedSequence: "_AAK(ac)_", IntensityL: 0, IntensityH: 5,
			Ratio: math.NaN(), PEP: 0.01, Condition: models.ConditionGp13, LogFoldChange: math.NaN()},
	}
	require.NoError(t, c.ReplacePeptides(ctx, peptides))

	got, err := c.GetPeptides(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].Ratio))
	assert.True(t, math.IsNaN(got[0].LogFoldChange))
	assert.Equal(t, 5.0, got[0].IntensityH)
	assert.Equal(t, models.ConditionGp13, got[0].Condition)
}

func TestAcetylationPathwaysRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rows := []models.AcetylationPathway{
		{ProteinSummary: models.ProteinSummary{UniProtID: "Q9HWX3", GeneName: "acsA", NumAcSites: 2, ProtLogFC: "positive"},
			KeggID: models.StringPtr("PA0887"), KeggPathways: models.StringPtr("No pathways")},
		{ProteinSummary: models.ProteinSummary{UniProtID: "P00001", NumAcSites: 1}},
	}
	require.NoError(t, c.ReplaceAcetylationPathways(ctx, rows))
	require.NoError(t, c.ReplaceAcetylation(ctx, []models.ProteinSummary{rows[0].ProteinSummary}))

	got, err := c.GetAcetylationPathways(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestAnnotationsAndPathways(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	annotations := []models.ProteinAnnotation{{Node: "Acad10", Identifier: "287.DR97_5620", Annotation: "Acyl-CoA dehydrogenase"}}
	pathways := []models.PathwayAnnotation{{UniProtID: "Q9HWX3", KeggID: "PA0887", KeggPathways: "pae00010:glycolysis"}}
	require.NoError(t, c.ReplaceAnnotations(ctx, annotations))
	require.NoError(t, c.ReplacePathways(ctx, pathways))

	gotA, err := c.GetAnnotations(ctx)
	require.NoError(t, err)
	assert.Equal(t, annotations, gotA)

	gotP, err := c.GetPathways(ctx)
	require.NoError(t, err)
	assert.Equal(t, pathways, gotP)
}

func TestStageRuns(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	start := time.UnixMilli(1700000000000)
	for i, stage := range []string{"filter", "aggregate"} {
		require.NoError(t, c.RecordStageRun(ctx, &models.StageRun{
			ID: stage + "-1", RunID: "run-1", Stage: stage, RowsIn: 10, RowsOut: 4 + i, Status: "ok",
			StartedAt: start.Add(time.Duration(i) * time.Second), FinishedAt: start.Add(time.Duration(i+1) * time.Second),
		}))
	}
	require.NoError(t, c.RecordStageRun(ctx, &models.StageRun{ID: "other", RunID: "run-2", Stage: "filter", Status: "failed",
		Error: "boom", StartedAt: start, FinishedAt: start}))

	runs, err := c.GetStageRuns(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "filter", runs[0].Stage)
	assert.Equal(t, 5, runs[1].RowsOut)
	assert.True(t, runs[1].StartedAt.Equal(start.Add(time.Second)))
}
