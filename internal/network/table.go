package network

import (
	"fmt"

	"github.com/paces/backend/internal/acetylation"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
)

var EdgeColumns = []string{
	"node1", "node2", "node1_string_id", "node2_string_id", "combined_score", "interaction",
	"node1_uniprot", "node2_uniprot", "node1_kegg", "node2_kegg",
}

var AcKeggColumns = append(append([]string{}, acetylation.Columns...), "keggID", "keggPathways")

// optional renders a missing cross reference as an empty cell and reads it back as nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return models.StringPtr(s)
}

func EdgesToTable(edges []models.InteractionEdge) *tsv.Table {
	t := tsv.NewTable(EdgeColumns)
	for _, e := range edges {
		t.Append([]string{
			e.Node1, e.Node2, e.Node1StringID, e.Node2StringID, tsv.FormatScore(e.CombinedScore), e.Interaction,
			models.Deref(e.Node1UniProt), models.Deref(e.Node2UniProt), models.Deref(e.Node1Kegg), models.Deref(e.Node2Kegg),
		})
	}
	return t
}

func EdgesFromTable(t *tsv.Table) ([]models.InteractionEdge, error) {
	cols, err := t.Cols(EdgeColumns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.InteractionEdge, 0, len(t.Rows))
	for i, row := range t.Rows {
		score, err := tsv.ParseFloat(row[cols[4]])
		if err != nil {
			return nil, fmt.Errorf("edge row %d: %w", i+1, err)
		}
		out = append(out, models.InteractionEdge{
			Node1:         row[cols[0]],
			Node2:         row[cols[1]],
			Node1StringID: row[cols[2]],
			Node2StringID: row[cols[3]],
			CombinedScore: score,
			Interaction:   row[cols[5]],
			Node1UniProt:  optional(row[cols[6]]),
			Node2UniProt:  optional(row[cols[7]]),
			Node1Kegg:     optional(row[cols[8]]),
			Node2Kegg:     optional(row[cols[9]]),
		})
	}
	return out, nil
}

func AcKeggToTable(rows []models.AcetylationPathway) *tsv.Table {
	summaries := make([]models.ProteinSummary, len(rows))
	for i, r := range rows {
		summaries[i] = r.ProteinSummary
	}

	base := acetylation.ToTable(summaries)
	t := tsv.NewTable(AcKeggColumns)
	for i, r := range rows {
		t.Append(append(base.Rows[i], models.Deref(r.KeggID), models.Deref(r.KeggPathways)))
	}
	return t
}

func AcKeggFromTable(t *tsv.Table) ([]models.AcetylationPathway, error) {
	summaries, err := acetylation.FromTable(t)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("keggID", "keggPathways")
	if err != nil {
		return nil, err
	}

	out := make([]models.AcetylationPathway, len(summaries))
	for i, s := range summaries {
		out[i] = models.AcetylationPathway{
			ProteinSummary: s,
			KeggID:         optional(t.Rows[i][cols[0]]),
			KeggPathways:   optional(t.Rows[i][cols[1]]),
		}
	}
	return out, nil
}
