package dashboard

import (
	"math"

	"github.com/paces/backend/internal/query"
	"github.com/paces/backend/internal/storage/models"
)

// Table names a dashboard data table.
type Table string

const (
	TableInteractions Table = "interactions"
	TableAcetylation  Table = "acetylation"
)

var InteractionColumns = []string{
	"node1", "node1_uniprot", "node1_kegg", "node2", "node2_uniprot", "node2_kegg", "interaction", "combined_score",
}

var AcetylationColumns = []string{"geneName", "uniprotID", "numAcSites", "peptides", "protLogFC", "keggPathways"}

func keggColumn(name string, get func(models.InteractionEdge) *string) query.Column[models.InteractionEdge] {
	c := query.OptionalTextColumn(name, get)
	c.DropMissingOnContains = true
	return c
}

// blankAsMissing treats an empty cell as a missing value.
func blankAsMissing(get func(models.AcetylationPathway) string) func(models.AcetylationPathway) *string {
	return func(r models.AcetylationPathway) *string {
		if v := get(r); v != "" {
			return &v
		}
		return nil
	}
}

var InteractionSchema = query.NewSchema(
	query.TextColumn("node1", func(e models.InteractionEdge) string { return e.Node1 }),
	query.TextColumn("node2", func(e models.InteractionEdge) string { return e.Node2 }),
	query.TextColumn("node1_string_id", func(e models.InteractionEdge) string { return e.Node1StringID }),
	query.TextColumn("node2_string_id", func(e models.InteractionEdge) string { return e.Node2StringID }),
	query.Rounded(query.NumberColumn("combined_score", func(e models.InteractionEdge) float64 { return e.CombinedScore }), 3),
	query.TextColumn("interaction", func(e models.InteractionEdge) string { return e.Interaction }),
	query.OptionalTextColumn("node1_uniprot", func(e models.InteractionEdge) *string { return e.Node1UniProt }),
	query.OptionalTextColumn("node2_uniprot", func(e models.InteractionEdge) *string { return e.Node2UniProt }),
	keggColumn("node1_kegg", func(e models.InteractionEdge) *string { return e.Node1Kegg }),
	keggColumn("node2_kegg", func(e models.InteractionEdge) *string { return e.Node2Kegg }),
)

var AcetylationSchema = query.NewSchema(
	query.TextColumn("uniprotID", func(r models.AcetylationPathway) string { return r.UniProtID }),
	query.OptionalTextColumn("geneName", blankAsMissing(func(r models.AcetylationPathway) string { return r.GeneName })),
	query.NumberColumn("numAcSites", func(r models.AcetylationPathway) float64 { return float64(r.NumAcSites) }),
	query.TextColumn("peptides", func(r models.AcetylationPathway) string { return r.Peptides }),
	query.TextColumn("detectCondition", func(r models.AcetylationPathway) string { return r.DetectCondition }),
	query.TextColumn("peptLogFC", func(r models.AcetylationPathway) string { return r.PeptLogFC }),
	query.OptionalTextColumn("protLogFC", blankAsMissing(func(r models.AcetylationPathway) string { return r.ProtLogFC })),
	query.OptionalTextColumn("keggID", func(r models.AcetylationPathway) *string { return r.KeggID }),
	query.OptionalTextColumn("keggPathways", func(r models.AcetylationPathway) *string { return r.KeggPathways }),
)

// Record is one table row as sent to the browser. Missing values are null.
type Record map[string]any

func optionalValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func InteractionRecord(e models.InteractionEdge) Record {
	return Record{
		"node1":          e.Node1,
		"node1_uniprot":  optionalValue(e.Node1UniProt),
		"node1_kegg":     optionalValue(e.Node1Kegg),
		"node2":          e.Node2,
		"node2_uniprot":  optionalValue(e.Node2UniProt),
		"node2_kegg":     optionalValue(e.Node2Kegg),
		"interaction":    e.Interaction,
		"combined_score": math.Round(e.CombinedScore*1000) / 1000,
	}
}

func AcetylationRecord(r models.AcetylationPathway) Record {
	return Record{
		"geneName":     r.GeneName,
		"uniprotID":    r.UniProtID,
		"numAcSites":   r.NumAcSites,
		"peptides":     r.Peptides,
		"protLogFC":    r.ProtLogFC,
		"keggPathways": optionalValue(r.KeggPathways),
	}
}

// Records renders rows with fn.
func Records[T any](rows []T, fn func(T) Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}
