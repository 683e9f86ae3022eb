package acetylation

import (
	"fmt"
	"strconv"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
)

var Columns = []string{"uniprotID", "geneName", "numAcSites", "peptides", "detectCondition", "peptLogFC", "protLogFC"}

func ToTable(summaries []models.ProteinSummary) *tsv.Table {
	t := tsv.NewTable(Columns)
	for _, s := range summaries {
		t.Append([]string{s.UniProtID, s.GeneName, strconv.Itoa(s.NumAcSites), s.Peptides,
			s.DetectCondition, s.PeptLogFC, s.ProtLogFC})
	}
	return t
}

func FromTable(t *tsv.Table) ([]models.ProteinSummary, error) {
	cols, err := t.Cols(Columns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProteinSummary, 0, len(t.Rows))
	for i, row := range t.Rows {
		// numAcSites may have been written as a float ("3.0").
		sites, err := tsv.ParseFloat(row[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("row %d column numAcSites: %w", i+1, err)
		}
		out = append(out, models.ProteinSummary{
			UniProtID:       row[cols[0]],
			GeneName:        row[cols[1]],
			NumAcSites:      int(sites),
			Peptides:        row[cols[3]],
			DetectCondition: row[cols[4]],
			PeptLogFC:       row[cols[5]],
			ProtLogFC:       row[cols[6]],
		})
	}
	return out, nil
}
