package kegg

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
	"github.com/paces/backend/pkg/logger"
)

// Annotate produces one pathway row per accession, in input order.
func (c *Client) Annotate(ctx context.Context, uniprotIDs []string) ([]models.PathwayAnnotation, error) {
	out := make([]models.PathwayAnnotation, 0, len(uniprotIDs))

	for _, id := range uniprotIDs {
		keggID, err := c.ConvertUniProt(ctx, id)
		if err != nil {
			return out, fmt.Errorf("failed to convert %s: %w", id, err)
		}

		row := models.PathwayAnnotation{UniProtID: id, KeggID: keggID}
		if keggID == models.KeggIDMissing {
			row.KeggPathways = models.NoKeggIDGiven
			out = append(out, row)
			continue
		}

		paths, err := c.Pathways(ctx, keggID)
		if err != nil {
			return out, fmt.Errorf("failed to fetch pathways of %s: %w", keggID, err)
		}
		if len(paths) == 0 {
			row.KeggPathways = models.NoPathways
		} else {
			row.KeggPathways = FormatPathways(paths)
		}
		out = append(out, row)
	}

	logger.Info("Pathway annotation finished", zap.Int("proteins", len(out)))
	return out, nil
}

var Columns = []string{"uniprotID", "keggID", "keggPathways"}

func ToTable(rows []models.PathwayAnnotation) *tsv.Table {
	t := tsv.NewTable(Columns)
	for _, r := range rows {
		t.Append([]string{r.UniProtID, r.KeggID, r.KeggPathways})
	}
	return t
}

// FromTable reads pathways.tsv. A leading unnamed index column is ignored.
func FromTable(t *tsv.Table) ([]models.PathwayAnnotation, error) {
	cols, err := t.Cols(Columns...)
	if err != nil {
		return nil, err
	}

	out := make([]models.PathwayAnnotation, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.PathwayAnnotation{
			UniProtID:    row[cols[0]],
			KeggID:       row[cols[1]],
			KeggPathways: row[cols[2]],
		})
	}
	return out, nil
}
