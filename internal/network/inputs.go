// Package network merges the STRING interaction export with interaction types and
// identifier cross references, and joins pathway data onto the acetylation table.
package network

import (
	"fmt"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
)

// RawInteraction is one row of the STRING interaction export before merging.
type RawInteraction struct {
	Node1         string
	Node2         string
	Node1StringID string
	Node2StringID string
	CombinedScore float64
	// ScoreText keeps the score as written so grouping does not depend on float
	// formatting.
	ScoreText string
}

// ReadInteractions parses string_interactions.tsv. Evidence channel columns are ignored.
func ReadInteractions(t *tsv.Table) ([]RawInteraction, error) {
	n1, err := t.Col("node1", "#node1")
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("node2", "node1_string_id", "node2_string_id", "combined_score")
	if err != nil {
		return nil, err
	}

	out := make([]RawInteraction, 0, len(t.Rows))
	for i, row := range t.Rows {
		score, err := tsv.ParseFloat(row[cols[3]])
		if err != nil {
			return nil, fmt.Errorf("interaction row %d: %w", i+1, err)
		}
		out = append(out, RawInteraction{
			Node1:         row[n1],
			Node2:         row[cols[0]],
			Node1StringID: row[cols[1]],
			Node2StringID: row[cols[2]],
			CombinedScore: score,
			ScoreText:     row[cols[3]],
		})
	}
	return out, nil
}

// ReadActions parses the STRING protein actions reference table.
func ReadActions(t *tsv.Table) ([]models.InteractionAction, error) {
	cols, err := t.Cols("item_id_a", "item_id_b", "mode")
	if err != nil {
		return nil, err
	}

	out := make([]models.InteractionAction, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.InteractionAction{ItemA: row[cols[0]], ItemB: row[cols[1]], Mode: row[cols[2]]})
	}
	return out, nil
}

// ReadMappings parses string_mapping.tsv.
func ReadMappings(t *tsv.Table) ([]models.IdentifierMapping, error) {
	q, err := t.Col("queryItem")
	if err != nil {
		return nil, err
	}
	s, err := t.Col("stringId")
	if err != nil {
		return nil, err
	}

	out := make([]models.IdentifierMapping, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.IdentifierMapping{QueryItem: row[q], StringID: row[s]})
	}
	return out, nil
}

// ReadAnnotations parses string_protein_annotations.tsv.
func ReadAnnotations(t *tsv.Table) ([]models.ProteinAnnotation, error) {
	node, err := t.Col("node", "#node")
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("identifier", "annotation")
	if err != nil {
		return nil, err
	}

	out := make([]models.ProteinAnnotation, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.ProteinAnnotation{Node: row[node], Identifier: row[cols[0]], Annotation: row[cols[1]]})
	}
	return out, nil
}
