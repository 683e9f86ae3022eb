// Package builder turns the merged interaction table into the protein graph that
// is exported to Neo4j.
package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/internal/kg/neo4j"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/pkg/logger"
)

// GraphWriter is implemented by neo4j.Client.
type GraphWriter interface {
	EnsureConstraints(ctx context.Context) error
	MergeProteins(ctx context.Context, proteins []neo4j.Protein) error
	MergeInteractions(ctx context.Context, interactions []neo4j.Interaction) error
	Counts(ctx context.Context) (nodes, relationships int64, err error)
}

type Builder struct {
	writer GraphWriter
}

func NewBuilder(writer GraphWriter) *Builder {
	return &Builder{writer: writer}
}

// Graph is the protein network derived from the interaction and acetylation tables.
type Graph struct {
	Proteins     []neo4j.Protein
	Interactions []neo4j.Interaction
}

// BuildGraph collects one protein per distinct node name, in first-seen order, and
// one interaction per edge scoring at least minScore.
func BuildGraph(edges []models.InteractionEdge, acetylation []models.ProteinSummary, minScore float64) Graph {
	sites := make(map[string]int, len(acetylation))
	logFC := make(map[string]string, len(acetylation))
	for _, a := range acetylation {
		sites[a.UniProtID] = a.NumAcSites
		logFC[a.UniProtID] = a.ProtLogFC
	}

	var g Graph
	seen := make(map[string]struct{})
	add := func(name, stringID string, uniprot, kegg *string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}

		id := models.Deref(uniprot)
		g.Proteins = append(g.Proteins, neo4j.Protein{
			Name:       name,
			StringID:   stringID,
			UniProtID:  id,
			KeggID:     models.Deref(kegg),
			FoldChange: string(dashboard.ClassifyFoldChange(logFC[id])),
			AcSites:    sites[id],
		})
	}

	for _, e := range edges {
		if e.CombinedScore < minScore {
			continue
		}
		add(e.Node1, e.Node1StringID, e.Node1UniProt, e.Node1Kegg)
		add(e.Node2, e.Node2StringID, e.Node2UniProt, e.Node2Kegg)
		g.Interactions = append(g.Interactions, neo4j.Interaction{
			Source:      e.Node1,
			Target:      e.Node2,
			Score:       e.CombinedScore,
			Interaction: e.Interaction,
		})
	}
	return g
}

// Totals is what the graph holds after an export, including nodes and
// relationships written by earlier runs.
type Totals struct {
	Proteins     int64
	Interactions int64
}

// Export writes g: constraints first, then proteins, then interactions. It
// returns the graph totals counted afterwards.
func (b *Builder) Export(ctx context.Context, g Graph) (Totals, error) {
	logger.Info("Exporting protein graph",
		zap.Int("proteins", len(g.Proteins)),
		zap.Int("interactions", len(g.Interactions)),
	)

	if err := b.writer.EnsureConstraints(ctx); err != nil {
		return Totals{}, fmt.Errorf("failed to prepare graph: %w", err)
	}
	if err := b.writer.MergeProteins(ctx, g.Proteins); err != nil {
		return Totals{}, err
	}
	if err := b.writer.MergeInteractions(ctx, g.Interactions); err != nil {
		return Totals{}, err
	}

	nodes, rels, err := b.writer.Counts(ctx)
	if err != nil {
		return Totals{}, err
	}

	logger.Info("Protein graph exported",
		zap.Int64("total_proteins", nodes),
		zap.Int64("total_interactions", rels),
	)
	return Totals{Proteins: nodes, Interactions: rels}, nil
}
