package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/kegg"
	"github.com/paces/backend/internal/network"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
	"github.com/paces/backend/pkg/config"
	"github.com/paces/backend/pkg/logger"
)

// LoadTSV reads the dashboard inputs from the files the pipeline writes.
func LoadTSV(paths config.PathsConfig) (Sources, error) {
	var src Sources

	t, err := tsv.ReadFile(paths.NodeTable)
	if err != nil {
		return src, err
	}
	if src.Edges, err = network.EdgesFromTable(t); err != nil {
		return src, fmt.Errorf("failed to read %s: %w", paths.NodeTable, err)
	}

	if t, err = tsv.ReadFile(paths.AcetylationPathway); err != nil {
		return src, err
	}
	if src.Acetylation, err = network.AcKeggFromTable(t); err != nil {
		return src, fmt.Errorf("failed to read %s: %w", paths.AcetylationPathway, err)
	}

	if t, err = tsv.ReadFile(paths.StringAnnotations); err != nil {
		return src, err
	}
	if src.Annotations, err = network.ReadAnnotations(t); err != nil {
		return src, fmt.Errorf("failed to read %s: %w", paths.StringAnnotations, err)
	}

	if t, err = tsv.ReadFile(paths.Pathways); err != nil {
		return src, err
	}
	if src.Pathways, err = kegg.FromTable(t); err != nil {
		return src, fmt.Errorf("failed to read %s: %w", paths.Pathways, err)
	}

	logger.Info("Dashboard data loaded from files",
		zap.Int("edges", len(src.Edges)),
		zap.Int("proteins", len(src.Acetylation)),
		zap.Int("annotations", len(src.Annotations)),
		zap.Int("pathways", len(src.Pathways)),
	)
	return src, nil
}

// SourceStore is the read side of the sqlite mirror.
type SourceStore interface {
	GetInteractions(ctx context.Context, minScore float64) ([]models.InteractionEdge, error)
	GetAcetylationPathways(ctx context.Context) ([]models.AcetylationPathway, error)
	GetAnnotations(ctx context.Context) ([]models.ProteinAnnotation, error)
	GetPathways(ctx context.Context) ([]models.PathwayAnnotation, error)
}

// LoadStore reads the dashboard inputs from the sqlite mirror. Only edges scoring at
// least minScore are fetched.
func LoadStore(ctx context.Context, store SourceStore, minScore float64) (Sources, error) {
	var (
		src Sources
		err error
	)

	if src.Edges, err = store.GetInteractions(ctx, minScore); err != nil {
		return src, err
	}
	if src.Acetylation, err = store.GetAcetylationPathways(ctx); err != nil {
		return src, err
	}
	if src.Annotations, err = store.GetAnnotations(ctx); err != nil {
		return src, err
	}
	if src.Pathways, err = store.GetPathways(ctx); err != nil {
		return src, err
	}

	logger.Info("Dashboard data loaded from sqlite",
		zap.Int("edges", len(src.Edges)),
		zap.Int("proteins", len(src.Acetylation)),
		zap.Int("annotations", len(src.Annotations)),
		zap.Int("pathways", len(src.Pathways)),
	)
	return src, nil
}
