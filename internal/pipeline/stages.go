package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/acetylation"
	"github.com/paces/backend/internal/ingestion"
	"github.com/paces/backend/internal/kegg"
	"github.com/paces/backend/internal/kg/builder"
	"github.com/paces/backend/internal/network"
	"github.com/paces/backend/internal/sequence"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
	"github.com/paces/backend/pkg/logger"
)

var ErrGraphDisabled = errors.New("graph export is not configured")

// Filter keeps the significant, detected peptides of the raw export.
func (r *Runner) Filter(ctx context.Context) error {
	return r.stage(ctx, StageFilter, func() (int, int, error) {
		raw, err := tsv.ReadFile(r.paths.RawInput)
		if err != nil {
			return 0, 0, err
		}

		filtered, err := r.processor.Filter(raw)
		if err != nil {
			return len(raw.Rows), 0, err
		}

		if err := tsv.WriteFile(r.paths.Filtered, filtered); err != nil {
			return len(raw.Rows), 0, err
		}
		return len(raw.Rows), len(filtered.Rows), nil
	})
}

// proteinIDs lists the distinct protein identifiers of the filtered table in
// first-seen order.
func (r *Runner) proteinIDs() ([]string, error) {
	t, err := tsv.ReadFile(r.paths.Filtered)
	if err != nil {
		return nil, err
	}
	col, err := t.Col(ingestion.ColProtein)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		ids[i] = row[col]
	}
	return sequence.UniqueIDs(ids), nil
}

// FetchSequences writes one FASTA record per protein the sequence service knows.
func (r *Runner) FetchSequences(ctx context.Context) error {
	return r.stage(ctx, StageFetchSequences, func() (int, int, error) {
		ids, err := r.proteinIDs()
		if err != nil {
			return 0, 0, err
		}

		if err := os.MkdirAll(filepath.Dir(r.paths.Sequences), 0o755); err != nil {
			return len(ids), 0, fmt.Errorf("failed to create output directory: %w", err)
		}
		fh, err := os.Create(r.paths.Sequences)
		if err != nil {
			return len(ids), 0, fmt.Errorf("failed to create %s: %w", r.paths.Sequences, err)
		}

		res, err := sequence.FetchAll(ctx, r.sequences, ids, fh)
		if closeErr := fh.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", r.paths.Sequences, closeErr)
		}
		if err != nil {
			return len(ids), 0, err
		}

		if len(res.Missing) > 0 {
			logger.Info("Sequences not found", zap.Strings("ids", res.Missing))
		}
		return res.Requested, res.Written, nil
	})
}

// CheckSequences prints the difference between the filtered protein ids and the ids
// found in the FASTA headers.
func (r *Runner) CheckSequences(ctx context.Context) error {
	return r.stage(ctx, StageCheckSequences, func() (int, int, error) {
		ids, err := r.proteinIDs()
		if err != nil {
			return 0, 0, err
		}

		fh, err := os.Open(r.paths.Sequences)
		if err != nil {
			return len(ids), 0, fmt.Errorf("failed to open %s: %w", r.paths.Sequences, err)
		}
		defer fh.Close()

		report, err := sequence.Check(ids, fh)
		if err != nil {
			return len(ids), 0, err
		}
		report.Print(r.stdout)

		logger.Info("Sequence check",
			zap.Int("expected", report.Expected),
			zap.Int("found", report.Found),
			zap.Int("difference", len(report.Difference)),
		)
		return report.Expected, report.Found, nil
	})
}

// AnnotatePathways writes one pathway row per protein identifier.
func (r *Runner) AnnotatePathways(ctx context.Context) error {
	return r.stage(ctx, StageAnnotate, func() (int, int, error) {
		ids, err := r.proteinIDs()
		if err != nil {
			return 0, 0, err
		}

		rows, err := r.pathways.Annotate(ctx, ids)
		if err != nil {
			return len(ids), 0, err
		}

		if err := tsv.WriteFile(r.paths.Pathways, kegg.ToTable(rows)); err != nil {
			return len(ids), 0, err
		}
		if r.mirror != nil {
			if err := r.mirror.ReplacePathways(ctx, rows); err != nil {
				return len(ids), len(rows), err
			}
		}
		return len(ids), len(rows), nil
	})
}

// Aggregate summarises the filtered peptides per protein.
func (r *Runner) Aggregate(ctx context.Context) error {
	return r.stage(ctx, StageAggregate, func() (int, int, error) {
		filtered, err := tsv.ReadFile(r.paths.Filtered)
		if err != nil {
			return 0, 0, err
		}

		peptides, err := r.processor.Peptides(filtered)
		if err != nil {
			return len(filtered.Rows), 0, err
		}
		summaries := acetylation.Aggregate(peptides)

		if err := tsv.WriteFile(r.paths.Acetylation, acetylation.ToTable(summaries)); err != nil {
			return len(peptides), 0, err
		}
		if r.mirror != nil {
			if err := r.mirror.ReplacePeptides(ctx, peptides); err != nil {
				return len(peptides), len(summaries), err
			}
			if err := r.mirror.ReplaceAcetylation(ctx, summaries); err != nil {
				return len(peptides), len(summaries), err
			}
		}
		return len(peptides), len(summaries), nil
	})
}

// MergeNetwork builds the node table and the acetylation table joined with pathways.
func (r *Runner) MergeNetwork(ctx context.Context) error {
	return r.stage(ctx, StageMergeNetwork, func() (int, int, error) {
		in, err := r.readNetworkInputs()
		if err != nil {
			return 0, 0, err
		}

		edges := network.Merge(in.interactions, in.actions)
		network.AttachCrossRefs(edges, network.UniProtDict(in.mappings), network.KeggDict(in.pathways))
		joined := network.JoinPathways(in.summaries, in.pathways)

		if err := tsv.WriteFile(r.paths.NodeTable, network.EdgesToTable(edges)); err != nil {
			return len(in.interactions), 0, err
		}
		if err := tsv.WriteFile(r.paths.AcetylationPathway, network.AcKeggToTable(joined)); err != nil {
			return len(in.interactions), len(edges), err
		}

		if r.mirror != nil {
			if err := r.mirror.ReplaceInteractions(ctx, edges); err != nil {
				return len(in.interactions), len(edges), err
			}
			if err := r.mirror.ReplaceAcetylationPathways(ctx, joined); err != nil {
				return len(in.interactions), len(edges), err
			}
			if in.annotations != nil {
				if err := r.mirror.ReplaceAnnotations(ctx, in.annotations); err != nil {
					return len(in.interactions), len(edges), err
				}
			}
		}
		return len(in.interactions), len(edges), nil
	})
}

type networkInputs struct {
	interactions []network.RawInteraction
	actions      []models.InteractionAction
	mappings     []models.IdentifierMapping
	pathways     []models.PathwayAnnotation
	summaries    []models.ProteinSummary
	annotations  []models.ProteinAnnotation
}

func (r *Runner) readNetworkInputs() (*networkInputs, error) {
	var in networkInputs

	t, err := tsv.ReadFile(r.paths.StringInteractions)
	if err != nil {
		return nil, err
	}
	if in.interactions, err = network.ReadInteractions(t); err != nil {
		return nil, err
	}

	if t, err = tsv.ReadFile(r.paths.StringActions); err != nil {
		return nil, err
	}
	if in.actions, err = network.ReadActions(t); err != nil {
		return nil, err
	}

	if t, err = tsv.ReadFile(r.paths.StringMapping); err != nil {
		return nil, err
	}
	if in.mappings, err = network.ReadMappings(t); err != nil {
		return nil, err
	}

	if t, err = tsv.ReadFile(r.paths.Pathways); err != nil {
		return nil, err
	}
	if in.pathways, err = kegg.FromTable(t); err != nil {
		return nil, err
	}

	if t, err = tsv.ReadFile(r.paths.Acetylation); err != nil {
		return nil, err
	}
	if in.summaries, err = acetylation.FromTable(t); err != nil {
		return nil, err
	}

	// Annotations are only mirrored; a missing export is tolerated.
	if r.mirror != nil {
		if t, err = tsv.ReadFile(r.paths.StringAnnotations); err != nil {
			logger.Warn("Annotation export not mirrored", zap.Error(err))
		} else if in.annotations, err = network.ReadAnnotations(t); err != nil {
			return nil, err
		}
	}

	return &in, nil
}

// ExportGraph writes the node table above the score cutoff into the graph store.
func (r *Runner) ExportGraph(ctx context.Context) error {
	if r.graph == nil {
		return ErrGraphDisabled
	}

	return r.stage(ctx, StageExportGraph, func() (int, int, error) {
		t, err := tsv.ReadFile(r.paths.NodeTable)
		if err != nil {
			return 0, 0, err
		}
		edges, err := network.EdgesFromTable(t)
		if err != nil {
			return 0, 0, err
		}

		if t, err = tsv.ReadFile(r.paths.Acetylation); err != nil {
			return len(edges), 0, err
		}
		summaries, err := acetylation.FromTable(t)
		if err != nil {
			return len(edges), 0, err
		}

		g := builder.BuildGraph(edges, summaries, r.scoreCutoff)
		totals, err := builder.NewBuilder(r.graph).Export(ctx, g)
		if err != nil {
			return len(edges), 0, err
		}
		logger.Info("Graph totals",
			zap.Int64("proteins", totals.Proteins),
			zap.Int64("interactions", totals.Interactions),
		)
		return len(edges), len(g.Interactions), nil
	})
}
