// Package pipeline runs the preparation stages that turn the raw acetylome export
// into the tables the dashboard reads.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/ingestion"
	"github.com/paces/backend/internal/kg/builder"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/internal/sequence"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/pkg/config"
	"github.com/paces/backend/pkg/logger"
)

// Stage names, as used in metrics labels and stage run records.
const (
	StageFilter          = "filter"
	StageFetchSequences  = "fetch-sequences"
	StageCheckSequences  = "check-sequences"
	StageAnnotate        = "annotate-pathways"
	StageAggregate       = "aggregate"
	StageMergeNetwork    = "merge-network"
	StageExportGraph     = "export-graph"
	stageStatusSucceeded = "succeeded"
	stageStatusFailed    = "failed"
)

// PathwayAnnotator is implemented by kegg.Client.
type PathwayAnnotator interface {
	Annotate(ctx context.Context, uniprotIDs []string) ([]models.PathwayAnnotation, error)
}

// Mirror receives a copy of every table a stage writes. sqlite.Client implements it.
type Mirror interface {
	ReplacePeptides(ctx context.Context, peptides []models.Peptide) error
	ReplaceAcetylation(ctx context.Context, summaries []models.ProteinSummary) error
	ReplacePathways(ctx context.Context, pathways []models.PathwayAnnotation) error
	ReplaceInteractions(ctx context.Context, edges []models.InteractionEdge) error
	ReplaceAcetylationPathways(ctx context.Context, rows []models.AcetylationPathway) error
	ReplaceAnnotations(ctx context.Context, annotations []models.ProteinAnnotation) error
	RecordStageRun(ctx context.Context, run *models.StageRun) error
}

type Runner struct {
	paths       config.PathsConfig
	scoreCutoff float64
	processor   *ingestion.Processor
	sequences   sequence.Fetcher
	pathways    PathwayAnnotator
	mirror      Mirror
	graph       builder.GraphWriter
	stdout      io.Writer
	runID       string
	now         func() time.Time
}

type Option func(*Runner)

// WithMirror copies every produced table into m and records stage runs there.
func WithMirror(m Mirror) Option {
	return func(r *Runner) { r.mirror = m }
}

// WithGraph enables the export-graph stage.
func WithGraph(w builder.GraphWriter) Option {
	return func(r *Runner) { r.graph = w }
}

// WithStdout redirects the sequence check report.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) { r.stdout = w }
}

func NewRunner(cfg *config.Config, sequences sequence.Fetcher, pathways PathwayAnnotator, opts ...Option) *Runner {
	r := &Runner{
		paths:       cfg.Paths,
		scoreCutoff: cfg.Dashboard.ScoreCutoff,
		processor:   ingestion.NewProcessor(),
		sequences:   sequences,
		pathways:    pathways,
		stdout:      os.Stdout,
		runID:       uuid.New().String(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) RunID() string {
	return r.runID
}

// stage times fn, counts its rows and records the run in the mirror.
func (r *Runner) stage(ctx context.Context, name string, fn func() (int, int, error)) error {
	logger.Info("Stage started", zap.String("stage", name), zap.String("run_id", r.runID))
	started := r.now()

	in, out, err := fn()

	finished := r.now()
	metrics.StageDuration.WithLabelValues(name).Observe(finished.Sub(started).Seconds())
	metrics.StageRowsIn.WithLabelValues(name).Add(float64(in))
	metrics.StageRowsOut.WithLabelValues(name).Add(float64(out))

	run := &models.StageRun{
		ID:         uuid.New().String(),
		RunID:      r.runID,
		Stage:      name,
		RowsIn:     in,
		RowsOut:    out,
		Status:     stageStatusSucceeded,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err != nil {
		run.Status = stageStatusFailed
		run.Error = err.Error()
	}

	if r.mirror != nil {
		if recErr := r.mirror.RecordStageRun(ctx, run); recErr != nil {
			logger.Warn("Failed to record stage run", zap.String("stage", name), zap.Error(recErr))
		}
	}

	if err != nil {
		logger.Error("Stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("stage %s: %w", name, err)
	}

	logger.Info("Stage finished",
		zap.String("stage", name),
		zap.Int("rows_in", in),
		zap.Int("rows_out", out),
		zap.Duration("duration", finished.Sub(started)),
	)
	return nil
}

// Run executes every stage that produces a dashboard input, in data-flow order. The
// graph export runs last when a graph writer is configured.
func (r *Runner) Run(ctx context.Context) error {
	steps := []func(context.Context) error{
		r.Filter,
		r.FetchSequences,
		r.CheckSequences,
		r.AnnotatePathways,
		r.Aggregate,
		r.MergeNetwork,
	}
	if r.graph != nil {
		steps = append(steps, r.ExportGraph)
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}

	logger.Info("Pipeline run complete", zap.String("run_id", r.runID))
	return nil
}
