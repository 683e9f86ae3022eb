package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/pkg/logger"
)

// Client mirrors every table the pipeline produces so the dashboard can be served
// from a single database file, and keeps the history of stage runs.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS peptides (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		protein TEXT NOT NULL,
		description TEXT,
		modified_sequence TEXT,
		intensity_l REAL,
		intensity_h REAL,
		ratio REAL,
		pep REAL,
		condition TEXT NOT NULL,
		log_fc REAL
	);
	CREATE INDEX IF NOT EXISTS idx_peptides_protein ON peptides(protein);

	CREATE TABLE IF NOT EXISTS acetylation (
		uniprot_id TEXT PRIMARY KEY,
		gene_name TEXT,
		num_ac_sites INTEGER NOT NULL,
		peptides TEXT,
		detect_condition TEXT,
		pept_log_fc TEXT,
		prot_log_fc TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pathways (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uniprot_id TEXT NOT NULL,
		kegg_id TEXT NOT NULL,
		kegg_pathways TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pathways_uniprot ON pathways(uniprot_id);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node1 TEXT NOT NULL,
		node2 TEXT NOT NULL,
		node1_string_id TEXT NOT NULL,
		node2_string_id TEXT NOT NULL,
		combined_score REAL NOT NULL,
		interaction TEXT NOT NULL,
		node1_uniprot TEXT,
		node2_uniprot TEXT,
		node1_kegg TEXT,
		node2_kegg TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_score ON interactions(combined_score);

	CREATE TABLE IF NOT EXISTS acetylation_pathways (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uniprot_id TEXT NOT NULL,
		gene_name TEXT,
		num_ac_sites INTEGER NOT NULL,
		peptides TEXT,
		detect_condition TEXT,
		pept_log_fc TEXT,
		prot_log_fc TEXT,
		kegg_id TEXT,
		kegg_pathways TEXT
	);

	CREATE TABLE IF NOT EXISTS protein_annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node TEXT NOT NULL,
		identifier TEXT NOT NULL,
		annotation TEXT
	);

	CREATE TABLE IF NOT EXISTS stage_runs (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		rows_in INTEGER,
		rows_out INTEGER,
		status TEXT NOT NULL,
		error TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stage_runs_run ON stage_runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_stage_runs_started ON stage_runs(started_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func nullFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// replace empties table and inserts every row through insert in one transaction.
func (c *Client) replace(ctx context.Context, table, insert string, n int, args func(i int) []any) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	logger.Debug("Table replaced", zap.String("table", table), zap.Int("rows", n))
	return nil
}

func (c *Client) ReplacePeptides(ctx context.Context, peptides []models.Peptide) error {
	query := `INSERT INTO peptides (protein, description, modified_sequence, intensity_l, intensity_h, ratio, pep, condition, log_fc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return c.replace(ctx, "peptides", query, len(peptides), func(i int) []any {
		p := peptides[i]
		return []any{p.Protein, p.Description, p.ModifiedSequence, nullFloat(p.IntensityL), nullFloat(p.IntensityH),
			nullFloat(p.Ratio), nullFloat(p.PEP), p.Condition, nullFloat(p.LogFoldChange)}
	})
}

func (c *Client) GetPeptides(ctx context.Context) ([]models.Peptide, error) {
	query := `SELECT protein, description, modified_sequence, intensity_l, intensity_h, ratio, pep, condition, log_fc
		FROM peptides ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get peptides: %w", err)
	}
	defer rows.Close()

	var peptides []models.Peptide
	for rows.Next() {
		var p models.Peptide
		var l, h, ratio, pep, logFC sql.NullFloat64

		err := rows.Scan(&p.Protein, &p.Description, &p.ModifiedSequence, &l, &h, &ratio, &pep, &p.Condition, &logFC)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		p.IntensityL, p.IntensityH = floatOrNaN(l), floatOrNaN(h)
		p.Ratio, p.PEP, p.LogFoldChange = floatOrNaN(ratio), floatOrNaN(pep), floatOrNaN(logFC)
		peptides = append(peptides, p)
	}

	return peptides, rows.Err()
}

func (c *Client) ReplaceAcetylation(ctx context.Context, summaries []models.ProteinSummary) error {
	query := `INSERT INTO acetylation (uniprot_id, gene_name, num_ac_sites, peptides, detect_condition, pept_log_fc, prot_log_fc, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	return c.replace(ctx, "acetylation", query, len(summaries), func(i int) []any {
		s := summaries[i]
		return []any{s.UniProtID, s.GeneName, s.NumAcSites, s.Peptides, s.DetectCondition, s.PeptLogFC, s.ProtLogFC, i}
	})
}

func (c *Client) ReplacePathways(ctx context.Context, pathways []models.PathwayAnnotation) error {
	query := `INSERT INTO pathways (uniprot_id, kegg_id, kegg_pathways) VALUES (?, ?, ?)`

	return c.replace(ctx, "pathways", query, len(pathways), func(i int) []any {
		p := pathways[i]
		return []any{p.UniProtID, p.KeggID, p.KeggPathways}
	})
}

func (c *Client) GetPathways(ctx context.Context) ([]models.PathwayAnnotation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT uniprot_id, kegg_id, kegg_pathways FROM pathways ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get pathways: %w", err)
	}
	defer rows.Close()

	var pathways []models.PathwayAnnotation
	for rows.Next() {
		var p models.PathwayAnnotation
		if err := rows.Scan(&p.UniProtID, &p.KeggID, &p.KeggPathways); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		pathways = append(pathways, p)
	}

	return pathways, rows.Err()
}

func (c *Client) ReplaceInteractions(ctx context.Context, edges []models.InteractionEdge) error {
	query := `INSERT INTO interactions (node1, node2, node1_string_id, node2_string_id, combined_score, interaction,
			node1_uniprot, node2_uniprot, node1_kegg, node2_kegg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return c.replace(ctx, "interactions", query, len(edges), func(i int) []any {
		e := edges[i]
		return []any{e.Node1, e.Node2, e.Node1StringID, e.Node2StringID, e.CombinedScore, e.Interaction,
			e.Node1UniProt, e.Node2UniProt, e.Node1Kegg, e.Node2Kegg}
	})
}

// GetInteractions returns the interaction rows scoring at least minScore.
func (c *Client) GetInteractions(ctx context.Context, minScore float64) ([]models.InteractionEdge, error) {
	query := `
		SELECT node1, node2, node1_string_id, node2_string_id, combined_score, interaction,
			node1_uniprot, node2_uniprot, node1_kegg, node2_kegg
		FROM interactions
		WHERE combined_score >= ?
		ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to get interactions: %w", err)
	}
	defer rows.Close()

	var edges []models.InteractionEdge
	for rows.Next() {
		var e models.InteractionEdge
		err := rows.Scan(&e.Node1, &e.Node2, &e.Node1StringID, &e.Node2StringID, &e.CombinedScore, &e.Interaction,
			&e.Node1UniProt, &e.Node2UniProt, &e.Node1Kegg, &e.Node2Kegg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

func (c *Client) ReplaceAcetylationPathways(ctx context.Context, rows []models.AcetylationPathway) error {
	query := `INSERT INTO acetylation_pathways (uniprot_id, gene_name, num_ac_sites, peptides, detect_condition,
			pept_log_fc, prot_log_fc, kegg_id, kegg_pathways)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return c.replace(ctx, "acetylation_pathways", query, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.UniProtID, r.GeneName, r.NumAcSites, r.Peptides, r.DetectCondition,
			r.PeptLogFC, r.ProtLogFC, r.KeggID, r.KeggPathways}
	})
}

func (c *Client) GetAcetylationPathways(ctx context.Context) ([]models.AcetylationPathway, error) {
	query := `
		SELECT uniprot_id, gene_name, num_ac_sites, peptides, detect_condition, pept_log_fc, prot_log_fc, kegg_id, kegg_pathways
		FROM acetylation_pathways
		ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get acetylation pathways: %w", err)
	}
	defer rows.Close()

	var out []models.AcetylationPathway
	for rows.Next() {
		var r models.AcetylationPathway
		err := rows.Scan(&r.UniProtID, &r.GeneName, &r.NumAcSites, &r.Peptides, &r.DetectCondition,
			&r.PeptLogFC, &r.ProtLogFC, &r.KeggID, &r.KeggPathways)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (c *Client) ReplaceAnnotations(ctx context.Context, annotations []models.ProteinAnnotation) error {
	query := `INSERT INTO protein_annotations (node, identifier, annotation) VALUES (?, ?, ?)`

	return c.replace(ctx, "protein_annotations", query, len(annotations), func(i int) []any {
		a := annotations[i]
		return []any{a.Node, a.Identifier, a.Annotation}
	})
}

func (c *Client) GetAnnotations(ctx context.Context) ([]models.ProteinAnnotation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT node, identifier, annotation FROM protein_annotations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get annotations: %w", err)
	}
	defer rows.Close()

	var out []models.ProteinAnnotation
	for rows.Next() {
		var a models.ProteinAnnotation
		if err := rows.Scan(&a.Node, &a.Identifier, &a.Annotation); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (c *Client) RecordStageRun(ctx context.Context, run *models.StageRun) error {
	query := `
		INSERT INTO stage_runs (id, run_id, stage, rows_in, rows_out, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		run.ID,
		run.RunID,
		run.Stage,
		run.RowsIn,
		run.RowsOut,
		run.Status,
		run.Error,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record stage run: %w", err)
	}

	logger.Debug("Stage run recorded",
		zap.String("run_id", run.RunID),
		zap.String("stage", run.Stage),
		zap.String("status", run.Status),
	)
	return nil
}

// GetStageRuns lists the stages of one pipeline run in start order.
func (c *Client) GetStageRuns(ctx context.Context, runID string) ([]models.StageRun, error) {
	query := `
		SELECT id, run_id, stage, rows_in, rows_out, status, error, started_at, finished_at
		FROM stage_runs
		WHERE run_id = ?
		ORDER BY started_at, rowid
	`

	rows, err := c.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	defer rows.Close()

	var runs []models.StageRun
	for rows.Next() {
		var r models.StageRun
		var started, finished int64

		err := rows.Scan(&r.ID, &r.RunID, &r.Stage, &r.RowsIn, &r.RowsOut, &r.Status, &r.Error, &started, &finished)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
