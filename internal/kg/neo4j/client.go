package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/paces/backend/pkg/circuitbreaker"
	"github.com/paces/backend/pkg/logger"
	"github.com/paces/backend/pkg/retry"
)

// Client writes the interaction network into Neo4j as
// (:Protein)-[:INTERACTS]->(:Protein).
type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	batchSize   int
}

type Protein struct {
	Name       string
	StringID   string
	UniProtID  string
	KeggID     string
	FoldChange string
	AcSites    int
}

type Interaction struct {
	Source      string
	Target      string
	Score       float64
	Interaction string
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
		Operation:      "neo4j.write",
	}

	if database == "" {
		database = "neo4j"
	}

	logger.Info("Neo4j client initialized", zap.String("uri", uri), zap.String("database", database))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
		batchSize:   500,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

func (c *Client) EnsureConstraints(ctx context.Context) error {
	return c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		_, err := session.Run(ctx,
			`CREATE CONSTRAINT protein_name IF NOT EXISTS FOR (p:Protein) REQUIRE p.name IS UNIQUE`, nil)
		if err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
		return nil
	})
}

// MergeProteins upserts protein nodes in batches.
func (c *Client) MergeProteins(ctx context.Context, proteins []Protein) error {
	query := `
		UNWIND $rows AS row
		MERGE (p:Protein {name: row.name})
		SET p.string_id = row.string_id,
		    p.uniprot_id = row.uniprot_id,
		    p.kegg_id = row.kegg_id,
		    p.fold_change = row.fold_change,
		    p.ac_sites = row.ac_sites,
		    p.updated_at = timestamp()
	`

	for _, b := range batches(len(proteins), c.batchSize) {
		rows := proteinRows(proteins[b.start:b.end])
		err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
			_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
				return tx.Run(ctx, query, map[string]any{"rows": rows})
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to merge proteins: %w", err)
		}

		logger.Debug("Protein batch merged", zap.Int("from", b.start), zap.Int("to", b.end))
	}
	return nil
}

// MergeInteractions upserts INTERACTS relationships in batches. Both endpoints must
// already exist.
func (c *Client) MergeInteractions(ctx context.Context, interactions []Interaction) error {
	query := `
		UNWIND $rows AS row
		MATCH (s:Protein {name: row.source})
		MATCH (t:Protein {name: row.target})
		MERGE (s)-[r:INTERACTS]->(t)
		SET r.score = row.score,
		    r.interaction = row.interaction
	`

	for _, b := range batches(len(interactions), c.batchSize) {
		rows := interactionRows(interactions[b.start:b.end])
		err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
			_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
				return tx.Run(ctx, query, map[string]any{"rows": rows})
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to merge interactions: %w", err)
		}
	}
	return nil
}

// Counts returns the number of Protein nodes and INTERACTS relationships.
func (c *Client) Counts(ctx context.Context) (int64, int64, error) {
	var nodes, rels int64

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, `
			MATCH (p:Protein)
			OPTIONAL MATCH (p)-[r:INTERACTS]->()
			RETURN count(DISTINCT p) AS nodes, count(r) AS rels
		`, nil)
		if err != nil {
			return fmt.Errorf("failed to count graph: %w", err)
		}

		record, err := result.Single(ctx)
		if err != nil {
			return fmt.Errorf("failed to read counts: %w", err)
		}

		n, _ := record.Get("nodes")
		r, _ := record.Get("rels")
		nodes, _ = n.(int64)
		rels, _ = r.(int64)
		return nil
	})

	return nodes, rels, err
}

type batch struct {
	start, end int
}

// batches splits n rows into consecutive ranges of at most size rows.
func batches(n, size int) []batch {
	var out []batch
	for start := 0; start < n; start += size {
		out = append(out, batch{start: start, end: min(start+size, n)})
	}
	return out
}

func proteinRows(proteins []Protein) []map[string]any {
	rows := make([]map[string]any, 0, len(proteins))
	for _, p := range proteins {
		rows = append(rows, map[string]any{
			"name":        p.Name,
			"string_id":   p.StringID,
			"uniprot_id":  nullable(p.UniProtID),
			"kegg_id":     nullable(p.KeggID),
			"fold_change": p.FoldChange,
			"ac_sites":    p.AcSites,
		})
	}
	return rows
}

func interactionRows(interactions []Interaction) []map[string]any {
	rows := make([]map[string]any, 0, len(interactions))
	for _, in := range interactions {
		rows = append(rows, map[string]any{
			"source":      in.Source,
			"target":      in.Target,
			"score":       in.Score,
			"interaction": in.Interaction,
		})
	}
	return rows
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
