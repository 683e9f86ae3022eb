package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/cache"
	"github.com/paces/backend/internal/cache/redis"
	"github.com/paces/backend/internal/kegg"
	"github.com/paces/backend/internal/kg/neo4j"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/internal/pipeline"
	"github.com/paces/backend/internal/sequence"
	"github.com/paces/backend/internal/storage/sqlite"
	"github.com/paces/backend/pkg/config"
	appLogger "github.com/paces/backend/pkg/logger"
	"github.com/paces/backend/pkg/retry"
)

var (
	cfg     *config.Config
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Prepare the PACES acetylome tables",
	Long: `Runs the preparation stages that turn a raw acetylome export into the
tables read by the dashboard:

  filter -> fetch-sequences -> check-sequences -> annotate-pathways
         -> aggregate -> merge-network [-> export-graph]

File locations come from config.yaml (paths.*) or PACES_PATHS_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := appLogger.Init(level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		metrics.Init()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		metrics.LogSummary()
		appLogger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 6*time.Hour, "Overall time limit")

	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(stageCmd("fetch-sequences", "Download a FASTA record for every filtered protein", (*pipeline.Runner).FetchSequences))
	rootCmd.AddCommand(stageCmd("check-sequences", "Compare FASTA headers with the filtered protein ids", (*pipeline.Runner).CheckSequences))
	rootCmd.AddCommand(stageCmd("annotate-pathways", "Resolve KEGG ids and pathways for every filtered protein", (*pipeline.Runner).AnnotatePathways))
	rootCmd.AddCommand(stageCmd("aggregate", "Summarise acetylated peptides per protein", (*pipeline.Runner).Aggregate))
	rootCmd.AddCommand(stageCmd("merge-network", "Build the node table and the pathway-joined acetylation table", (*pipeline.Runner).MergeNetwork))
	rootCmd.AddCommand(stageCmd("export-graph", "Write the interaction network to Neo4j", (*pipeline.Runner).ExportGraph))
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext is cancelled by SIGINT/SIGTERM or after --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func retryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.Retry.MaxAttempts
	rc.InitialDelay = time.Duration(cfg.Retry.InitialDelayMS) * time.Millisecond
	rc.MaxDelay = time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond
	rc.Logger = appLogger.GetLogger()
	return rc
}

func newRedis() (*redis.Client, error) {
	return redis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLHours)*time.Hour,
	)
}

// newRunner wires the runner from cfg. The returned cleanup closes every client it
// opened and must be called even when err is non-nil.
func newRunner(ctx context.Context) (*pipeline.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store cache.Store = cache.NewMemory()
	if cfg.Redis.Enabled {
		redisClient, err := newRedis()
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { redisClient.Close() })
		store = redisClient
	}

	uniprot := sequence.NewUniProtClient(
		cfg.UniProt.BaseURL,
		time.Duration(cfg.UniProt.TimeoutSec)*time.Second,
		store,
		retryConfig(),
	)
	keggClient := kegg.NewClient(
		cfg.KEGG.BaseURL,
		cfg.KEGG.Organism,
		time.Duration(cfg.KEGG.TimeoutSec)*time.Second,
		store,
		retryConfig(),
	)

	var opts []pipeline.Option

	if cfg.SQLite.Enabled {
		db, err := openSQLite()
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { db.Close() })
		opts = append(opts, pipeline.WithMirror(db))
	}

	if cfg.Neo4j.Enabled {
		graph, err := neo4j.NewClient(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create Neo4j client: %w", err)
		}
		closers = append(closers, func() {
			if err := graph.Close(context.Background()); err != nil {
				appLogger.Warn("Failed to close Neo4j client", zap.Error(err))
			}
		})
		opts = append(opts, pipeline.WithGraph(graph))
	}

	r := pipeline.NewRunner(cfg, uniprot, keggClient, opts...)
	appLogger.Info("Pipeline ready",
		zap.String("run_id", r.RunID()),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("sqlite", cfg.SQLite.Enabled),
		zap.Bool("neo4j", cfg.Neo4j.Enabled),
	)
	return r, cleanup, ctx.Err()
}

func openSQLite() (*sqlite.Client, error) {
	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite client: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
