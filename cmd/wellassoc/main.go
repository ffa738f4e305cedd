package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pgcseis/wellassoc/internal/adapter/httpserver"
	kafkaadapter "github.com/pgcseis/wellassoc/internal/adapter/kafka"
	"github.com/pgcseis/wellassoc/internal/assoc"
	"github.com/pgcseis/wellassoc/internal/catalog"
	"github.com/pgcseis/wellassoc/internal/config"
	"github.com/pgcseis/wellassoc/internal/domain"
	"github.com/pgcseis/wellassoc/internal/observability"
	"github.com/pgcseis/wellassoc/internal/store"
)

// runFlags are the run-scoped options. Each zero value means "keep the
// environment configuration".
type runFlags struct {
	dbPath     string
	quakeTable string
	mode       string
	assocMode  string
	types      string
	batchSize  int
	hfTmaxDays int
	inMemory   bool
	verbose    bool

	reassocQuakes []int64
	reassocWell   string
}

func main() {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:   "wellassoc",
		Short: "Associate earthquake hypocenters with well activity",
		Long: `wellassoc links catalog earthquakes to nearby hydraulic fracturing,
water disposal, and production activity, scores each link, and writes
normalized association probabilities and per-quake classifications.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.dbPath, "db", "", "path to the SQLite database")
	rootCmd.Flags().StringVar(&flags.quakeTable, "quake-table", "", "origin table to read (master_origin_3d or master_origin)")
	rootCmd.Flags().StringVar(&flags.mode, "mode", "", "run mode: full or incremental")
	rootCmd.Flags().StringVar(&flags.assocMode, "assoc-mode", "", "scoring mode: detailed or simple")
	rootCmd.Flags().StringVar(&flags.types, "types", "", "comma-separated activity types (HF,WD,PROD)")
	rootCmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "earthquakes per batch")
	rootCmd.Flags().IntVar(&flags.hfTmaxDays, "hf-tmax-days", 0, "override the HF decay window length in days")
	rootCmd.Flags().BoolVar(&flags.inMemory, "in-memory", false, "buffer all results and commit once at the end")
	rootCmd.Flags().BoolVar(&flags.verbose, "verbose", false, "debug logging")
	rootCmd.Flags().Int64SliceVar(&flags.reassocQuakes, "reassociate-quake", nil, "force re-association of these quake ids")
	rootCmd.Flags().StringVar(&flags.reassocWell, "reassociate-well", "", "force re-association of every quake linked to this well")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	if err := applyFlags(cfg, flags); err != nil {
		slog.Error("invalid flags", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	runID := uuid.NewString()

	cat, err := catalog.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		return err
	}
	defer cat.Close()

	// The association tables live in the same database file.
	st, err := store.OpenDB(cat.DB())
	if err != nil {
		logger.Error("failed to open association store", "error", err)
		return err
	}

	params := cfg.Params()
	activities, err := cat.LoadActivities(ctx, params, catalog.ActivityFilter{
		Types:     cfg.Types,
		ForceWell: flags.reassocWell,
	})
	if err != nil {
		logger.Error("failed to load activities", "error", err)
		return err
	}
	logger.Info("activities loaded", "count", len(activities), "types", cfg.Types)

	source, err := cat.Quakes(cfg.QuakeTable)
	if err != nil {
		logger.Error("invalid quake table", "error", err)
		return err
	}

	gen := assoc.NewGenerator(activities, cfg.Types, params, logger)
	kernel := domain.Kernel{Mode: cfg.AssocMode, Params: params}

	var notifier assoc.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, runID, logger)
		defer kn.Close()
		notifier = kn
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	var sink assoc.ResultSink
	if cfg.InMemory {
		sink = assoc.NewBufferSink(st, notifier, logger, metrics)
	} else {
		sink = assoc.NewStreamSink(st, notifier, logger, metrics)
	}

	ctrl := assoc.NewController(source, gen, kernel, st, sink, logger, metrics, assoc.Options{
		Mode:        cfg.Mode,
		BatchSize:   cfg.BatchSize,
		ForceQuakes: flags.reassocQuakes,
		ForceWell:   flags.reassocWell,
		RunID:       runID,
	})

	srv := httpserver.NewServer(cfg.HTTPAddr, ctrl,
		httpserver.RunInfo{RunID: runID, Mode: string(cfg.Mode)}, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := ctrl.Run(ctx)
	if runErr != nil {
		logger.Error("association run failed", "run_id", runID, "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return runErr
}

// applyFlags overlays CLI flags onto the environment configuration.
func applyFlags(cfg *config.Config, flags runFlags) error {
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.quakeTable != "" {
		cfg.QuakeTable = flags.quakeTable
	}
	if flags.mode != "" {
		cfg.Mode = assoc.Mode(flags.mode)
	}
	if flags.assocMode != "" {
		cfg.AssocMode = domain.AssocMode(flags.assocMode)
	}
	if flags.types != "" {
		types, err := config.ParseTypes(flags.types)
		if err != nil {
			return err
		}
		cfg.Types = types
	}
	if flags.batchSize > 0 {
		cfg.BatchSize = flags.batchSize
	}
	if flags.hfTmaxDays > 0 {
		cfg.HFTmaxDays = flags.hfTmaxDays
	}
	if flags.inMemory {
		cfg.InMemory = true
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}

	switch cfg.Mode {
	case assoc.ModeFull, assoc.ModeIncremental:
	default:
		return fmt.Errorf("invalid mode %q", cfg.Mode)
	}
	switch cfg.AssocMode {
	case domain.ModeSimple, domain.ModeDetailed:
	default:
		return fmt.Errorf("invalid assoc mode %q", cfg.AssocMode)
	}
	switch cfg.QuakeTable {
	case catalog.TableOrigin3D, catalog.TableOrigin:
	default:
		return fmt.Errorf("invalid quake table %q", cfg.QuakeTable)
	}
	return nil
}
