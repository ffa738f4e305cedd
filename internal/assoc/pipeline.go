package assoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pgcseis/wellassoc/internal/domain"
	"github.com/pgcseis/wellassoc/internal/observability"
)

// Mode selects the controller's working set.
type Mode string

const (
	// ModeFull discards all prior associations and recomputes everything.
	ModeFull Mode = "full"
	// ModeIncremental processes only quakes not yet associated, plus any
	// explicitly forced ids.
	ModeIncremental Mode = "incremental"
)

// EarthquakeSource yields the selected origin table as a lazy, batched
// sequence. An empty batch signals the end of the table.
type EarthquakeSource interface {
	NextBatch(ctx context.Context, limit int) ([]domain.Earthquake, error)
}

// AssociationStore is the persistence collaborator for association rows and
// the incremental bookkeeping they imply.
type AssociationStore interface {
	// Truncate drops all link and classification rows (full mode).
	Truncate(ctx context.Context) error
	// AssociatedQuakeIDs returns the quakes that already carry links.
	AssociatedQuakeIDs(ctx context.Context) (map[int64]struct{}, error)
	// QuakesLinkedToWell returns quakes carrying links to the given well.
	QuakesLinkedToWell(ctx context.Context, wellID string) ([]int64, error)
	// PurgePresent deletes "present"-resolution links for wells that now
	// have stage data and returns the affected quake ids for recompute.
	PurgePresent(ctx context.Context, stageWells map[string]struct{}) ([]int64, error)
	// WriteBatch atomically deletes all rows for the replace ids and
	// inserts the given links and classifications in one transaction.
	WriteBatch(ctx context.Context, links []domain.AssociationLink, classified []domain.Classification, replace []int64) error
}

// BatchResult is the output of one processed earthquake batch. Replace lists
// forced quake ids whose prior rows must be deleted in the same transaction
// that writes the recomputation, so a forced quake is never visible as
// unassociated in between.
type BatchResult struct {
	Links      []domain.AssociationLink
	Classified []domain.Classification
	Replace    []int64
}

func (r BatchResult) empty() bool {
	return len(r.Links) == 0 && len(r.Classified) == 0 && len(r.Replace) == 0
}

// Notifier publishes committed classifications to an external channel.
// Failures are reported but never fail the run; the store stays the system
// of record.
type Notifier interface {
	Publish(ctx context.Context, classified []domain.Classification) error
}

// ResultSink receives batch results. The streaming implementation writes
// each batch as it completes; the in-memory one buffers everything and
// writes once on Flush.
type ResultSink interface {
	Write(ctx context.Context, batch BatchResult) error
	Flush(ctx context.Context) error
}

// Options configures one controller run.
type Options struct {
	Mode        Mode
	BatchSize   int
	ForceQuakes []int64 // recompute these quakes even if already associated
	ForceWell   string  // recompute every quake linked to this well
	RunID       string
}

// Controller drives the batch association loop: working-set selection,
// candidate generation, scoring, aggregation, classification, and delivery
// to the sink.
type Controller struct {
	source  EarthquakeSource
	gen     *Generator
	kernel  domain.Kernel
	store   AssociationStore
	sink    ResultSink
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options

	committed atomic.Bool
}

// NewController wires a controller. The store is consulted for incremental
// state; all row writes go through the sink.
func NewController(src EarthquakeSource, gen *Generator, kernel domain.Kernel, store AssociationStore, sink ResultSink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Controller {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10_000
	}
	return &Controller{
		source:  src,
		gen:     gen,
		kernel:  kernel,
		store:   store,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness returns nil once at least one batch has been committed.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.committed.Load() {
		return errors.New("no batch committed yet")
	}
	return nil
}

// runState is the reconciliation input for one run: quakes to skip and
// quakes whose prior rows must be replaced.
type runState struct {
	associated map[int64]struct{}
	forced     map[int64]struct{}

	// truncate defers the full-mode wipe until the source has produced its
	// first batch, so a source failure leaves prior rows intact.
	truncate bool
}

// Run executes the association loop until the source is exhausted or the
// context is cancelled. Cancellation is batch-granular: committed batches
// stay committed, and an interrupted incremental run resumes cleanly
// because uncommitted quakes are still absent from the associated set.
func (c *Controller) Run(ctx context.Context) error {
	c.metrics.PipelineRunning.Set(1)
	defer c.metrics.PipelineRunning.Set(0)

	state, err := c.prepare(ctx)
	if err != nil {
		return err
	}

	c.logger.Info("association run starting",
		"run_id", c.opts.RunID,
		"mode", c.opts.Mode,
		"batch_size", c.opts.BatchSize,
		"forced", len(state.forced),
	)

	for batchNum := 1; ; batchNum++ {
		if err := ctx.Err(); err != nil {
			c.logger.Info("run interrupted", "run_id", c.opts.RunID, "batches_committed", batchNum-1)
			return err
		}

		quakes, err := c.source.NextBatch(ctx, c.opts.BatchSize)
		if err != nil {
			return fmt.Errorf("read earthquake batch %d: %w", batchNum, err)
		}
		if state.truncate {
			if err := c.store.Truncate(ctx); err != nil {
				return fmt.Errorf("truncate association tables: %w", err)
			}
			state.truncate = false
		}
		if len(quakes) == 0 {
			break
		}

		start := time.Now()
		res := c.processBatch(quakes, state)
		if !res.empty() {
			if err := c.sink.Write(ctx, res); err != nil {
				return fmt.Errorf("write batch %d: %w", batchNum, err)
			}
		}
		c.committed.Store(true)

		c.metrics.BatchQuakes.Observe(float64(len(quakes)))
		c.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		c.logger.Info("batch done",
			"run_id", c.opts.RunID,
			"batch", batchNum,
			"quakes", len(quakes),
			"links", len(res.Links),
			"classified", len(res.Classified),
		)
	}

	if err := c.sink.Flush(ctx); err != nil {
		return fmt.Errorf("flush sink: %w", err)
	}
	c.committed.Store(true)
	c.logger.Info("association run complete", "run_id", c.opts.RunID)
	return nil
}

// prepare reconciles persisted state into the run's working-set rules.
func (c *Controller) prepare(ctx context.Context) (runState, error) {
	state := runState{
		associated: map[int64]struct{}{},
		forced:     map[int64]struct{}{},
	}

	if c.opts.Mode == ModeFull {
		state.truncate = true
		return state, nil
	}

	associated, err := c.store.AssociatedQuakeIDs(ctx)
	if err != nil {
		return state, fmt.Errorf("load associated set: %w", err)
	}
	state.associated = associated

	for _, id := range c.opts.ForceQuakes {
		state.forced[id] = struct{}{}
	}
	if c.opts.ForceWell != "" {
		ids, err := c.store.QuakesLinkedToWell(ctx, c.opts.ForceWell)
		if err != nil {
			return state, fmt.Errorf("resolve forced well %s: %w", c.opts.ForceWell, err)
		}
		for _, id := range ids {
			state.forced[id] = struct{}{}
		}
	}

	// Wells that gained stage data obsolete their coarse "present" links.
	affected, err := c.store.PurgePresent(ctx, c.gen.StageWells())
	if err != nil {
		return state, fmt.Errorf("purge obsolete present links: %w", err)
	}
	for _, id := range affected {
		state.forced[id] = struct{}{}
	}

	return state, nil
}

// processBatch associates, scores, and classifies one batch of earthquakes.
func (c *Controller) processBatch(quakes []domain.Earthquake, state runState) BatchResult {
	var res BatchResult
	for i := range quakes {
		eq := &quakes[i]

		_, forced := state.forced[eq.QuakeID]
		if c.opts.Mode == ModeIncremental && !forced {
			if _, done := state.associated[eq.QuakeID]; done {
				c.metrics.QuakesSkipped.Inc()
				continue
			}
		}
		if forced {
			// Delete-then-insert happens inside the batch transaction.
			res.Replace = append(res.Replace, eq.QuakeID)
		}

		links, ok := c.associate(eq)
		c.metrics.QuakesProcessed.Inc()
		if !ok {
			continue
		}
		if len(links) == 0 {
			c.metrics.QuakesUnassociated.Inc()
			continue
		}

		cls, ok := domain.Classify(eq.QuakeID, links)
		if !ok {
			c.metrics.QuakesUnassociated.Inc()
			continue
		}
		res.Links = append(res.Links, links...)
		res.Classified = append(res.Classified, cls)
		c.metrics.LinksWritten.Add(float64(len(links)))
	}
	return res
}

// associate turns one earthquake into its normalized link rows. ok is false
// when the record itself was skipped (CRS failure).
func (c *Controller) associate(eq *domain.Earthquake) ([]domain.AssociationLink, bool) {
	cands, err := c.gen.Candidates(eq)
	if err != nil {
		c.metrics.CRSErrors.Inc()
		c.logger.Warn("skipping earthquake with unresolvable CRS",
			"quake_id", eq.QuakeID,
			"source", eq.Source,
			"error", err,
		)
		return nil, false
	}

	links := make([]domain.AssociationLink, 0, len(cands))
	for _, cand := range cands {
		score := c.kernel.Score(cand.Activity, cand.Region, cand.DistanceKm, cand.DTDays)
		if score <= 0 {
			continue
		}
		links = append(links, domain.AssociationLink{
			QuakeID:    eq.QuakeID,
			StageID:    cand.Activity.StageID,
			WellID:     cand.Activity.WellID,
			PadID:      cand.Activity.PadID,
			Type:       cand.Activity.Type,
			DistanceKm: cand.DistanceKm,
			DTDays:     cand.DTDays,
			Score:      score,
			Region:     cand.Region,
			Resolution: cand.Activity.Resolution,
		})
	}

	if !domain.NormalizeStageProbs(links) {
		return nil, true
	}
	return links, true
}
