package assoc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgcseis/wellassoc/internal/observability"
)

// writeRetryPolicy bounds whole-batch write retries. A batch is never
// partially retried: the store write is transactional, so a failed attempt
// left nothing behind.
type writeRetryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func defaultRetryPolicy() writeRetryPolicy {
	return writeRetryPolicy{
		maxAttempts:    3,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
}

// StreamSink writes each batch to the store as it completes. This is the
// default delivery mode: peak memory stays bounded by one batch at the cost
// of one transaction per batch.
type StreamSink struct {
	store    AssociationStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	retry    writeRetryPolicy
}

// NewStreamSink builds the per-batch sink. notifier may be nil.
func NewStreamSink(store AssociationStore, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *StreamSink {
	return &StreamSink{
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		retry:    defaultRetryPolicy(),
	}
}

func (s *StreamSink) Write(ctx context.Context, batch BatchResult) error {
	if err := writeWithRetry(ctx, s.store, batch, s.retry, s.logger, s.metrics); err != nil {
		return err
	}
	notify(ctx, s.notifier, batch, s.logger)
	return nil
}

// Flush is a no-op: every batch was already committed on Write.
func (s *StreamSink) Flush(context.Context) error { return nil }

// BufferSink accumulates every batch in memory and commits the whole run as
// one write on Flush, trading peak memory for a single transaction.
type BufferSink struct {
	store    AssociationStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	retry    writeRetryPolicy

	buffered BatchResult
}

// NewBufferSink builds the in-memory sink. notifier may be nil.
func NewBufferSink(store AssociationStore, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *BufferSink {
	return &BufferSink{
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		retry:    defaultRetryPolicy(),
	}
}

func (s *BufferSink) Write(_ context.Context, batch BatchResult) error {
	s.buffered.Links = append(s.buffered.Links, batch.Links...)
	s.buffered.Classified = append(s.buffered.Classified, batch.Classified...)
	s.buffered.Replace = append(s.buffered.Replace, batch.Replace...)
	return nil
}

func (s *BufferSink) Flush(ctx context.Context) error {
	if s.buffered.empty() {
		return nil
	}
	if err := writeWithRetry(ctx, s.store, s.buffered, s.retry, s.logger, s.metrics); err != nil {
		return err
	}
	notify(ctx, s.notifier, s.buffered, s.logger)
	s.buffered = BatchResult{}
	return nil
}

// writeWithRetry commits one batch, retrying the whole write with
// exponential backoff up to the policy's attempt bound. Prior committed
// batches are untouched by a failure here.
func writeWithRetry(ctx context.Context, store AssociationStore, batch BatchResult, policy writeRetryPolicy, logger *slog.Logger, metrics *observability.Metrics) error {
	backoff := policy.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= policy.maxAttempts; attempt++ {
		lastErr = store.WriteBatch(ctx, batch.Links, batch.Classified, batch.Replace)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt == policy.maxAttempts {
			break
		}
		metrics.WriteRetries.Inc()
		logger.Warn("batch write failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)
		if !sleepWithContext(ctx, backoff) {
			return lastErr
		}
		backoff = nextBackoff(backoff, policy.maxBackoff)
	}
	return fmt.Errorf("batch write failed after %d attempts: %w", policy.maxAttempts, lastErr)
}

func notify(ctx context.Context, n Notifier, batch BatchResult, logger *slog.Logger) {
	if n == nil || len(batch.Classified) == 0 {
		return
	}
	if err := n.Publish(ctx, batch.Classified); err != nil {
		logger.Warn("classification notify failed", "count", len(batch.Classified), "error", err)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
