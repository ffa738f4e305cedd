package assoc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgcseis/wellassoc/internal/domain"
	"github.com/pgcseis/wellassoc/internal/observability"
)

func testBatch(quakeID int64) BatchResult {
	return BatchResult{
		Links: []domain.AssociationLink{{
			QuakeID: quakeID, StageID: 11, WellID: "W1", PadID: "P1",
			Type: domain.HF, PStage: 1.0, Region: domain.RegionKSMMA,
			Resolution: domain.ResolutionStage,
		}},
		Classified: []domain.Classification{{QuakeID: quakeID, BestStage: 11}},
	}
}

func TestStreamSinkWritesEachBatch(t *testing.T) {
	store := &mockStore{}
	notifier := &mockNotifier{}
	sink := NewStreamSink(store, notifier, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	require.NoError(t, sink.Write(ctx, testBatch(1)))
	require.NoError(t, sink.Write(ctx, testBatch(2)))
	require.NoError(t, sink.Flush(ctx))

	assert.Len(t, store.writes, 2)
	assert.Len(t, notifier.published, 2)
}

func TestStreamSinkNotifyFailureDoesNotFailWrite(t *testing.T) {
	store := &mockStore{}
	notifier := &mockNotifier{err: errors.New("broker down")}
	sink := NewStreamSink(store, notifier, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, sink.Write(context.Background(), testBatch(1)))
	assert.Len(t, store.writes, 1)
}

func TestStreamSinkNilNotifier(t *testing.T) {
	store := &mockStore{}
	sink := NewStreamSink(store, nil, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, sink.Write(context.Background(), testBatch(1)))
	assert.Len(t, store.writes, 1)
}

func TestBufferSinkCommitsOnceOnFlush(t *testing.T) {
	store := &mockStore{}
	notifier := &mockNotifier{}
	sink := NewBufferSink(store, notifier, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	b2 := testBatch(2)
	b2.Replace = []int64{2}
	require.NoError(t, sink.Write(ctx, testBatch(1)))
	require.NoError(t, sink.Write(ctx, b2))
	assert.Empty(t, store.writes)

	require.NoError(t, sink.Flush(ctx))
	require.Len(t, store.writes, 1)
	w := store.writes[0]
	assert.Len(t, w.links, 2)
	assert.Len(t, w.classified, 2)
	assert.Equal(t, []int64{2}, w.replace)
	require.Len(t, notifier.published, 1)
	assert.Len(t, notifier.published[0], 2)

	// Flush drained the buffer.
	require.NoError(t, sink.Flush(ctx))
	assert.Len(t, store.writes, 1)
}

// flakyStore fails the first n writes.
type flakyStore struct {
	mockStore
	failures int
}

func (f *flakyStore) WriteBatch(ctx context.Context, links []domain.AssociationLink, classified []domain.Classification, replace []int64) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("deadlock")
	}
	return f.mockStore.WriteBatch(ctx, links, classified, replace)
}

func TestWriteRetrySucceedsAfterTransientFailure(t *testing.T) {
	store := &flakyStore{failures: 1}
	policy := writeRetryPolicy{maxAttempts: 3, initialBackoff: time.Millisecond, maxBackoff: time.Millisecond}
	metrics := observability.NewMetricsForTesting()

	err := writeWithRetry(context.Background(), store, testBatch(1), policy, discardLogger(), metrics)
	require.NoError(t, err)
	assert.Len(t, store.writes, 1)
}

func TestWriteRetryExhaustion(t *testing.T) {
	store := &flakyStore{failures: 10}
	policy := writeRetryPolicy{maxAttempts: 3, initialBackoff: time.Millisecond, maxBackoff: time.Millisecond}

	err := writeWithRetry(context.Background(), store, testBatch(1), policy, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Empty(t, store.writes)
}

func TestWriteRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &flakyStore{failures: 10}
	policy := writeRetryPolicy{maxAttempts: 3, initialBackoff: time.Second, maxBackoff: time.Second}

	err := writeWithRetry(ctx, store, testBatch(1), policy, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func TestNextBackoffCaps(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(4*time.Second, 5*time.Second))
}
