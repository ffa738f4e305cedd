package assoc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgcseis/wellassoc/internal/domain"
	"github.com/pgcseis/wellassoc/internal/observability"
)

// mockSource replays fixed batches.
type mockSource struct {
	batches [][]domain.Earthquake
	err     error
}

func (s *mockSource) NextBatch(_ context.Context, _ int) ([]domain.Earthquake, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

type writeCall struct {
	links      []domain.AssociationLink
	classified []domain.Classification
	replace    []int64
}

// mockStore records every persistence call.
type mockStore struct {
	mu sync.Mutex

	truncated  bool
	associated map[int64]struct{}
	wellLinks  map[string][]int64
	affected   []int64

	writes   []writeCall
	writeErr error
}

func (m *mockStore) Truncate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.truncated = true
	return nil
}

func (m *mockStore) AssociatedQuakeIDs(context.Context) (map[int64]struct{}, error) {
	if m.associated == nil {
		return map[int64]struct{}{}, nil
	}
	return m.associated, nil
}

func (m *mockStore) QuakesLinkedToWell(_ context.Context, wellID string) ([]int64, error) {
	return m.wellLinks[wellID], nil
}

func (m *mockStore) PurgePresent(context.Context, map[string]struct{}) ([]int64, error) {
	return m.affected, nil
}

func (m *mockStore) WriteBatch(_ context.Context, links []domain.AssociationLink, classified []domain.Classification, replace []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, writeCall{links: links, classified: classified, replace: replace})
	return nil
}

type mockNotifier struct {
	published [][]domain.Classification
	err       error
}

func (n *mockNotifier) Publish(_ context.Context, classified []domain.Classification) error {
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, classified)
	return nil
}

func newTestController(src EarthquakeSource, store *mockStore, opts Options) (*Controller, *mockNotifier) {
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	gen := NewGenerator(testActivities(), domain.AllActivityTypes, domain.DefaultParams(), logger)
	kernel := domain.Kernel{Mode: domain.ModeDetailed, Params: domain.DefaultParams()}
	notifier := &mockNotifier{}
	sink := NewStreamSink(store, notifier, logger, metrics)
	return NewController(src, gen, kernel, store, sink, logger, metrics, opts), notifier
}

func TestRunFullMode(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1), testQuake(2)},
	}}
	store := &mockStore{}
	ctrl, notifier := newTestController(src, store, Options{Mode: ModeFull, RunID: "r1"})

	require.Error(t, ctrl.CheckReadiness(context.Background()))
	require.NoError(t, ctrl.Run(context.Background()))
	require.NoError(t, ctrl.CheckReadiness(context.Background()))

	assert.True(t, store.truncated)
	require.Len(t, store.writes, 1)
	w := store.writes[0]
	assert.Len(t, w.classified, 2)
	assert.Empty(t, w.replace)

	// Stage probabilities are normalized per quake.
	sums := map[int64]float64{}
	for _, l := range w.links {
		sums[l.QuakeID] += l.PStage
	}
	require.Len(t, sums, 2)
	for id, sum := range sums {
		assert.InDelta(t, 1.0, sum, domain.ProbEpsilon, "quake %d", id)
	}

	require.Len(t, notifier.published, 1)
	assert.Len(t, notifier.published[0], 2)
}

func TestRunIncrementalSkipsAssociated(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1), testQuake(2)},
	}}
	store := &mockStore{associated: map[int64]struct{}{1: {}}}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeIncremental})

	require.NoError(t, ctrl.Run(context.Background()))

	assert.False(t, store.truncated)
	require.Len(t, store.writes, 1)
	for _, l := range store.writes[0].links {
		assert.Equal(t, int64(2), l.QuakeID)
	}
}

func TestRunForcedQuakeIsReplaced(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1), testQuake(2)},
	}}
	store := &mockStore{associated: map[int64]struct{}{1: {}, 2: {}}}
	ctrl, _ := newTestController(src, store, Options{
		Mode:        ModeIncremental,
		ForceQuakes: []int64{1},
	})

	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, store.writes, 1)
	w := store.writes[0]
	assert.Equal(t, []int64{1}, w.replace)
	for _, l := range w.links {
		assert.Equal(t, int64(1), l.QuakeID)
	}
}

func TestRunForcedWellResolvesToQuakes(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1), testQuake(2)},
	}}
	store := &mockStore{
		associated: map[int64]struct{}{1: {}, 2: {}},
		wellLinks:  map[string][]int64{"W1": {2}},
	}
	ctrl, _ := newTestController(src, store, Options{
		Mode:      ModeIncremental,
		ForceWell: "W1",
	})

	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, store.writes, 1)
	assert.Equal(t, []int64{2}, store.writes[0].replace)
}

func TestRunPurgedPresentQuakesAreForced(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1), testQuake(2)},
	}}
	store := &mockStore{
		associated: map[int64]struct{}{1: {}, 2: {}},
		affected:   []int64{1},
	}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeIncremental})

	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, store.writes, 1)
	assert.Equal(t, []int64{1}, store.writes[0].replace)
}

func TestRunUnassociatedQuake(t *testing.T) {
	far := testQuake(1)
	far.Location = domain.Point{X: -122.50, Y: 57.50, CRS: domain.CRSGeographic}
	src := &mockSource{batches: [][]domain.Earthquake{{far}}}
	store := &mockStore{}
	ctrl, notifier := newTestController(src, store, Options{Mode: ModeFull})

	require.NoError(t, ctrl.Run(context.Background()))

	assert.Empty(t, store.writes)
	assert.Empty(t, notifier.published)
}

func TestRunSkipsQuakeWithBadCRS(t *testing.T) {
	bad := testQuake(1)
	bad.Location.CRS = "EPSG:999999"
	src := &mockSource{batches: [][]domain.Earthquake{
		{bad, testQuake(2)},
	}}
	store := &mockStore{}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeFull})

	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, store.writes, 1)
	for _, l := range store.writes[0].links {
		assert.Equal(t, int64(2), l.QuakeID)
	}
}

func TestRunSourceErrorAborts(t *testing.T) {
	srcErr := errors.New("connection reset")
	src := &mockSource{err: srcErr}
	store := &mockStore{}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeFull})

	err := ctrl.Run(context.Background())
	require.ErrorIs(t, err, srcErr)
	assert.Empty(t, store.writes)
	assert.False(t, store.truncated, "full mode must not wipe prior rows before the source is readable")
}

func TestRunFullModeEmptySourceTruncates(t *testing.T) {
	src := &mockSource{}
	store := &mockStore{}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeFull})

	require.NoError(t, ctrl.Run(context.Background()))
	assert.True(t, store.truncated)
	assert.Empty(t, store.writes)
}

func TestRunWriteFailureAborts(t *testing.T) {
	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1)},
	}}
	store := &mockStore{writeErr: errors.New("disk full")}
	ctrl, notifier := newTestController(src, store, Options{Mode: ModeFull})

	err := ctrl.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, notifier.published)
}

func TestRunCancelledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &mockSource{batches: [][]domain.Earthquake{
		{testQuake(1)},
	}}
	store := &mockStore{}
	ctrl, _ := newTestController(src, store, Options{Mode: ModeIncremental})

	err := ctrl.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.writes)
}

func TestRunDeterministic(t *testing.T) {
	runOnce := func() []writeCall {
		src := &mockSource{batches: [][]domain.Earthquake{
			{testQuake(1), testQuake(2)},
		}}
		store := &mockStore{}
		ctrl, _ := newTestController(src, store, Options{Mode: ModeFull})
		require.NoError(t, ctrl.Run(context.Background()))
		return store.writes
	}

	assert.Equal(t, runOnce(), runOnce())
}
