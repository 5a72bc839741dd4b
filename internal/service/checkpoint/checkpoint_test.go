package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockScan/internal/domain/models"
	"StockScan/pkg/logger"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func testPlan() Plan {
	return Plan{UniverseSignature: "sig-a", SegmentCount: 4, TopN: 10}
}

func testCheckpoint() *Checkpoint {
	return &Checkpoint{
		UniverseSignature: "sig-a",
		SegmentCount:      4,
		NextSegmentIndex:  2,
		TopN:              10,
		Scanned:           200,
		Failed:            8,
		Failures:          map[models.ScanFailureReason]int64{models.ReasonTimeout: 8},
		Candidates:        []models.ScoredCandidate{{Ticker: "7203.T", Score: 80}},
	}
}

func TestRoundTrip(t *testing.T) {
	mgr := NewManager(newMemStore(), "cp", testLogger(t))
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, testCheckpoint()))

	got, err := mgr.Load(ctx, testPlan())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.NextSegmentIndex)
	assert.Equal(t, int64(200), got.Scanned)
	assert.Equal(t, int64(8), got.Failures[models.ReasonTimeout])
	assert.Equal(t, "7203.T", got.Candidates[0].Ticker)
}

func TestLoadMissingKey(t *testing.T) {
	mgr := NewManager(newMemStore(), "cp", testLogger(t))
	got, err := mgr.Load(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadInvalidatesOnPlanMismatch(t *testing.T) {
	cases := []struct {
		name string
		plan Plan
	}{
		{"signature", Plan{UniverseSignature: "sig-b", SegmentCount: 4, TopN: 10}},
		{"segment_count", Plan{UniverseSignature: "sig-a", SegmentCount: 5, TopN: 10}},
		{"top_n", Plan{UniverseSignature: "sig-a", SegmentCount: 4, TopN: 20}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			mgr := NewManager(store, "cp", testLogger(t))
			ctx := context.Background()
			require.NoError(t, mgr.Save(ctx, testCheckpoint()))

			got, err := mgr.Load(ctx, tc.plan)
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.Empty(t, store.values, "mismatched checkpoint must be deleted")
		})
	}
}

func TestLoadDiscardsCorruptBlob(t *testing.T) {
	store := newMemStore()
	store.values["cp"] = `{"version":1,"segment_count":`
	mgr := NewManager(store, "cp", testLogger(t))

	got, err := mgr.Load(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, store.values)
}

func TestLoadDiscardsWrongVersion(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store, "cp", testLogger(t))
	ctx := context.Background()

	cp := testCheckpoint()
	require.NoError(t, mgr.Save(ctx, cp))
	cp.Version = Version + 1
	raw, err := Encode(cp)
	require.NoError(t, err)
	store.values["cp"] = raw

	got, err := mgr.Load(ctx, testPlan())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadDiscardsCompletedCheckpoint(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store, "cp", testLogger(t))
	ctx := context.Background()

	cp := testCheckpoint()
	cp.NextSegmentIndex = cp.SegmentCount
	require.NoError(t, mgr.Save(ctx, cp))

	got, err := mgr.Load(ctx, testPlan())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, store.values)
}

func TestDecodeRejectsInconsistentCounters(t *testing.T) {
	cp := testCheckpoint()
	cp.FetchOK = cp.Scanned + 1
	raw, err := Encode(cp)
	require.NoError(t, err)
	_, err = Decode(raw)
	assert.Error(t, err)
}

func TestDecodeAllowsFailedAboveScanned(t *testing.T) {
	// A run where every ticker hard-failed before producing bars has
	// failed > scanned; that is a legal checkpoint.
	cp := testCheckpoint()
	cp.Scanned = 0
	cp.FetchOK = 0
	cp.Failed = 7
	raw, err := Encode(cp)
	require.NoError(t, err)
	_, err = Decode(raw)
	require.NoError(t, err)
}

func TestClear(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store, "cp", testLogger(t))
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, testCheckpoint()))
	require.NoError(t, mgr.Clear(ctx))
	assert.Empty(t, store.values)
}
