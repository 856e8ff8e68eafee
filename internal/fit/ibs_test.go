package fit

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourbynine/fourinarow/internal/board"
	"github.com/fourbynine/fourinarow/internal/heuristic"
	"github.com/fourbynine/fourinarow/internal/parse"
)

func centerObservation() parse.Observation {
	return parse.Observation{
		Board:       board.New(),
		Move:        board.NewMove(13, 0, board.Player1),
		Time:        1000,
		Group:       1,
		Participant: "subject",
	}
}

func defaultModelParams(t testing.TB) []float64 {
	t.Helper()
	model, err := heuristic.BadsToModelParameters(DefaultConfig().X0)
	require.NoError(t, err)
	return model
}

func TestSingleObservationMeanLoss(t *testing.T) {
	// With R = 1, IBS reduces to sampling until the first match. Over
	// repeated independent calls the mean loss brackets -log p(move 13).
	if testing.Short() {
		t.Skip("sampling-heavy")
	}
	cfg := DefaultConfig()
	cfg.Workers = 2
	est := NewEstimator(cfg, zerolog.Nop())
	obs := []parse.Observation{centerObservation()}
	model := defaultModelParams(t)

	const calls = 1000
	total := 0.0
	for i := 0; i < calls; i++ {
		res, err := est.ComputeLogLik(context.Background(), obs, nil, model, uint64(i)*77+1)
		require.NoError(t, err)
		require.Len(t, res.L, 1)
		total += res.L[0]
	}
	mean := total / calls
	assert.Greater(t, mean, 0.5, "mean loss %g", mean)
	assert.Less(t, mean, 3.5, "mean loss %g", mean)
	t.Logf("mean IBS loss over %d calls: %g", calls, mean)
}

func TestComputeLogLikDeterministicSingleWorker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	est := NewEstimator(cfg, zerolog.Nop())
	obs := []parse.Observation{centerObservation()}
	model := defaultModelParams(t)

	a, err := est.ComputeLogLik(context.Background(), obs, nil, model, 99)
	require.NoError(t, err)
	b, err := est.ComputeLogLik(context.Background(), obs, nil, model, 99)
	require.NoError(t, err)
	assert.Equal(t, a.L, b.L, "one worker and a fixed seed must reproduce the batch")
}

func TestStopLossInfiniteCutoffRunsToCompletion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Cutoff = math.Inf(1)
	est := NewEstimator(cfg, zerolog.Nop())
	obs := []parse.Observation{centerObservation(), centerObservation()}

	res, err := est.ComputeLogLik(context.Background(), obs, []int{2, 3}, defaultModelParams(t), 7)
	require.NoError(t, err)
	assert.False(t, res.Aborted, "an infinite cutoff must never trip the stop loss")
	require.Len(t, res.L, 2)
}

func TestStopLossTrips(t *testing.T) {
	// A cutoff below the accumulator's starting value aborts immediately;
	// the returned loss is a usable over-estimate, not an error.
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Cutoff = 0.5
	est := NewEstimator(cfg, zerolog.Nop())
	// An off-center target square keeps the success probability low.
	o := centerObservation()
	o.Move = board.NewMove(0, 0, board.Player1)

	res, err := est.ComputeLogLik(context.Background(), []parse.Observation{o}, []int{1000}, defaultModelParams(t), 11)
	require.NoError(t, err)
	assert.True(t, res.Aborted)
}

func TestComputeLogLikRejectsBadVector(t *testing.T) {
	est := NewEstimator(DefaultConfig(), zerolog.Nop())
	_, err := est.ComputeLogLik(context.Background(), []parse.Observation{centerObservation()}, nil, make([]float64, 12), 1)
	assert.ErrorIs(t, err, heuristic.ErrInvalidParameterVector)
}

func TestComputeLogLikEmptyBatch(t *testing.T) {
	est := NewEstimator(DefaultConfig(), zerolog.Nop())
	res, err := est.ComputeLogLik(context.Background(), nil, nil, defaultModelParams(t), 1)
	require.NoError(t, err)
	assert.Empty(t, res.L)
	assert.Zero(t, res.Sum())
}

func TestAtomicFloat64(t *testing.T) {
	var f atomicFloat64
	f.Store(1.0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				f.Add(0.5)
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 1.0+8*1000*0.5, f.Load(), 1e-9)
}

func TestSharedStateCommitRaces(t *testing.T) {
	trackers := []*SuccessFrequencyTracker{NewSuccessFrequencyTracker(1.0)}
	trackers[0].RequiredSuccessCount = 2
	s := newSharedState(trackers, 1.0, math.Inf(1))

	// Two workers raced the same success round; only the first commit
	// from the shared base count lands.
	assert.True(t, s.commit(0, 0, 0.5))
	assert.False(t, s.commit(0, 0, 0.5), "duplicate success must be discarded")
	assert.True(t, s.commit(0, 1, 0.25))
	assert.False(t, s.commit(0, 2, 0.1), "done trackers reject further commits")

	assert.True(t, trackers[0].IsDone())
	assert.InDelta(t, 0.75, trackers[0].L, 1e-12)
	assert.True(t, s.empty())
}
