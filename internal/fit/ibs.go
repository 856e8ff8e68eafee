package fit

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fourbynine/fourinarow/internal/heuristic"
	"github.com/fourbynine/fourinarow/internal/parse"
	"github.com/fourbynine/fourinarow/internal/search"
)

// Estimator runs Inverse Binomial Sampling batches: for each observation,
// moves are sampled from the heuristic's policy at the observed position
// until the sampled move matches the observed one, with the failed-attempt
// losses accumulating into the observation's tracker.
type Estimator struct {
	cfg Config
	log zerolog.Logger
}

// NewEstimator builds an estimator; the logger may be a no-op.
func NewEstimator(cfg Config, log zerolog.Logger) *Estimator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Estimator{cfg: cfg, log: log}
}

// BatchResult is the outcome of one ComputeLogLik call.
type BatchResult struct {
	// L holds one log-likelihood contribution per observation, in input
	// order. On an aborted batch the values over-estimate the true loss.
	L []float64
	// Aborted is true when the stop loss tripped before every
	// observation reached its required success count. It signals through
	// the loss, never as an error.
	Aborted bool
}

// Sum returns the batch's scalar loss.
func (r BatchResult) Sum() float64 {
	total := 0.0
	for _, l := range r.L {
		total += l
	}
	return total
}

// ComputeLogLik runs one IBS batch over the observations under the given
// model parameter vector. required gives each observation's success
// target; nil means one success each. The batch stops early once the
// shared expected-loss accumulator exceeds cutoff * N.
func (e *Estimator) ComputeLogLik(ctx context.Context, obs []parse.Observation, required []int, modelParams []float64, seed uint64) (BatchResult, error) {
	// Validate the vector before spinning up workers.
	if _, err := heuristic.New(modelParams, true); err != nil {
		return BatchResult{}, err
	}

	trackers := make([]*SuccessFrequencyTracker, len(obs))
	for i := range trackers {
		trackers[i] = NewSuccessFrequencyTracker(e.cfg.ExptFactor)
		if required != nil {
			if r := required[i]; r > 0 {
				trackers[i].RequiredSuccessCount = r
			}
		}
	}
	if len(obs) == 0 {
		return BatchResult{L: nil}, nil
	}

	shared := newSharedState(trackers, e.cfg.ExptFactor, e.cfg.Cutoff)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < e.cfg.Workers; w++ {
		wseed := splitmix64(seed + uint64(w)*0x9e3779b97f4a7c15)
		g.Go(func() error {
			return e.runWorker(ctx, obs, shared, modelParams, wseed)
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{L: make([]float64, len(trackers)), Aborted: shared.tripped()}
	for i, t := range trackers {
		out.L[i] = t.L
	}
	if out.Aborted {
		e.log.Debug().Float64("lexpt", shared.lexpt.Load()).Msg("stop loss tripped; batch loss is an over-estimate")
	}
	return out, nil
}

// runWorker owns one heuristic instance and repeatedly plays success
// rounds: pick a random unfinished observation, sample until the observed
// move comes up, then commit the round if no other worker recorded that
// success first. It exits when the unfinished set drains, the stop loss
// trips, or the context is cancelled.
func (e *Estimator) runWorker(ctx context.Context, obs []parse.Observation, shared *sharedState, modelParams []float64, seed uint64) error {
	h, err := heuristic.New(modelParams, true)
	if err != nil {
		return err
	}
	h.SeedGenerator(seed)
	rng := rand.New(rand.NewPCG(seed, splitmix64(seed)))

	for {
		if ctx.Err() != nil || shared.tripped() {
			return nil
		}
		idx, snapshot, ok := shared.pick(rng)
		if !ok {
			return nil
		}
		o := obs[idx]
		r := float64(snapshot.RequiredSuccessCount)

		round := NewSuccessFrequencyTracker(e.cfg.ExptFactor)
		round.RequiredSuccessCount = snapshot.RequiredSuccessCount
		for {
			if ctx.Err() != nil || shared.tripped() {
				return nil
			}
			m, ok := search.BestMove(h, o.Player(), o.Board)
			if !ok {
				// Terminal observation boards are rejected at parse
				// time; give up on the round rather than spin.
				return nil
			}
			if m.Position == o.Move.Position {
				shared.lexpt.Add(-e.cfg.ExptFactor / r)
				shared.commit(idx, snapshot.SuccessCount, round.L)
				break
			}
			shared.lexpt.Add(e.cfg.ExptFactor / (r * float64(round.AttemptCount)))
			round.ReportSuccess(false)
		}
	}
}
