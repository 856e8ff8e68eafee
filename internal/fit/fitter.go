package fit

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/fourbynine/fourinarow/internal/heuristic"
	"github.com/fourbynine/fourinarow/internal/parse"
)

// boundsPenalty is returned for optimizer probes outside the box, plus a
// distance term to slope the penalty back toward the feasible region.
const boundsPenalty = 1e9

// FitResult is the outcome of one model fit.
type FitResult struct {
	// Params is the fitted 10-entry optimizer vector.
	Params []float64
	// LLTrain holds the final loss estimates: one summed IBS loss per
	// calibration pass at the fitted parameters.
	LLTrain []float64
	// Required records the calibrated success target per observation.
	Required []int
}

// Fitter runs the full fitting pipeline: target calibration, the outer
// noisy optimization, and final loss passes.
type Fitter struct {
	cfg Config
	log zerolog.Logger
	est *Estimator
	rng *rand.Rand
}

// NewFitter builds a fitter; the logger may be a no-op.
func NewFitter(cfg Config, log zerolog.Logger) *Fitter {
	return &Fitter{
		cfg: cfg,
		log: log,
		est: NewEstimator(cfg, log),
		rng: rand.New(rand.NewPCG(cfg.Seed, splitmix64(cfg.Seed))),
	}
}

// Estimator exposes the fitter's IBS estimator.
func (f *Fitter) Estimator() *Estimator {
	return f.est
}

// FitModel calibrates per-observation success targets at the starting
// point, optimizes the summed IBS loss over the parameter box, and
// finishes with CalibrationPasses loss estimates at the optimum.
func (f *Fitter) FitModel(ctx context.Context, obs []parse.Observation) (*FitResult, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations to fit")
	}

	required, err := f.calibrate(ctx, obs)
	if err != nil {
		return nil, err
	}

	evals := 0
	objective := func(x []float64) float64 {
		if penalty, out := f.outOfBounds(x); out {
			return penalty
		}
		total, err := f.batchLoss(ctx, obs, required, x)
		if err != nil {
			// Invalid vectors and cancelled contexts surface as a
			// prohibitive loss; Minimize has no error channel per probe.
			return boundsPenalty
		}
		evals++
		f.log.Debug().Int("eval", evals).Floats64("theta", x).Float64("loss", total).Msg("objective probe")
		return total
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{FuncEvaluations: f.cfg.MaxFunEvals}
	result, err := optimize.Minimize(problem, append([]float64(nil), f.cfg.X0...), settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, err
	}
	f.log.Info().Floats64("theta", result.X).Float64("loss", result.F).Int("evals", evals).Msg("optimizer finished")

	llTrain := make([]float64, 0, f.cfg.CalibrationPasses)
	for i := 0; i < f.cfg.CalibrationPasses; i++ {
		total, err := f.batchLoss(ctx, obs, required, result.X)
		if err != nil {
			return nil, err
		}
		llTrain = append(llTrain, total)
	}

	return &FitResult{
		Params:   append([]float64(nil), result.X...),
		LLTrain:  llTrain,
		Required: required,
	}, nil
}

// calibrate estimates each observation's initial loss at the starting
// point by averaged IBS passes and derives its required success count.
func (f *Fitter) calibrate(ctx context.Context, obs []parse.Observation) ([]int, error) {
	model, err := heuristic.BadsToModelParameters(f.cfg.X0)
	if err != nil {
		return nil, err
	}
	f.log.Info().Int("observations", len(obs)).Int("passes", f.cfg.CalibrationPasses).
		Msg("estimating initial log-likelihoods")

	avg := make([]float64, len(obs))
	passes := f.cfg.CalibrationPasses
	if passes < 1 {
		passes = 1
	}
	for pass := 0; pass < passes; pass++ {
		res, err := f.est.ComputeLogLik(ctx, obs, nil, model, f.rng.Uint64())
		if err != nil {
			return nil, err
		}
		for i, l := range res.L {
			avg[i] += l
		}
	}
	for i := range avg {
		avg[i] /= float64(passes)
	}
	return GenerateAttemptCounts(avg, f.cfg.C), nil
}

// batchLoss maps a 10-vector to model parameters and sums one IBS batch,
// optionally over a fresh without-replacement subsample.
func (f *Fitter) batchLoss(ctx context.Context, obs []parse.Observation, required []int, x []float64) (float64, error) {
	model, err := heuristic.BadsToModelParameters(x)
	if err != nil {
		return 0, err
	}
	batchObs, batchReq := obs, required
	if s := f.cfg.SubsampleSize; s > 0 && s < len(obs) {
		batchObs, batchReq = subsample(obs, required, s, rand.New(rand.NewPCG(f.rng.Uint64(), f.rng.Uint64())))
	}
	res, err := f.est.ComputeLogLik(ctx, batchObs, batchReq, model, f.rng.Uint64())
	if err != nil {
		return 0, err
	}
	return res.Sum(), nil
}

// subsample draws size observations without replacement.
func subsample(obs []parse.Observation, required []int, size int, rng *rand.Rand) ([]parse.Observation, []int) {
	picked := rng.Perm(len(obs))[:size]
	outObs := make([]parse.Observation, 0, size)
	outReq := make([]int, 0, size)
	for _, idx := range picked {
		outObs = append(outObs, obs[idx])
		outReq = append(outReq, required[idx])
	}
	return outObs, outReq
}

// outOfBounds reports whether x leaves the optimizer box, with a sloped
// penalty value steering probes back inside.
func (f *Fitter) outOfBounds(x []float64) (float64, bool) {
	if len(x) != len(f.cfg.LB) {
		return boundsPenalty, true
	}
	excess := 0.0
	for i := range x {
		if x[i] < f.cfg.LB[i] {
			excess += f.cfg.LB[i] - x[i]
		}
		if x[i] > f.cfg.UB[i] {
			excess += x[i] - f.cfg.UB[i]
		}
	}
	if excess > 0 {
		return boundsPenalty * (1 + excess), true
	}
	return 0, false
}

// CrossValidate fits on every group except the held-out one and reports
// the held-out per-observation losses at the fitted parameters. With a
// single group it trains and tests on the same data.
func (f *Fitter) CrossValidate(ctx context.Context, groups [][]parse.Observation, holdOut int) (*FitResult, []float64, error) {
	if holdOut < 0 || holdOut >= len(groups) {
		return nil, nil, fmt.Errorf("hold-out split %d out of range [0, %d)", holdOut, len(groups))
	}
	test := groups[holdOut]
	var train []parse.Observation
	if len(groups) == 1 {
		train = append(train, groups[0]...)
	} else {
		for i, g := range groups {
			if i != holdOut {
				train = append(train, g...)
			}
		}
	}

	result, err := f.FitModel(ctx, train)
	if err != nil {
		return nil, nil, err
	}

	model, err := heuristic.BadsToModelParameters(result.Params)
	if err != nil {
		return nil, nil, err
	}
	res, err := f.est.ComputeLogLik(ctx, test, nil, model, f.rng.Uint64())
	if err != nil {
		return nil, nil, err
	}
	return result, res.L, nil
}
