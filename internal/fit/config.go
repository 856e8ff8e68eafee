package fit

// Config carries the model constants, optimizer box and execution knobs of
// a fit run.
type Config struct {
	// ExptFactor scales every tracker's loss contributions.
	ExptFactor float64
	// Cutoff is the stop-loss multiplier: a batch aborts once the shared
	// expected-loss accumulator exceeds Cutoff times the batch size.
	Cutoff float64
	// C scales the calibrated per-observation success targets.
	C float64

	// Optimizer starting point and bounds, in the 10-entry space.
	X0  []float64
	LB  []float64
	UB  []float64
	PLB []float64
	PUB []float64

	// CalibrationPasses is the number of IBS passes averaged when
	// deriving the per-observation success targets, and again for the
	// final loss estimates.
	CalibrationPasses int
	// MaxFunEvals bounds the outer optimizer's objective evaluations.
	MaxFunEvals int

	// Workers is the IBS pool width.
	Workers int
	// SubsampleSize, when positive, evaluates only min(SubsampleSize, N)
	// observations per objective call, sampled without replacement.
	SubsampleSize int

	// Seed drives split shuffling, subsampling and worker generators.
	Seed uint64
}

// DefaultConfig returns the canonical model constants and optimizer box.
func DefaultConfig() Config {
	return Config{
		ExptFactor:        1.0,
		Cutoff:            3.5,
		C:                 50,
		X0:                []float64{2.0, 0.02, 0.2, 0.05, 1.2, 0.8, 1, 0.4, 3.5, 5},
		UB:                []float64{10.0, 1, 1, 1, 4, 10, 10, 10, 10, 10},
		LB:                []float64{0.1, 0.001, 0, 0, 0.25, -10, -10, -10, -10, -10},
		PUB:               []float64{9.99, 0.99, 0.5, 0.5, 2, 5, 5, 5, 5, 5},
		PLB:               []float64{1, 0.1, 0.001, 0.05, 0.5, -5, -5, -5, -5, -5},
		CalibrationPasses: 10,
		MaxFunEvals:       2000,
		Workers:           16,
	}
}
