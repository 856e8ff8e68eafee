package fit

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// dilogGridSize is the resolution of the dilogarithm grid used for target
// calibration. Li2(1-x) is sampled on x in (0, 1) by cumulative summation
// of its derivative log(x)/(1-x), anchored at Li2(1) = pi^2/6.
const dilogGridSize = 1_000_000

// calibrationSplines fits the two calibration curves sqrt(x * Li2(1-x)) and
// sqrt(Li2(1-x) / x) on the grid.
func calibrationSplines(n int) (lo, hi float64, effort, spread interp.NaturalCubic) {
	xs := make([]float64, n)
	y1 := make([]float64, n)
	y2 := make([]float64, n)
	x0, x1 := 1e-6, 1-1e-6
	step := (x1 - x0) / float64(n-1)
	sum := 0.0
	for i := 0; i < n; i++ {
		x := x0 + float64(i)*step
		sum += math.Log(x) / (1 - x)
		dilog := math.Pi*math.Pi/6 + sum/float64(n)
		xs[i] = x
		y1[i] = math.Sqrt(x * dilog)
		y2[i] = math.Sqrt(dilog / x)
	}
	if err := effort.Fit(xs, y1); err != nil {
		panic(err)
	}
	if err := spread.Fit(xs, y2); err != nil {
		panic(err)
	}
	return x0, x1, effort, spread
}

// GenerateAttemptCounts derives each observation's required success count
// from its initial loss estimate, matching expected sampling effort to
// informativeness: R = max(1, round(c * effort(p) / mean(spread(p)))) with
// p = exp(-L).
func GenerateAttemptCounts(lValues []float64, c float64) []int {
	return generateAttemptCounts(lValues, c, dilogGridSize)
}

func generateAttemptCounts(lValues []float64, c float64, gridSize int) []int {
	lo, hi, effort, spread := calibrationSplines(gridSize)
	clamp := func(p float64) float64 {
		return math.Min(hi, math.Max(lo, p))
	}

	spreads := make([]float64, len(lValues))
	for i, l := range lValues {
		spreads[i] = spread.Predict(clamp(math.Exp(-l)))
	}
	meanSpread := stat.Mean(spreads, nil)

	counts := make([]int, len(lValues))
	for i, l := range lValues {
		times := c * effort.Predict(clamp(math.Exp(-l))) / meanSpread
		counts[i] = int(math.Max(1, math.Round(times)))
	}
	return counts
}
