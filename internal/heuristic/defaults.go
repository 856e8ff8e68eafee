package heuristic

import "sync"

// DefaultBADSParameters is the canonical optimizer starting point.
func DefaultBADSParameters() []float64 {
	return []float64{2.0, 0.02, 0.2, 0.05, 1.2, 0.8, 1, 0.4, 3.5, 5}
}

// DefaultParameters is the 58-entry model vector derived from the default
// optimizer vector.
func DefaultParameters() []float64 {
	params, err := BadsToModelParameters(DefaultBADSParameters())
	if err != nil {
		panic(err)
	}
	return params
}

// The default feature catalog: 17 packs indexed orientation*4 + type for
// four line orientations and four threat types, with pack 16 reserved
// (zero-weighted, empty) so indices line up with the model vector.
const (
	orientationHorizontal = iota
	orientationVertical
	orientationDiagonal
	orientationAntiDiagonal
	orientationCount
)

const (
	typeConnectedTwo = iota
	typeUnconnectedTwo
	typeThree
	typeFour
	typeCount
)

// typeKernels gives the horizontal window variants per threat type as
// 'x' (piece) / 'o' (required space) pictures, with the minimum number of
// empty spaces the feature needs to stay live.
var typeKernels = [typeCount]struct {
	rows   []string
	minOcc int
}{
	typeConnectedTwo:   {[]string{"xxoo", "oxxo", "ooxx"}, 2},
	typeUnconnectedTwo: {[]string{"xoxo", "oxox", "xoox"}, 2},
	typeThree:          {[]string{"xxxo", "xxox", "xoxx", "oxxx"}, 1},
	typeFour:           {[]string{"xxxx"}, 0},
}

// orientKernel maps a horizontal 1x4 window kernel into the requested line
// orientation.
func orientKernel(cells string, orientation int) Kernel {
	switch orientation {
	case orientationHorizontal:
		return KernelFromStrings(cells)
	case orientationVertical:
		return KernelFromStrings(cells).Transpose()
	case orientationDiagonal:
		rows := make([]string, 4)
		for i := 0; i < 4; i++ {
			row := []byte("....")
			row[i] = cells[i]
			rows[i] = string(row)
		}
		return KernelFromStrings(rows...)
	default:
		rows := make([]string, 4)
		for i := 0; i < 4; i++ {
			row := []byte("....")
			row[3-i] = cells[i]
			rows[i] = string(row)
		}
		return KernelFromStrings(rows...)
	}
}

var (
	defaultFeaturesOnce sync.Once
	defaultFeatures     [DefaultPackCount][]Feature
)

// defaultPackFeatures returns the shared, immutable feature lists of the
// default catalog. Packs of one heuristic instance copy the pack structs
// but share these slices.
func defaultPackFeatures() [DefaultPackCount][]Feature {
	defaultFeaturesOnce.Do(func() {
		for o := 0; o < orientationCount; o++ {
			for t := 0; t < typeCount; t++ {
				kernels := make([]Kernel, 0, len(typeKernels[t].rows))
				for _, cells := range typeKernels[t].rows {
					kernels = append(kernels, orientKernel(cells, o))
				}
				defaultFeatures[o*typeCount+t] = ExpandKernels(kernels, typeKernels[t].minOcc, false, false)
			}
		}
		// Pack 16 stays empty.
	})
	return defaultFeatures
}
