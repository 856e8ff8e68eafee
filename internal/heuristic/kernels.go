package heuristic

import "github.com/fourbynine/fourinarow/internal/board"

// KernelCell marks the role of one cell inside a kernel.
type KernelCell uint8

const (
	KernelEmpty KernelCell = iota
	KernelPiece
	KernelSpace
)

// Kernel is the bounding-box form of a feature: a small grid of piece and
// space cells that gets stamped at every fitting board offset.
type Kernel struct {
	Rows, Cols int
	Cells      []KernelCell
}

// NewKernel builds a kernel from rows of cells. Rows must be equal length.
func NewKernel(rows ...[]KernelCell) Kernel {
	if len(rows) == 0 {
		return Kernel{}
	}
	k := Kernel{Rows: len(rows), Cols: len(rows[0])}
	for _, row := range rows {
		k.Cells = append(k.Cells, row...)
	}
	return k
}

// KernelFromStrings builds a kernel from a row-per-string picture using
// 'x' for pieces, 'o' for spaces and '.' for empty cells.
func KernelFromStrings(rows ...string) Kernel {
	k := Kernel{Rows: len(rows)}
	if len(rows) > 0 {
		k.Cols = len(rows[0])
	}
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			switch row[i] {
			case 'x':
				k.Cells = append(k.Cells, KernelPiece)
			case 'o':
				k.Cells = append(k.Cells, KernelSpace)
			default:
				k.Cells = append(k.Cells, KernelEmpty)
			}
		}
	}
	return k
}

// At returns the cell at (row, col).
func (k Kernel) At(row, col int) KernelCell {
	return k.Cells[row*k.Cols+col]
}

// Equal reports cell-for-cell equality.
func (k Kernel) Equal(other Kernel) bool {
	if k.Rows != other.Rows || k.Cols != other.Cols {
		return false
	}
	for i := range k.Cells {
		if k.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

// Rotate90 returns the kernel rotated a quarter turn counter-clockwise.
func (k Kernel) Rotate90() Kernel {
	out := Kernel{Rows: k.Cols, Cols: k.Rows, Cells: make([]KernelCell, len(k.Cells))}
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			out.Cells[(k.Cols-1-c)*out.Cols+r] = k.At(r, c)
		}
	}
	return out
}

// FlipRows returns the kernel mirrored vertically.
func (k Kernel) FlipRows() Kernel {
	out := Kernel{Rows: k.Rows, Cols: k.Cols, Cells: make([]KernelCell, len(k.Cells))}
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			out.Cells[(k.Rows-1-r)*k.Cols+c] = k.At(r, c)
		}
	}
	return out
}

// FlipCols returns the kernel mirrored horizontally.
func (k Kernel) FlipCols() Kernel {
	out := Kernel{Rows: k.Rows, Cols: k.Cols, Cells: make([]KernelCell, len(k.Cells))}
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			out.Cells[r*k.Cols+k.Cols-1-c] = k.At(r, c)
		}
	}
	return out
}

// Transpose returns the kernel reflected across its main diagonal.
func (k Kernel) Transpose() Kernel {
	out := Kernel{Rows: k.Cols, Cols: k.Rows, Cells: make([]KernelCell, len(k.Cells))}
	for r := 0; r < k.Rows; r++ {
		for c := 0; c < k.Cols; c++ {
			out.Cells[c*out.Cols+r] = k.At(r, c)
		}
	}
	return out
}

func appendIfUnique(kernels []Kernel, candidate Kernel) []Kernel {
	for _, k := range kernels {
		if k.Equal(candidate) {
			return kernels
		}
	}
	return append(kernels, candidate)
}

// SymmetryExpansions returns the kernel plus, optionally, its quarter-turn
// rotations and its four reflections, de-duplicated.
func SymmetryExpansions(k Kernel, rotations, reflections bool) []Kernel {
	kernels := []Kernel{k}
	if rotations {
		rotated := k
		for i := 0; i < 3; i++ {
			rotated = rotated.Rotate90()
			kernels = appendIfUnique(kernels, rotated)
		}
	}
	if reflections {
		base := make([]Kernel, len(kernels))
		copy(base, kernels)
		for _, b := range base {
			kernels = appendIfUnique(kernels, b.FlipRows())
			kernels = appendIfUnique(kernels, b.FlipCols())
			kernels = appendIfUnique(kernels, b.Transpose())
			kernels = appendIfUnique(kernels, b.FlipRows().FlipCols().Transpose())
		}
	}
	return kernels
}

// translations stamps the kernel at every offset that fits the board and
// returns one feature per placement.
func translations(k Kernel, minSpaceOccupancy int) []Feature {
	var out []Feature
	for rOff := 0; rOff+k.Rows <= board.BoardHeight; rOff++ {
		for cOff := 0; cOff+k.Cols <= board.BoardWidth; cOff++ {
			var pieces, spaces board.Pattern
			for r := 0; r < k.Rows; r++ {
				for c := 0; c < k.Cols; c++ {
					pos := board.PositionFromRowCol(rOff+r, cOff+c)
					switch k.At(r, c) {
					case KernelPiece:
						pieces = pieces.Set(pos)
					case KernelSpace:
						spaces = spaces.Set(pos)
					}
				}
			}
			out = append(out, NewFeature(pieces, spaces, minSpaceOccupancy))
		}
	}
	return out
}

// ExpandKernel emits every valid board placement of the kernel, optionally
// first expanding it under rotations and reflections. The output is
// de-duplicated: symmetric kernels that land on identical placements yield
// one feature.
func ExpandKernel(k Kernel, minSpaceOccupancy int, rotations, reflections bool) []Feature {
	var out []Feature
	seen := map[Feature]bool{}
	for _, variant := range SymmetryExpansions(k, rotations, reflections) {
		for _, f := range translations(variant, minSpaceOccupancy) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// ExpandKernels runs ExpandKernel over a kernel list, de-duplicating across
// the whole set.
func ExpandKernels(kernels []Kernel, minSpaceOccupancy int, rotations, reflections bool) []Feature {
	var out []Feature
	seen := map[Feature]bool{}
	for _, k := range kernels {
		for _, f := range ExpandKernel(k, minSpaceOccupancy, rotations, reflections) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
