package board

// winPatterns enumerates every set of four collinear squares (row, column,
// or either diagonal) that fits on a height x width board. The board is
// assumed to use the same row-major indexing as the 4x9 variant.
func winPatterns(height, width int) []Pattern {
	var masks []Pattern
	add := func(positions [4][2]int) {
		var p Pattern
		for _, rc := range positions {
			p = p.Set(rc[0]*width + rc[1])
		}
		masks = append(masks, p)
	}
	for r := 0; r < height; r++ {
		for c := 0; c+3 < width; c++ {
			add([4][2]int{{r, c}, {r, c + 1}, {r, c + 2}, {r, c + 3}})
		}
	}
	for c := 0; c < width; c++ {
		for r := 0; r+3 < height; r++ {
			add([4][2]int{{r, c}, {r + 1, c}, {r + 2, c}, {r + 3, c}})
		}
	}
	for r := 0; r+3 < height; r++ {
		for c := 0; c+3 < width; c++ {
			add([4][2]int{{r, c}, {r + 1, c + 1}, {r + 2, c + 2}, {r + 3, c + 3}})
			add([4][2]int{{r + 3, c}, {r + 2, c + 1}, {r + 1, c + 2}, {r, c + 3}})
		}
	}
	return masks
}

// WinMasks holds every 4-in-a-row mask for the 4x9 board.
var WinMasks = winPatterns(BoardHeight, BoardWidth)

// winMasksByPosition[i] lists the masks that include square i, so a check
// for a win through one square (Board.wonThrough) scans only the lines
// through it. GameHasEnded and HasWin scan every mask.
var winMasksByPosition = func() [BoardSize][]Pattern {
	var table [BoardSize][]Pattern
	for _, m := range WinMasks {
		m.ForEach(func(pos int) {
			table[pos] = append(table[pos], m)
		})
	}
	return table
}()
