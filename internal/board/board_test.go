package board

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// playSequence alternates players starting with Player1, as in a real game.
func playSequence(t *testing.T, positions []int) Board {
	t.Helper()
	b := New()
	for i, pos := range positions {
		var err error
		b, err = b.Add(NewMove(pos, 0, PlayerFromBool(i%2 == 1)))
		if err != nil {
			t.Fatalf("move %d at %d: %v", i, pos, err)
		}
	}
	return b
}

func TestRowZeroWin(t *testing.T) {
	// Alternating play at [0, 35, 1, 34, 2, 33, 3] gives Player1 row 0,
	// columns 0-3.
	b := playSequence(t, []int{0, 35, 1, 34, 2, 33, 3})
	if !b.HasWin(Player1) {
		t.Error("Player1 should have won")
	}
	if !b.GameHasEnded() {
		t.Error("game should have ended")
	}
	if w, ok := b.Winner(); !ok || w != Player1 {
		t.Errorf("winner = %v, %v; want Player1, true", w, ok)
	}
}

func TestUndoWin(t *testing.T) {
	b := playSequence(t, []int{0, 35, 1, 34, 2, 33, 3})
	undone, err := b.Remove(NewMove(3, 0, Player1))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if undone.GameHasEnded() {
		t.Error("game should not be over after undoing the winning move")
	}
	want := playSequence(t, []int{0, 35, 1, 34, 2, 33})
	if undone != want {
		t.Errorf("undone board differs from the six-move board:\n%v\nwant:\n%v", undone, want)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 100; trial++ {
		b := New()
		for i := 0; i < 10 && !b.GameHasEnded(); i++ {
			spaces := b.Spaces().Positions()
			pos := spaces[rng.IntN(len(spaces))]
			m := NewMove(pos, 0, b.ActivePlayer())
			next, err := b.Add(m)
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			back, err := next.Remove(m)
			if err != nil {
				t.Fatalf("remove: %v", err)
			}
			if back != b {
				t.Fatalf("(b + m) - m != b for move at %d", pos)
			}
			b = next
		}
	}
}

func TestActivePlayer(t *testing.T) {
	b := New()
	if b.ActivePlayer() != Player1 {
		t.Error("Player1 moves first on the empty board")
	}
	b, _ = b.Add(NewMove(4, 0, Player1))
	if b.ActivePlayer() != Player2 {
		t.Error("Player2 to move after one Player1 piece")
	}
	b, _ = b.Add(NewMove(5, 0, Player2))
	if b.ActivePlayer() != Player1 {
		t.Error("equal counts means Player1 to move")
	}
}

func TestIllegalMoves(t *testing.T) {
	b := New()
	b, _ = b.Add(NewMove(10, 0, Player1))

	if _, err := b.Add(NewMove(10, 0, Player2)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("play on occupied square: err = %v, want ErrIllegalMove", err)
	}
	if _, err := b.Add(NewMove(-1, 0, Player1)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("negative position: err = %v, want ErrIllegalMove", err)
	}
	if _, err := b.Add(NewMove(BoardSize, 0, Player1)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("position past the board: err = %v, want ErrIllegalMove", err)
	}
	if _, err := b.Remove(NewMove(10, 0, Player2)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("undo of the other player's piece: err = %v, want ErrIllegalMove", err)
	}

	won := playSequence(t, []int{0, 35, 1, 34, 2, 33, 3})
	if _, err := won.Add(NewMove(20, 0, Player2)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("play after game end: err = %v, want ErrIllegalMove", err)
	}
}

func TestWinMaskCount(t *testing.T) {
	// 4x9: 4 rows x 6 windows + 9 columns + 2 diagonals x 6 windows.
	want := 4*6 + 9 + 2*6
	if len(WinMasks) != want {
		t.Errorf("len(WinMasks) = %d, want %d", len(WinMasks), want)
	}
	seen := map[Pattern]bool{}
	for _, m := range WinMasks {
		if m.Count() != 4 {
			t.Errorf("mask %036b has %d bits, want 4", uint64(m), m.Count())
		}
		if seen[m] {
			t.Errorf("duplicate mask %036b", uint64(m))
		}
		seen[m] = true
	}
}

func TestTerminalDetection(t *testing.T) {
	cases := []struct {
		name      string
		positions []int
	}{
		{"column", []int{0, 1, 9, 2, 18, 3, 27}},
		{"diagonal", []int{0, 1, 10, 2, 20, 3, 30}},
		{"antidiagonal", []int{27, 1, 19, 2, 11, 4, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := playSequence(t, tc.positions)
			if !b.HasWin(Player1) {
				t.Errorf("Player1 should have a %s win:\n%v", tc.name, b)
			}
		})
	}
}

func TestOverlappingPatternsRejected(t *testing.T) {
	if _, err := NewFromPatterns(PatternFromPositions(3), PatternFromPositions(3, 4)); err == nil {
		t.Error("overlapping patterns should be rejected")
	}
	if _, err := NewFromPatterns(Pattern(1)<<40, 0); err == nil {
		t.Error("out-of-range pattern should be rejected")
	}
}

func TestCountingHelpers(t *testing.T) {
	b, err := NewFromPatterns(PatternFromPositions(0, 1, 2), PatternFromPositions(9, 10))
	if err != nil {
		t.Fatal(err)
	}
	mask := PatternFromPositions(0, 1, 9, 18)
	if got := b.CountPieces(mask, Player1); got != 2 {
		t.Errorf("CountPieces(Player1) = %d, want 2", got)
	}
	if got := b.CountPieces(mask, Player2); got != 1 {
		t.Errorf("CountPieces(Player2) = %d, want 1", got)
	}
	if got := b.CountSpaces(mask); got != 1 {
		t.Errorf("CountSpaces = %d, want 1", got)
	}
	if got := b.MissingPieces(PatternFromPositions(0, 3), Player1); got != PatternFromPositions(3) {
		t.Errorf("MissingPieces = %v", got.Positions())
	}
}
