package search

import (
	"testing"

	"github.com/fourbynine/fourinarow/internal/board"
	"github.com/fourbynine/fourinarow/internal/heuristic"
)

func defaultHeuristic(t *testing.T, noise bool, seed uint64) *heuristic.Heuristic {
	t.Helper()
	h, err := heuristic.New(heuristic.DefaultParameters(), noise)
	if err != nil {
		t.Fatal(err)
	}
	h.SeedGenerator(seed)
	return h
}

func TestOpeningMoveGolden(t *testing.T) {
	// Golden: with default parameters, noise off, seed 0, the search from
	// the empty board prefers one of the two center-adjacent squares.
	h := defaultHeuristic(t, false, 0)
	s := New(h, board.Player1, board.New())
	s.Run(0)

	if s.State() != Complete {
		t.Fatal("search should have completed")
	}
	best, ok := s.BestRootMove()
	if !ok {
		t.Fatal("no best move from the empty board")
	}
	if best.Position != 13 && best.Position != 22 {
		t.Errorf("best opening move = %d, want 13 or 22", best.Position)
	}
	t.Logf("opening move %d after %d expansions, abf %.2f",
		best.Position, s.Expansions(), s.AverageBranchingFactor())
}

func TestDeterministicReplay(t *testing.T) {
	// Identical seeds and noise disabled must reproduce the tree exactly:
	// same size, same expansion count, same values in arena order.
	run := func() *BestFirstSearch {
		h := defaultHeuristic(t, false, 42)
		s := New(h, board.Player1, board.New())
		s.Run(0)
		return s
	}
	a, b := run(), run()
	if a.Size() != b.Size() || a.Expansions() != b.Expansions() {
		t.Fatalf("tree shapes differ: %d/%d nodes, %d/%d expansions",
			a.Size(), b.Size(), a.Expansions(), b.Expansions())
	}
	for id := 0; id < a.Size(); id++ {
		na, nb := a.Node(NodeID(id)), b.Node(NodeID(id))
		if na.Value != nb.Value || na.MoveIn.Position != nb.MoveIn.Position || na.Depth != nb.Depth {
			t.Fatalf("node %d differs between runs", id)
		}
	}
}

func TestTerminalRootCompletesEmpty(t *testing.T) {
	b := board.New()
	for i, pos := range []int{0, 35, 1, 34, 2, 33, 3} {
		var err error
		b, err = b.Add(board.NewMove(pos, 0, board.PlayerFromBool(i%2 == 1)))
		if err != nil {
			t.Fatal(err)
		}
	}
	h := defaultHeuristic(t, false, 0)
	s := New(h, b.ActivePlayer(), b)
	if s.State() != Complete {
		t.Error("search on a terminal root should be Complete at construction")
	}
	if len(s.ChildrenOfRoot()) != 0 {
		t.Error("terminal root should have no children")
	}
	if s.Advance() {
		t.Error("Advance on a complete search should report not running")
	}
}

func TestWinningMoveFound(t *testing.T) {
	// Player1 has three in a row at 0..2 and to move; 3 wins on the spot.
	b, err := board.NewFromPatterns(
		board.PatternFromPositions(0, 1, 2),
		board.PatternFromPositions(18, 19, 20),
	)
	if err != nil {
		t.Fatal(err)
	}
	h := defaultHeuristic(t, false, 0)
	s := New(h, board.Player1, b)
	s.Run(0)
	best, ok := s.BestRootMove()
	if !ok {
		t.Fatal("expected a best move")
	}
	// 3 completes row 0; 21 completes the opponent block but not a win.
	if best.Position != 3 {
		t.Errorf("best move = %d, want the winning square 3", best.Position)
	}
	if best.Value < heuristic.WinScore {
		t.Errorf("winning move value = %g, want the win sentinel", best.Value)
	}
}

func TestExpansionBudget(t *testing.T) {
	// A huge stopping threshold and gamma 0 leave only the per-call
	// budget to stop the search.
	params := heuristic.DefaultParameters()
	params[2] = 0 // gamma
	h, err := heuristic.New(params, false)
	if err != nil {
		t.Fatal(err)
	}
	s := New(h, board.Player1, board.New())
	s.Run(5)
	if s.State() != Complete {
		t.Error("budgeted run should complete the search")
	}
	if s.Expansions() > 5 {
		t.Errorf("expansions = %d, want at most 5", s.Expansions())
	}
}

func TestPruningLimitsChildren(t *testing.T) {
	// With a tight pruning threshold the root keeps only near-best
	// children; with a loose one every legal move materializes.
	tight := heuristic.DefaultParameters()
	tight[1] = 0.01
	loose := heuristic.DefaultParameters()
	loose[1] = 1e6

	count := func(params []float64) int {
		h, err := heuristic.New(params, false)
		if err != nil {
			t.Fatal(err)
		}
		s := New(h, board.Player1, board.New())
		s.Run(1)
		return len(s.ChildrenOfRoot())
	}
	nTight, nLoose := count(tight), count(loose)
	if nLoose != board.BoardSize {
		t.Errorf("loose threshold kept %d children, want %d", nLoose, board.BoardSize)
	}
	if nTight >= nLoose {
		t.Errorf("tight threshold kept %d children, loose kept %d", nTight, nLoose)
	}
}

func TestDepthOfPVGrows(t *testing.T) {
	h := defaultHeuristic(t, false, 9)
	s := New(h, board.Player1, board.New())
	s.Advance()
	if s.DepthOfPV() < 1 {
		t.Errorf("PV depth = %d after one expansion, want >= 1", s.DepthOfPV())
	}
	s.Run(0)
	if s.DepthOfPV() < 1 {
		t.Errorf("PV depth = %d after completion", s.DepthOfPV())
	}
	t.Logf("final PV depth %d over %d nodes", s.DepthOfPV(), s.Size())
}

func TestBestMoveLapse(t *testing.T) {
	// With lapse_rate 1 and noise on, BestMove always plays the uniform
	// lapse channel; the returned square only needs to be legal.
	params := heuristic.DefaultParameters()
	params[3] = 1.0
	h, err := heuristic.New(params, true)
	if err != nil {
		t.Fatal(err)
	}
	h.SeedGenerator(3)
	m, ok := BestMove(h, board.Player1, board.New())
	if !ok {
		t.Fatal("BestMove on the empty board should succeed")
	}
	if m.Position < 0 || m.Position >= board.BoardSize {
		t.Errorf("lapse move out of range: %d", m.Position)
	}
}
