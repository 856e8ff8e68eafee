// Command fourinarow-play plays the heuristic against itself and emits the
// resulting games as observation CSV records, ready for the fitting tool.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fourbynine/fourinarow/internal/board"
	"github.com/fourbynine/fourinarow/internal/heuristic"
	"github.com/fourbynine/fourinarow/internal/parse"
	"github.com/fourbynine/fourinarow/internal/search"
)

var (
	games       = flag.Int("n", 1, "number of games to play")
	seed        = flag.Uint64("seed", 0, "heuristic seed; 0 derives one from the clock")
	noise       = flag.Bool("noise", true, "enable the heuristic's noise model")
	participant = flag.String("p", "DefaultHeuristic", "participant id stamped on the records")
	showBoards  = flag.Bool("b", false, "print the final board of each game")
)

func main() {
	flag.Parse()

	runSeed := *seed
	if runSeed == 0 {
		runSeed = uint64(time.Now().UnixNano())
	}
	h := heuristic.Default()
	h.SeedGenerator(runSeed)
	h.SetNoiseEnabled(*noise)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for g := 0; g < *games; g++ {
		final, err := playGame(h, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "game %d: %v\n", g+1, err)
			os.Exit(1)
		}
		if *showBoards {
			fmt.Fprintln(os.Stderr, final)
		}
	}
}

// playGame runs one self-play game to completion, writing one observation
// record per move.
func playGame(h *heuristic.Heuristic, out *bufio.Writer) (board.Board, error) {
	b := board.New()
	for !b.GameHasEnded() {
		player := b.ActivePlayer()
		start := time.Now()
		move, ok := search.BestMove(h, player, b)
		if !ok {
			return b, fmt.Errorf("no move from a live position")
		}
		record := parse.Observation{
			Board:       b,
			Move:        move,
			Time:        float64(time.Since(start).Milliseconds()),
			Group:       1,
			Participant: *participant,
		}
		if _, err := out.WriteString(parse.FormatObservation(record) + "\n"); err != nil {
			return b, err
		}
		var err error
		b, err = b.Add(move)
		if err != nil {
			return b, err
		}
	}
	return b, nil
}
