// Package parse ingests participant move records and parameter vectors.
// Malformed records are reported per line and skipped; ingestion continues.
package parse

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/fourbynine/fourinarow/internal/board"
)

// ErrMalformedInput marks a record that violates the external format.
var ErrMalformedInput = errors.New("malformed input")

// Observation is a single human move: the position it was played from, the
// move itself, the response time in milliseconds, and the participant's
// group and identifier.
type Observation struct {
	Board       board.Board
	Move        board.Move
	Time        float64
	Group       int
	Participant string
}

// Player returns the player who made the move.
func (o Observation) Player() board.Player {
	return o.Move.Player
}

// parsePlayerToken accepts Black/White in either case plus the 0/1 forms.
func parsePlayerToken(tok string) (board.Player, error) {
	switch strings.ToLower(tok) {
	case "black", "0":
		return board.Player1, nil
	case "white", "1":
		return board.Player2, nil
	}
	return 0, fmt.Errorf("%w: unrecognized player token %q", ErrMalformedInput, tok)
}

// moveBitfieldToIndex converts a one-hot move bitfield to its square index.
func moveBitfieldToIndex(v uint64) (int, error) {
	if bits.OnesCount64(v) != 1 {
		return 0, fmt.Errorf("%w: move bitfield %d must have exactly one bit set", ErrMalformedInput, v)
	}
	idx := bits.TrailingZeros64(v)
	if idx >= board.BoardSize {
		return 0, fmt.Errorf("%w: move bit %d is off the board", ErrMalformedInput, idx)
	}
	return idx, nil
}

// ParseObservationLine decodes one CSV record. Fields may be separated by
// commas or by whitespace:
//
//	black_bits, white_bits, player, move_bitfield, time, [group,] participant
//
// black_bits and white_bits are base-10 bitfields with the LSB at square 0.
// The declared player must be the active player on the decoded board, and
// the move bit must land on an empty square.
func ParseObservationLine(line string) (Observation, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) == 1 {
		fields = strings.Fields(line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) != 6 && len(fields) != 7 {
		return Observation{}, fmt.Errorf("%w: expected 6 or 7 fields, got %d", ErrMalformedInput, len(fields))
	}

	blackBits, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: black bitfield %q: %v", ErrMalformedInput, fields[0], err)
	}
	whiteBits, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: white bitfield %q: %v", ErrMalformedInput, fields[1], err)
	}
	if blackBits >= 1<<board.BoardSize || whiteBits >= 1<<board.BoardSize {
		return Observation{}, fmt.Errorf("%w: piece bitfield exceeds %d squares", ErrMalformedInput, board.BoardSize)
	}
	b, err := board.NewFromPatterns(board.NewPattern(blackBits), board.NewPattern(whiteBits))
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	player, err := parsePlayerToken(fields[2])
	if err != nil {
		return Observation{}, err
	}
	if player != b.ActivePlayer() {
		return Observation{}, fmt.Errorf("%w: player %s is not the active player on the given board",
			ErrMalformedInput, player)
	}

	moveBits, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: move bitfield %q: %v", ErrMalformedInput, fields[3], err)
	}
	pos, err := moveBitfieldToIndex(moveBits)
	if err != nil {
		return Observation{}, err
	}

	rt, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: time %q: %v", ErrMalformedInput, fields[4], err)
	}

	group := 1
	participant := fields[5]
	if len(fields) == 7 {
		group, err = strconv.Atoi(fields[5])
		if err != nil {
			return Observation{}, fmt.Errorf("%w: group %q: %v", ErrMalformedInput, fields[5], err)
		}
		participant = fields[6]
	}

	move := board.NewMove(pos, 0, player)
	// Validates the move lands on an empty square of a live game.
	if _, err := b.Add(move); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return Observation{Board: b, Move: move, Time: rt, Group: group, Participant: participant}, nil
}

// FormatObservation renders the canonical tab-separated record; it round
// trips through ParseObservationLine.
func FormatObservation(o Observation) string {
	p1, _ := strconv.ParseUint(o.Board.Pieces(board.Player1).String(), 2, 64)
	p2, _ := strconv.ParseUint(o.Board.Pieces(board.Player2).String(), 2, 64)
	return strings.Join([]string{
		strconv.FormatUint(p1, 10),
		strconv.FormatUint(p2, 10),
		o.Player().String(),
		strconv.FormatUint(1<<o.Move.Position, 10),
		strconv.FormatFloat(o.Time, 'g', -1, 64),
		strconv.Itoa(o.Group),
		o.Participant,
	}, "\t")
}
