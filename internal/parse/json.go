package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fourbynine/fourinarow/internal/board"
)

// freePlayGame is one recorded game: the move sequence from the empty
// board, the color the participant played, and per-move response times.
type freePlayGame struct {
	Solution    string    `json:"solution"`
	PlayerColor string    `json:"player_color"`
	AllMoveRT   []float64 `json:"all_move_RT"`
}

type participantRecord struct {
	FreePlay []*freePlayGame `json:"free_play"`
}

// ParseParticipantJSON decodes a participant JSON document. Each game's
// solution is replayed from the empty board; the moves whose color matches
// player_color become observations. Malformed games are skipped and
// reported; games are not de-duplicated. A non-nil error means the data is
// not JSON at all, so callers can fall back to CSV.
func ParseParticipantJSON(data []byte, group int, participant string) ([]Observation, []error, error) {
	var root participantRecord
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}

	var (
		obs     []Observation
		skipped []error
	)
	for gi, game := range root.FreePlay {
		if game == nil {
			continue
		}
		candidates, err := replayGame(game, group, participant)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("skipping game %d with solution %q: %w", gi, game.Solution, err))
			continue
		}
		obs = append(obs, candidates...)
	}
	return obs, skipped, nil
}

// replayGame walks a solution string, collecting the participant's moves.
func replayGame(game *freePlayGame, group int, participant string) ([]Observation, error) {
	inputPlayer := board.PlayerFromBool(strings.EqualFold(game.PlayerColor, "white"))
	b := board.New()
	player := board.Player1
	var candidates []Observation
	for _, tok := range strings.Split(game.Solution, "-") {
		pos, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("%w: square %q: %v", ErrMalformedInput, tok, err)
		}
		move := board.NewMove(pos, 0, player)
		if player == inputPlayer {
			if len(candidates) >= len(game.AllMoveRT) {
				return nil, fmt.Errorf("%w: more own moves than response times", ErrMalformedInput)
			}
			candidates = append(candidates, Observation{
				Board:       b,
				Move:        move,
				Time:        game.AllMoveRT[len(candidates)],
				Group:       group,
				Participant: participant,
			})
		}
		b, err = b.Add(move)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		player = player.Other()
	}
	return candidates, nil
}
