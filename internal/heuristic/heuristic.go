package heuristic

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fourbynine/fourinarow/internal/board"
)

// WinScore is the sentinel magnitude for proven wins and losses. An
// explicit finite value keeps sort orders total where +/-Inf would not.
const WinScore = 1e12

// centerPriors tabulates the fixed position prior: the inverse Euclidean
// distance to the board center, peaking at the two center-adjacent squares.
var centerPriors = func() [board.BoardSize]float64 {
	var priors [board.BoardSize]float64
	cr := float64(board.BoardHeight-1) / 2
	cc := float64(board.BoardWidth-1) / 2
	for pos := range priors {
		dr := float64(board.Row(pos)) - cr
		dc := float64(board.Col(pos)) - cc
		priors[pos] = 1 / math.Sqrt(dr*dr+dc*dc)
	}
	return priors
}()

// CenterPrior returns the fixed prior for a square.
func CenterPrior(pos int) float64 {
	return centerPriors[pos]
}

// Heuristic scores candidate moves for a position. It bundles the scalar
// parameters, the weighted feature packs, a seedable generator and the
// noise flag. Instances are not safe for concurrent use; each worker owns
// its own copy, while feature slices of the default catalog are shared
// read-only.
type Heuristic struct {
	stoppingThreshold   float64
	pruningThreshold    float64
	gamma               float64
	lapseRate           float64
	opponentScale       float64
	explorationConstant float64
	centerWeight        float64

	packs []*FeaturePack

	src          *rand.PCG
	rng          *rand.Rand
	normal       distuv.Normal
	noiseEnabled bool
}

// New builds a heuristic from a model parameter vector. A 7-entry vector
// yields the scalar parameters with no feature packs (packs are then added
// via AddFeaturePack); the 58-entry form additionally instantiates the
// default feature catalog with the vector's pack weights.
func New(params []float64, noiseEnabled bool) (*Heuristic, error) {
	switch len(params) {
	case ScalarParameterCount, ModelParameterCount:
	default:
		return nil, fmt.Errorf("%w: expected %d or %d parameters, got %d",
			ErrInvalidParameterVector, ScalarParameterCount, ModelParameterCount, len(params))
	}

	h := &Heuristic{
		stoppingThreshold:   params[idxStoppingThreshold],
		pruningThreshold:    params[idxPruningThreshold],
		gamma:               params[idxGamma],
		lapseRate:           params[idxLapseRate],
		opponentScale:       params[idxOpponentScale],
		explorationConstant: params[idxExplorationConstant],
		centerWeight:        params[idxCenterWeight],
		noiseEnabled:        noiseEnabled,
	}
	h.SeedGenerator(0)

	if len(params) == ModelParameterCount {
		features := defaultPackFeatures()
		for i := 0; i < DefaultPackCount; i++ {
			h.packs = append(h.packs, &FeaturePack{
				FeatureGroupWeights: FeatureGroupWeights{
					WeightAct:  params[ScalarParameterCount+i],
					WeightPass: params[ScalarParameterCount+DefaultPackCount+i],
					DropRate:   params[ScalarParameterCount+2*DefaultPackCount+i],
				},
				Features: features[i],
			})
		}
	}
	return h, nil
}

// Default returns the heuristic for the default model vector, noise on.
func Default() *Heuristic {
	h, err := New(DefaultParameters(), true)
	if err != nil {
		panic(err)
	}
	return h
}

// SeedGenerator re-seeds the heuristic's generator. With noise disabled and
// identical seeds, all evaluations are bit-identical across runs.
func (h *Heuristic) SeedGenerator(seed uint64) {
	h.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	h.rng = rand.New(h.src)
	h.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: h.src}
}

// SetNoiseEnabled toggles Gaussian square noise, feature dropout and lapses.
func (h *Heuristic) SetNoiseEnabled(enabled bool) {
	h.noiseEnabled = enabled
}

// NoiseEnabled reports whether the noise model is active.
func (h *Heuristic) NoiseEnabled() bool {
	return h.noiseEnabled
}

// Scalar parameter accessors.

func (h *Heuristic) StoppingThreshold() float64   { return h.stoppingThreshold }
func (h *Heuristic) PruningThreshold() float64    { return h.pruningThreshold }
func (h *Heuristic) Gamma() float64               { return h.gamma }
func (h *Heuristic) LapseRate() float64           { return h.lapseRate }
func (h *Heuristic) OpponentScale() float64       { return h.opponentScale }
func (h *Heuristic) ExplorationConstant() float64 { return h.explorationConstant }
func (h *Heuristic) CenterWeight() float64        { return h.centerWeight }

// AddFeaturePack appends a new empty pack with the given weights and
// returns its index.
func (h *Heuristic) AddFeaturePack(weightAct, weightPass, dropRate float64) int {
	h.packs = append(h.packs, &FeaturePack{
		FeatureGroupWeights: FeatureGroupWeights{WeightAct: weightAct, WeightPass: weightPass, DropRate: dropRate},
	})
	return len(h.packs) - 1
}

// AddFeature appends a feature to the pack at the given index.
func (h *Heuristic) AddFeature(packIndex int, f Feature) error {
	if packIndex < 0 || packIndex >= len(h.packs) {
		return fmt.Errorf("feature pack index %d out of range [0, %d)", packIndex, len(h.packs))
	}
	pack := h.packs[packIndex]
	// Cap the slice first so a pack sharing the default catalog's backing
	// array gets its own copy instead of writing into the shared one.
	n := len(pack.Features)
	pack.Features = append(pack.Features[:n:n], f)
	return nil
}

// FeaturePacks exposes the packs for inspection and mutation.
func (h *Heuristic) FeaturePacks() []*FeaturePack {
	return h.packs
}

// FeaturesWithMetadata flattens the packs into (feature, weight index)
// pairs in pack order.
func (h *Heuristic) FeaturesWithMetadata() []FeatureWithMeta {
	var out []FeatureWithMeta
	for i, pack := range h.packs {
		for _, f := range pack.Features {
			out = append(out, FeatureWithMeta{Feature: f, WeightIndex: i})
		}
	}
	return out
}

// wouldWin reports whether playing pos completes four in a row for p.
func wouldWin(b board.Board, p board.Player, pos int) bool {
	next, err := b.Add(board.NewMove(pos, 0, p))
	if err != nil {
		return false
	}
	return next.HasWin(p)
}

// allowsImmediateWin reports whether, after p plays pos, the opponent has a
// winning reply.
func allowsImmediateWin(b board.Board, p board.Player, pos int) bool {
	next, err := b.Add(board.NewMove(pos, 0, p))
	if err != nil || next.GameHasEnded() {
		return false
	}
	opp := p.Other()
	spaces := next.Spaces()
	for spaces != 0 {
		if wouldWin(next, opp, spaces.PopLSB()) {
			return true
		}
	}
	return false
}

// ScoreMoves scores one move per empty square, in ascending position order.
// Values are oriented absolutely: larger favors Player1, so Player2's good
// moves score negative. A winning move scores the full sentinel for its
// player; a move that hands the opponent an immediate win scores the
// opposite sentinel.
//
// With noise enabled, each square's prior term gets unit Gaussian noise and
// each feature is independently dropped for this whole evaluation with its
// pack's drop rate. With noise disabled the result is deterministic.
func (h *Heuristic) ScoreMoves(b board.Board, p board.Player) []board.Move {
	dropped := h.drawDropouts()
	opp := p.Other()

	spaces := b.Spaces()
	moves := make([]board.Move, 0, spaces.Count())
	spaces.ForEach(func(pos int) {
		score := h.centerWeight * centerPriors[pos]
		if h.noiseEnabled {
			score += h.normal.Rand()
		}
		fi := 0
		for _, pack := range h.packs {
			for _, f := range pack.Features {
				if dropped != nil && dropped[fi] {
					fi++
					continue
				}
				fi++
				if f.CompletedBy(b, p, pos) {
					score += pack.WeightAct
				}
				if f.DestroyedBy(b, opp, pos) {
					score += pack.WeightPass
				}
			}
		}
		switch {
		case wouldWin(b, p, pos):
			score = WinScore
		case allowsImmediateWin(b, p, pos):
			score = -WinScore
		}
		if p == board.Player2 {
			score = -score
		}
		moves = append(moves, board.NewMove(pos, score, p))
	})
	return moves
}

// drawDropouts draws this evaluation's per-feature dropout mask, or nil
// when noise is disabled.
func (h *Heuristic) drawDropouts() []bool {
	if !h.noiseEnabled {
		return nil
	}
	total := 0
	for _, pack := range h.packs {
		total += len(pack.Features)
	}
	if total == 0 {
		return nil
	}
	dropped := make([]bool, total)
	i := 0
	for _, pack := range h.packs {
		for range pack.Features {
			dropped[i] = pack.DropRate > 0 && h.rng.Float64() < pack.DropRate
			i++
		}
	}
	return dropped
}

// BestScoredMove picks the best move for the player from a scored list,
// breaking ties toward the lowest position. Values are absolute, so
// Player1 takes the maximum and Player2 the minimum.
func BestScoredMove(moves []board.Move, p board.Player) (board.Move, bool) {
	if len(moves) == 0 {
		return board.Move{}, false
	}
	best := moves[0]
	for _, m := range moves[1:] {
		if better(m.Value, best.Value, p) {
			best = m
		}
	}
	return best, true
}

// better reports whether a beats b from the player's perspective under the
// absolute value orientation.
func better(a, b float64, p board.Player) bool {
	if p == board.Player1 {
		return a > b
	}
	return a < b
}

// Better reports whether value a strictly beats value b for the player.
func Better(a, b float64, p board.Player) bool {
	return better(a, b, p)
}

// Lapse draws the lapse event: with noise enabled the heuristic abandons
// deliberation with probability lapse_rate and plays uniformly at random.
func (h *Heuristic) Lapse() bool {
	return h.noiseEnabled && h.rng.Float64() < h.lapseRate
}

// StopSearch draws the per-expansion search stop with probability gamma.
// The draw always consumes the generator so seeded runs stay reproducible.
func (h *Heuristic) StopSearch() bool {
	return h.rng.Float64() < h.gamma
}

// BestRandomMove samples uniformly over the legal empty squares.
func (h *Heuristic) BestRandomMove(b board.Board, p board.Player) (board.Move, bool) {
	spaces := b.Spaces().Positions()
	if len(spaces) == 0 {
		return board.Move{}, false
	}
	return board.NewMove(spaces[h.rng.IntN(len(spaces))], 0, p), true
}
