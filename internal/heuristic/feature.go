// Package heuristic implements the feature-based move evaluator: local
// piece/space patterns grouped into weighted packs, a center prior, and the
// noise model (Gaussian square noise, feature dropout, lapses).
package heuristic

import (
	"fmt"

	"github.com/fourbynine/fourinarow/internal/board"
)

// Feature is a local piece/space pattern. It is contained in a board for a
// player when the player holds every square of Pieces and at least
// MinSpaceOccupancy squares of Spaces are empty.
type Feature struct {
	Pieces            board.Pattern
	Spaces            board.Pattern
	MinSpaceOccupancy int
}

// NewFeature builds a feature from its piece and space patterns.
func NewFeature(pieces, spaces board.Pattern, minSpaceOccupancy int) Feature {
	return Feature{Pieces: pieces, Spaces: spaces, MinSpaceOccupancy: minSpaceOccupancy}
}

// ContainedIn reports whether the feature is contained in the board for the
// player.
func (f Feature) ContainedIn(b board.Board, p board.Player) bool {
	return b.Pieces(p).ContainsAll(f.Pieces) && b.CountSpaces(f.Spaces) >= f.MinSpaceOccupancy
}

// CompletedBy reports whether playing pos would newly contain the feature
// for the player: pos is the single missing piece and the space requirement
// survives the placement.
func (f Feature) CompletedBy(b board.Board, p board.Player, pos int) bool {
	if !f.Pieces.Contains(pos) {
		return false
	}
	if b.MissingPieces(f.Pieces, p) != board.PatternFromPositions(pos) {
		return false
	}
	spaces := b.CountSpaces(f.Spaces)
	if f.Spaces.Contains(pos) {
		spaces--
	}
	return spaces >= f.MinSpaceOccupancy
}

// DestroyedBy reports whether playing pos would break the feature for the
// player it is currently contained for, by occupying one of its required
// spaces.
func (f Feature) DestroyedBy(b board.Board, p board.Player, pos int) bool {
	if !f.Spaces.Contains(pos) {
		return false
	}
	if !f.ContainedIn(b, p) {
		return false
	}
	return b.CountSpaces(f.Spaces)-1 < f.MinSpaceOccupancy
}

// String renders the feature's patterns for display lists.
func (f Feature) String() string {
	return fmt.Sprintf("pieces %s spaces %s min %d", f.Pieces, f.Spaces, f.MinSpaceOccupancy)
}

// FeatureGroupWeights are the weights shared by all features of one pack.
// Features owned by the player to move contribute WeightAct; features owned
// by the opponent contribute WeightPass. Each feature may be dropped for an
// evaluation with probability DropRate when noise is enabled.
type FeatureGroupWeights struct {
	WeightAct  float64
	WeightPass float64
	DropRate   float64
}

// FeaturePack groups features sharing one set of weights.
type FeaturePack struct {
	FeatureGroupWeights
	Features []Feature
}

// FeatureWithMeta binds a feature to its pack's weight index.
type FeatureWithMeta struct {
	Feature     Feature
	WeightIndex int
}
