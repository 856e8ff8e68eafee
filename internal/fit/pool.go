package fit

import (
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// atomicFloat64 is a float64 updated by compare-and-swap on its bits, so
// workers can account loss per trial without taking the task-map lock.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat64) Add(delta float64) {
	for {
		old := f.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if f.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// sharedState is the only state the IBS workers share: the tracker map
// under one lock, and the expected-loss accumulator used for the stop
// loss. Everything else is worker-local.
type sharedState struct {
	mu         sync.Mutex
	trackers   []*SuccessFrequencyTracker
	unfinished []int // indices with pending successes
	slot       []int // position of each index in unfinished, -1 once done

	lexpt     atomicFloat64
	threshold float64
}

func newSharedState(trackers []*SuccessFrequencyTracker, exptFactor, cutoff float64) *sharedState {
	n := len(trackers)
	s := &sharedState{
		trackers:   trackers,
		unfinished: make([]int, 0, n),
		slot:       make([]int, n),
		threshold:  cutoff * float64(n),
	}
	for i := range trackers {
		s.slot[i] = len(s.unfinished)
		s.unfinished = append(s.unfinished, i)
	}
	s.lexpt.Store(float64(n) * exptFactor)
	return s
}

// tripped reports whether the stop loss has fired. Workers poll it between
// trials; cancellation is cooperative only.
func (s *sharedState) tripped() bool {
	return s.lexpt.Load() > s.threshold
}

// pick returns a random unfinished index and a deep copy of its tracker.
func (s *sharedState) pick(rng *rand.Rand) (int, *SuccessFrequencyTracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.unfinished) == 0 {
		return 0, nil, false
	}
	idx := s.unfinished[rng.IntN(len(s.unfinished))]
	return idx, s.trackers[idx].Clone(), true
}

// commit applies a worker's success round if and only if it is the first
// to record that success: the shared success count must still equal the
// count the worker started from. Duplicated rounds are discarded; their
// trials have already been accounted in the loss accumulator, which is why
// an aborted batch over-estimates.
func (s *sharedState) commit(idx, baseSuccessCount int, roundLoss float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.trackers[idx]
	if t.IsDone() || t.SuccessCount != baseSuccessCount {
		return false
	}
	t.L += roundLoss
	t.ReportSuccess(true)
	if t.IsDone() && s.slot[idx] >= 0 {
		last := len(s.unfinished) - 1
		moved := s.unfinished[last]
		s.unfinished[s.slot[idx]] = moved
		s.slot[moved] = s.slot[idx]
		s.unfinished = s.unfinished[:last]
		s.slot[idx] = -1
	}
	return true
}

// empty reports whether all trackers are done.
func (s *sharedState) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unfinished) == 0
}

// splitmix64 derives decorrelated worker seeds from a base seed.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
