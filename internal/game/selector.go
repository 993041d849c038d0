package game

import (
	"hash/fnv"
	"math/rand"
)

// Selector picks "today's question" for a couple. The pick is seeded from
// (coupleID, date), so two members reconciling the same stale day compute
// the same question even before either write lands; once persisted, the
// stored questionId is authoritative and never recomputed for that date.
type Selector struct {
	bank *Bank
}

// NewSelector creates a selector over the given bank.
func NewSelector(bank *Bank) *Selector {
	return &Selector{bank: bank}
}

// SelectNext returns the question for the given couple and local date.
// Questions already in completedIDs are excluded while any unvisited
// question remains; an exhausted bank falls back to the full set. Never
// fails: the bank is non-empty by construction.
func (s *Selector) SelectNext(coupleID, date string, completedIDs []string) Question {
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	// Pool keeps bank order so both members derive the identical slice
	// from the identical completed set.
	pool := make([]Question, 0, s.bank.Len())
	for _, q := range s.bank.All() {
		if _, done := completed[q.ID]; !done {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		pool = s.bank.All()
	}

	rng := rand.New(rand.NewSource(seedFor(coupleID, date)))
	return pool[rng.Intn(len(pool))]
}

func seedFor(coupleID, date string) int64 {
	h := fnv.New64a()
	h.Write([]byte(coupleID))
	h.Write([]byte{'|'})
	h.Write([]byte(date))
	return int64(h.Sum64())
}
