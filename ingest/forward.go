package ingest

import (
	"github.com/mh131105/TP1-BD/types"
)

// ForwardRefs parks references whose target key has not been observed
// yet: Add stores a (source, target) pair under the missing target,
// Observe(target) releases every waiting source and clears the entry.
// Pairs whose target is never observed stay parked until the run ends.
type ForwardRefs[K comparable] struct {
	pending map[K]*types.Set[K]
	count   int
}

func NewForwardRefs[K comparable]() *ForwardRefs[K] {
	return &ForwardRefs[K]{pending: make(map[K]*types.Set[K])}
}

// Add parks source until target is observed. Reports whether the pair was
// newly queued; duplicate pairs collapse.
func (f *ForwardRefs[K]) Add(source, target K) bool {
	waiting, found := f.pending[target]
	if !found {
		waiting = types.NewSet[K]()
		f.pending[target] = waiting
	}
	if !waiting.InsertOnce(source) {
		return false
	}
	f.count++
	return true
}

// Observe releases every source waiting on key. Returns nil when nothing
// was parked.
func (f *ForwardRefs[K]) Observe(key K) []K {
	waiting, found := f.pending[key]
	if !found {
		return nil
	}
	delete(f.pending, key)
	sources := waiting.Array()
	f.count -= len(sources)
	return sources
}

// Pending reports how many pairs are still parked.
func (f *ForwardRefs[K]) Pending() int {
	return f.count
}
