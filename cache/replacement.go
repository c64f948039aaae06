package cache

import "fmt"

// Replacement selects how a cache tracks recency within a set.
type Replacement int

const (
	// StampLRU stamps a monotonically increasing access counter onto the
	// touched block and evicts the block with the smallest stamp.
	StampLRU Replacement = iota
	// OrderedLRU keeps a most-recent-first order of ways per set and evicts
	// the tail.
	OrderedLRU
)

// String returns the name used on the command line and in config files.
func (r Replacement) String() string {
	switch r {
	case StampLRU:
		return "stamp"
	case OrderedLRU:
		return "ordered"
	default:
		return fmt.Sprintf("Replacement(%d)", int(r))
	}
}

// ParseReplacement converts a name produced by String back to a Replacement.
// An empty name selects StampLRU.
func ParseReplacement(name string) (Replacement, error) {
	switch name {
	case "", "stamp":
		return StampLRU, nil
	case "ordered":
		return OrderedLRU, nil
	default:
		return 0, fmt.Errorf("unknown replacement policy %q", name)
	}
}

// A replacer maintains the recency state of the blocks of a cache. Both
// implementations see only full sets in victim; empty ways are filled by the
// cache before a victim is requested.
type replacer interface {
	// touch marks way as the most recently used block of its set.
	touch(set []Block, way int)
	// victim returns the way to evict from a full set.
	victim(set []Block) int
}

func newReplacer(r Replacement, numSets, numWays int) replacer {
	if r == OrderedLRU {
		return newOrderedLRU(numSets, numWays)
	}

	return &stampLRU{}
}

// stampLRU uses one clock per cache. Stamps are unique so ties only appear
// between blocks that were never touched.
type stampLRU struct {
	clock uint64
}

func (l *stampLRU) touch(set []Block, way int) {
	l.clock++
	set[way].Recency = l.clock
}

// victim picks the smallest stamp; equal stamps resolve to the lowest way.
func (l *stampLRU) victim(set []Block) int {
	victim := 0
	for way := 1; way < len(set); way++ {
		if set[way].Recency < set[victim].Recency {
			victim = way
		}
	}

	return victim
}

// orderedLRU keeps, for every set, the ways ordered from most to least
// recently used. Untouched ways start in index order so the tail is the
// highest way; the cache never asks for a victim before every way has been
// filled, and fills go to the lowest empty way, so the order is fully
// determined by touches by then.
type orderedLRU struct {
	numWays int
	order   []int // numSets*numWays, most recent first within each set
}

func newOrderedLRU(numSets, numWays int) *orderedLRU {
	l := &orderedLRU{
		numWays: numWays,
		order:   make([]int, numSets*numWays),
	}

	for i := range l.order {
		l.order[i] = i % numWays
	}

	return l
}

func (l *orderedLRU) setOrder(set []Block) []int {
	start := set[0].SetID * l.numWays
	return l.order[start : start+l.numWays]
}

func (l *orderedLRU) touch(set []Block, way int) {
	order := l.setOrder(set)

	pos := 0
	for order[pos] != way {
		pos++
	}

	copy(order[1:pos+1], order[:pos])
	order[0] = way
}

func (l *orderedLRU) victim(set []Block) int {
	order := l.setOrder(set)
	return order[len(order)-1]
}
