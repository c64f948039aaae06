package cache

// A Block is one slot of a set. It records which memory block occupies the
// slot, never the data itself.
type Block struct {
	SetID int
	WayID int

	// Tag is only meaningful when IsValid is true.
	Tag     uint32
	IsValid bool

	// Recency is the stamp of the last access under StampLRU; larger is more
	// recent. Unused by OrderedLRU.
	Recency uint64
}
