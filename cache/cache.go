// Package cache models the hit/miss behavior of a set-associative cache with
// LRU replacement. Only tags, valid bits and recency are tracked; no data is
// stored.
package cache

import "math"

// Address is a 32-bit address split into its cache bit fields.
type Address struct {
	Tag    uint32
	Index  uint32
	Offset uint32
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Set and Way locate the block that now holds the address.
	Set int
	Way int
	// Tag is the tag of the accessed address.
	Tag uint32
	// Evicted is true if a valid block was replaced to serve a miss.
	Evicted bool
	// EvictedTag is the tag of the replaced block (if Evicted is true).
	EvictedTag uint32
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits/Accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// MissRate returns Misses/Accesses, or 0 before the first access.
func (s Statistics) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Misses) / float64(s.Accesses)
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	replacement Replacement
}

// WithReplacement selects the recency bookkeeping. The default is StampLRU.
func WithReplacement(r Replacement) Option {
	return func(o *options) {
		o.replacement = r
	}
}

// Cache is a set-associative cache directory. A Cache is not safe for
// concurrent use.
type Cache struct {
	config   Config
	geometry Geometry

	offsetMask uint32
	indexMask  uint32

	// blocks is indexed by (setID * associativity + wayID)
	blocks      []Block
	replacement Replacement
	replacer    replacer

	stats Statistics
}

// New creates an empty cache. It returns a *ConfigurationError if the
// configuration cannot be split into tag, index and offset bit fields.
func New(config Config, opts ...Option) (*Cache, error) {
	geometry, err := config.Geometry()
	if err != nil {
		return nil, err
	}

	o := options{replacement: StampLRU}
	for _, opt := range opts {
		opt(&o)
	}

	ways := config.Associativity
	blocks := make([]Block, geometry.NumSets*ways)
	for i := range blocks {
		blocks[i].SetID = i / ways
		blocks[i].WayID = i % ways
	}

	return &Cache{
		config:      config,
		geometry:    geometry,
		offsetMask:  uint32(config.BlockSize - 1),
		indexMask:   uint32(geometry.NumSets - 1),
		blocks:      blocks,
		replacement: o.replacement,
		replacer:    newReplacer(o.replacement, geometry.NumSets, ways),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Geometry returns the address bit-field split.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Replacement returns the recency bookkeeping in use.
func (c *Cache) Replacement() Replacement {
	return c.replacement
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Set returns a copy of the blocks of set index.
func (c *Cache) Set(index int) []Block {
	set := make([]Block, c.config.Associativity)
	copy(set, c.set(uint32(index)))

	return set
}

func (c *Cache) set(index uint32) []Block {
	ways := c.config.Associativity
	start := int(index) * ways

	return c.blocks[start : start+ways]
}

// Decompose splits addr into tag, index and offset.
func (c *Cache) Decompose(addr uint32) Address {
	shift := uint(c.geometry.OffsetBits + c.geometry.IndexBits)

	return Address{
		Tag:    uint32(uint64(addr) >> shift),
		Index:  (addr >> uint(c.geometry.OffsetBits)) & c.indexMask,
		Offset: addr & c.offsetMask,
	}
}

// Access looks addr up, filling or evicting a block on a miss. Addresses
// that do not fit in 32 bits are rejected with an *InvalidAddressError and
// leave the cache untouched.
func (c *Cache) Access(addr uint64) (AccessResult, error) {
	if addr > math.MaxUint32 {
		return AccessResult{}, &InvalidAddressError{Addr: addr}
	}

	a := c.Decompose(uint32(addr))
	set := c.set(a.Index)
	c.stats.Accesses++

	for way := range set {
		if set[way].IsValid && set[way].Tag == a.Tag {
			c.stats.Hits++
			c.replacer.touch(set, way)

			return AccessResult{
				Hit: true,
				Set: int(a.Index),
				Way: way,
				Tag: a.Tag,
			}, nil
		}
	}

	c.stats.Misses++

	return c.fill(set, a), nil
}

// fill places a missing tag in the lowest empty way, or in the LRU way when
// the set is full.
func (c *Cache) fill(set []Block, a Address) AccessResult {
	result := AccessResult{
		Set: int(a.Index),
		Tag: a.Tag,
	}

	way := emptyWay(set)
	if way < 0 {
		way = c.replacer.victim(set)
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedTag = set[way].Tag
	}

	set[way].Tag = a.Tag
	set[way].IsValid = true
	c.replacer.touch(set, way)
	result.Way = way

	return result
}

func emptyWay(set []Block) int {
	for way := range set {
		if !set[way].IsValid {
			return way
		}
	}

	return -1
}
