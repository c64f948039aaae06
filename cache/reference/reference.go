// Package reference provides a second, independent cache model built on the
// Akita cache directory. It is used to cross-check the cache package.
package reference

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/cache"
)

// Cache classifies accesses with an Akita directory and its LRU victim
// finder.
type Cache struct {
	config    cache.Config
	directory *akitacache.DirectoryImpl
	stats     cache.Statistics
}

// New creates a reference cache. The configuration is validated with the
// same rules as cache.New.
func New(config cache.Config) (*Cache, error) {
	geometry, err := config.Geometry()
	if err != nil {
		return nil, err
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			geometry.NumSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() cache.Statistics {
	return c.stats
}

// Access reports whether addr hits.
func (c *Cache) Access(addr uint32) bool {
	c.stats.Accesses++

	// The directory tags blocks with their block-aligned address.
	blockAddr := uint64(addr) &^ uint64(c.config.BlockSize-1)

	block := c.directory.Lookup(0, blockAddr) // PID=0
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	c.directory.Visit(victim)

	return false
}
