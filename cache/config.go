package cache

import (
	"fmt"
	"math/bits"
)

// AddressBits is the width of the addresses the cache accepts.
const AddressBits = 32

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// Associativity (number of ways per set)
	Associativity int `json:"associativity" yaml:"associativity"`
}

// DefaultConfig returns the baseline configuration of the cache experiments:
// 1MB, 4B blocks, 4-way.
func DefaultConfig() Config {
	return Config{
		Size:          1024 * 1024, // 1MB
		BlockSize:     4,           // 4B block
		Associativity: 4,           // 4-way
	}
}

// Geometry describes how a configuration splits an address.
type Geometry struct {
	NumSets    int
	OffsetBits int
	IndexBits  int
	TagBits    int
}

// String returns a short description of the configuration.
func (c Config) String() string {
	return fmt.Sprintf("%dB/%dB/%d-way", c.Size, c.BlockSize, c.Associativity)
}

// NumSets returns Size / (BlockSize * Associativity). The result is only
// meaningful for a configuration that passes Validate.
func (c Config) NumSets() int {
	if c.BlockSize <= 0 || c.Associativity <= 0 || c.BlockSize > c.Size/c.Associativity {
		return 0
	}

	return c.Size / (c.BlockSize * c.Associativity)
}

// Validate checks that the configuration describes a cache whose addresses
// can be split into tag, index and offset bit fields.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return newConfigurationError("size", c.Size, "must be > 0")
	}
	if c.BlockSize <= 0 {
		return newConfigurationError("block_size", c.BlockSize, "must be > 0")
	}
	if c.Associativity <= 0 {
		return newConfigurationError("associativity", c.Associativity, "must be > 0")
	}

	// BlockSize*Associativity can overflow, so compare through a division.
	if c.BlockSize > c.Size/c.Associativity {
		return newConfigurationError("size", c.Size,
			"must hold at least block_size*associativity bytes")
	}

	setBytes := c.BlockSize * c.Associativity
	if c.Size%setBytes != 0 {
		return newConfigurationError("size", c.Size,
			fmt.Sprintf("must be divisible by block_size*associativity (%d)", setBytes))
	}
	if !isPowerOfTwo(c.BlockSize) {
		return newConfigurationError("block_size", c.BlockSize, "must be a power of two")
	}

	numSets := c.NumSets()
	if !isPowerOfTwo(numSets) {
		return newConfigurationError("num_sets", numSets, "must be a power of two")
	}
	if log2(c.BlockSize)+log2(numSets) > AddressBits {
		return newConfigurationError("size", c.Size,
			fmt.Sprintf("offset and index bits exceed %d address bits", AddressBits))
	}

	return nil
}

// Geometry computes the bit-field split of the configuration. It returns a
// ConfigurationError if the configuration is invalid.
func (c Config) Geometry() (Geometry, error) {
	if err := c.Validate(); err != nil {
		return Geometry{}, err
	}

	numSets := c.NumSets()
	offsetBits := log2(c.BlockSize)
	indexBits := log2(numSets)

	return Geometry{
		NumSets:    numSets,
		OffsetBits: offsetBits,
		IndexBits:  indexBits,
		TagBits:    AddressBits - offsetBits - indexBits,
	}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// log2 of a power of two.
func log2(n int) int {
	return bits.TrailingZeros(uint(n))
}
