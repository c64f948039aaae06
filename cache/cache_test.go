package cache_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/cache/reference"
)

func mustNew(config cache.Config, opts ...cache.Option) *cache.Cache {
	c, err := cache.New(config, opts...)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func hits(c *cache.Cache, addrs ...uint64) []bool {
	out := make([]bool, 0, len(addrs))
	for _, addr := range addrs {
		result, err := c.Access(addr)
		Expect(err).NotTo(HaveOccurred())
		out = append(out, result.Hit)
	}
	return out
}

var _ = Describe("Cache", func() {
	for _, r := range []cache.Replacement{cache.StampLRU, cache.OrderedLRU} {
		replacement := r

		Describe("with "+replacement.String()+" LRU", func() {
			var c *cache.Cache

			BeforeEach(func() {
				// 1KB, 4B blocks, 4-way = 64 sets
				c = mustNew(cache.Config{
					Size:          1024,
					BlockSize:     4,
					Associativity: 4,
				}, cache.WithReplacement(replacement))
			})

			It("should report the replacement policy", func() {
				Expect(c.Replacement()).To(Equal(replacement))
			})

			It("should miss on cold cache", func() {
				result, err := c.Access(0x1000)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Hit).To(BeFalse())
				Expect(result.Evicted).To(BeFalse())

				stats := c.Stats()
				Expect(stats.Accesses).To(Equal(uint64(1)))
				Expect(stats.Misses).To(Equal(uint64(1)))
				Expect(stats.Hits).To(Equal(uint64(0)))
			})

			It("should hit on every repeated access", func() {
				Expect(hits(c, 0x1234, 0x1234, 0x1234, 0x1234)).
					To(Equal([]bool{false, true, true, true}))
			})

			It("should hit on different addresses in same block", func() {
				Expect(hits(c, 0x1000, 0x1001, 0x1003)).
					To(Equal([]bool{false, true, true}))
			})

			It("should fill 4 ways of a set before hitting", func() {
				// Stride of 64 sets * 4B = 256B stays in set 0
				Expect(hits(c, 0x000, 0x100, 0x200, 0x300, 0x000)).
					To(Equal([]bool{false, false, false, false, true}))
			})

			It("should classify 4 cold blocks then a reuse", func() {
				Expect(hits(c, 0x0, 0x4, 0x8, 0xC, 0x0)).
					To(Equal([]bool{false, false, false, false, true}))
			})

			It("should fill empty ways from the lowest way", func() {
				for way, addr := range []uint64{0x000, 0x100, 0x200, 0x300} {
					result, err := c.Access(addr)
					Expect(err).NotTo(HaveOccurred())
					Expect(result.Set).To(Equal(0))
					Expect(result.Way).To(Equal(way))
				}
			})

			It("should evict the least recently used block", func() {
				hits(c, 0x000, 0x100, 0x200, 0x300)
				// Touch all but 0x100 so it becomes the LRU
				hits(c, 0x000, 0x200, 0x300)

				result, err := c.Access(0x400)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Hit).To(BeFalse())
				Expect(result.Evicted).To(BeTrue())
				Expect(result.Way).To(Equal(1))
				Expect(result.EvictedTag).To(Equal(uint32(0x100 >> 8)))

				Expect(c.Stats().Evictions).To(Equal(uint64(1)))
				Expect(hits(c, 0x000, 0x100)).To(Equal([]bool{true, false}))
			})

			It("should keep hits + misses equal to accesses", func() {
				rng := rand.New(rand.NewSource(7))
				for i := 0; i < 5000; i++ {
					_, err := c.Access(uint64(rng.Intn(8192)))
					Expect(err).NotTo(HaveOccurred())
				}

				stats := c.Stats()
				Expect(stats.Accesses).To(Equal(uint64(5000)))
				Expect(stats.Hits + stats.Misses).To(Equal(stats.Accesses))
			})

			It("should not touch other sets", func() {
				hits(c, 0x000, 0x100)
				for i := 1; i < 64; i++ {
					for _, b := range c.Set(i) {
						Expect(b.IsValid).To(BeFalse())
					}
				}
			})
		})
	}

	Describe("direct-mapped", func() {
		It("should let conflicting addresses evict each other", func() {
			c := mustNew(cache.Config{Size: 256, BlockSize: 4, Associativity: 1})
			// 64 sets of 4B: 0x000 and 0x100 share index 0
			Expect(hits(c, 0x000, 0x100, 0x000)).
				To(Equal([]bool{false, false, false}))
			Expect(c.Stats().Evictions).To(Equal(uint64(2)))
		})
	})

	Describe("2-way LRU", func() {
		It("should evict B after A, B, A, C", func() {
			c := mustNew(cache.Config{Size: 16, BlockSize: 4, Associativity: 2})
			// 2 sets: stride 8 keeps addresses in set 0
			a, b, cc := uint64(0x00), uint64(0x08), uint64(0x10)

			Expect(hits(c, a, b, a, cc)).
				To(Equal([]bool{false, false, true, false}))
			Expect(hits(c, a)).To(Equal([]bool{true}))
			Expect(hits(c, b)).To(Equal([]bool{false}))
		})
	})

	Describe("N-way capacity", func() {
		It("should hold N tags of a set without eviction", func() {
			for _, n := range []int{1, 2, 4, 8, 16} {
				c := mustNew(cache.Config{
					Size:          64 * 16 * n,
					BlockSize:     64,
					Associativity: n,
				})
				stride := uint64(c.Geometry().NumSets * 64)

				for i := 0; i < n; i++ {
					Expect(hits(c, uint64(i)*stride)).To(Equal([]bool{false}))
				}
				Expect(hits(c, 0)).To(Equal([]bool{true}))
				Expect(c.Stats().Evictions).To(BeZero())
			}
		})
	})

	Describe("fully associative", func() {
		It("should use every way for any address", func() {
			c := mustNew(cache.Config{Size: 32, BlockSize: 4, Associativity: 8})
			Expect(c.Geometry().NumSets).To(Equal(1))
			Expect(c.Geometry().IndexBits).To(Equal(0))

			addrs := []uint64{0x10, 0x2000, 0x34, 0xFFFF0, 0x8, 0x400, 0x404, 0x0}
			Expect(hits(c, addrs...)).To(HaveEach(BeFalse()))
			Expect(hits(c, addrs...)).To(HaveEach(BeTrue()))
		})
	})

	Describe("Decompose", func() {
		It("should split tag, index and offset", func() {
			// 1KB, 4B, 4-way: 2 offset bits, 6 index bits, 24 tag bits
			c := mustNew(cache.Config{Size: 1024, BlockSize: 4, Associativity: 4})
			a := c.Decompose(0xDEADBEEF)
			Expect(a.Offset).To(Equal(uint32(0xDEADBEEF & 0x3)))
			Expect(a.Index).To(Equal(uint32((0xDEADBEEF >> 2) & 0x3F)))
			Expect(a.Tag).To(Equal(uint32(0xDEADBEEF >> 8)))
		})

		It("should give an all-zero tag when no tag bits remain", func() {
			c := mustNew(cache.Config{Size: 1 << 32, BlockSize: 1 << 16, Associativity: 1})
			Expect(c.Geometry().TagBits).To(Equal(0))

			a := c.Decompose(0xFFFFFFFF)
			Expect(a.Tag).To(BeZero())
			Expect(a.Index).To(Equal(uint32(0xFFFF)))
			Expect(a.Offset).To(Equal(uint32(0xFFFF)))
		})
	})

	Describe("invalid addresses", func() {
		It("should reject addresses wider than 32 bits", func() {
			c := mustNew(cache.DefaultConfig())

			_, err := c.Access(math.MaxUint32 + 1)
			var addrErr *cache.InvalidAddressError
			Expect(errors.As(err, &addrErr)).To(BeTrue())
			Expect(addrErr.Addr).To(Equal(uint64(math.MaxUint32 + 1)))
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
		})

		It("should accept the largest 32-bit address", func() {
			c := mustNew(cache.DefaultConfig())
			_, err := c.Access(math.MaxUint32)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("New", func() {
		It("should reject an invalid configuration", func() {
			_, err := cache.New(cache.Config{Size: 100, BlockSize: 7, Associativity: 3})
			var configErr *cache.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
		})

		It("should start with every block invalid", func() {
			c := mustNew(cache.Config{Size: 64, BlockSize: 4, Associativity: 4})
			for i := 0; i < c.Geometry().NumSets; i++ {
				for way, b := range c.Set(i) {
					Expect(b.IsValid).To(BeFalse())
					Expect(b.Recency).To(BeZero())
					Expect(b.SetID).To(Equal(i))
					Expect(b.WayID).To(Equal(way))
				}
			}
		})
	})

	Describe("LRU equivalence", func() {
		configs := []cache.Config{
			{Size: 64, BlockSize: 4, Associativity: 1},
			{Size: 256, BlockSize: 4, Associativity: 2},
			{Size: 1024, BlockSize: 8, Associativity: 4},
			{Size: 2048, BlockSize: 16, Associativity: 8},
			{Size: 512, BlockSize: 4, Associativity: 128},
		}

		for _, cfg := range configs {
			config := cfg

			It("should classify identically for "+config.String(), func() {
				stamp := mustNew(config, cache.WithReplacement(cache.StampLRU))
				ordered := mustNew(config, cache.WithReplacement(cache.OrderedLRU))
				ref, err := reference.New(config)
				Expect(err).NotTo(HaveOccurred())

				rng := rand.New(rand.NewSource(42))
				for i := 0; i < 20000; i++ {
					// Bias towards a small footprint so hits and evictions
					// both happen often.
					addr := uint32(rng.Intn(config.Size * 4))
					if i%7 == 0 {
						addr = rng.Uint32()
					}

					s, err := stamp.Access(uint64(addr))
					Expect(err).NotTo(HaveOccurred())
					o, err := ordered.Access(uint64(addr))
					Expect(err).NotTo(HaveOccurred())

					Expect(o).To(Equal(s), "access %d addr 0x%X", i, addr)
					Expect(ref.Access(addr)).To(Equal(s.Hit), "access %d addr 0x%X", i, addr)
				}

				Expect(ordered.Stats()).To(Equal(stamp.Stats()))
				Expect(ref.Stats()).To(Equal(stamp.Stats()))
			})
		}
	})
})
