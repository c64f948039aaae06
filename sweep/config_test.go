package sweep_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/sweep"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		var config *sweep.Config

		BeforeEach(func() {
			config = sweep.DefaultConfig()
		})

		It("should be valid", func() {
			Expect(config.Validate()).To(Succeed())
		})

		It("should list the five benchmark traces", func() {
			Expect(config.Traces).To(HaveLen(5))
			Expect(config.Traces[0]).To(Equal(filepath.Join("TraceFiles", "gcc.trace")))
		})

		It("should sweep cache size from 128KB to 4MB", func() {
			plans, err := config.Select("cache_size")
			Expect(err).NotTo(HaveOccurred())

			configs := plans[0].Configs()
			Expect(configs).To(HaveLen(6))
			Expect(configs[0]).To(Equal(cache.Config{Size: 128 * 1024, BlockSize: 4, Associativity: 4}))
			Expect(configs[5].Size).To(Equal(4 * 1024 * 1024))
		})

		It("should sweep block size from 1B to 128B", func() {
			plans, _ := config.Select("block_size")
			configs := plans[0].Configs()
			Expect(configs).To(HaveLen(8))
			Expect(configs[0].BlockSize).To(Equal(1))
			Expect(configs[7].BlockSize).To(Equal(128))
			Expect(configs[7].Size).To(Equal(1024 * 1024))
		})

		It("should sweep associativity from 1 to 64", func() {
			plans, _ := config.Select("associativity")
			configs := plans[0].Configs()
			Expect(configs).To(HaveLen(7))
			Expect(configs[6].Associativity).To(Equal(64))
		})

		It("should only contain buildable configurations", func() {
			for _, p := range config.Plans {
				for _, c := range p.Configs() {
					Expect(c.Validate()).To(Succeed(), "%s %s", p.Name, c)
				}
			}
		})
	})

	Describe("Plan", func() {
		It("should run the base once when nothing varies", func() {
			p := sweep.Plan{Name: "fixed", Base: cache.DefaultConfig(), Values: []int{1, 2}}
			Expect(p.Configs()).To(Equal([]cache.Config{cache.DefaultConfig()}))
			Expect(p.ParameterValue(cache.DefaultConfig())).To(Equal(1024 * 1024))
		})

		It("should reject unknown parameters", func() {
			p := sweep.Plan{Name: "x", Vary: "latency", Values: []int{1}}
			Expect(p.Validate()).To(MatchError(ContainSubstring("unknown parameter")))
		})

		It("should reject an empty sweep", func() {
			p := sweep.Plan{Name: "x", Vary: sweep.Size}
			Expect(p.Validate()).To(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		It("should reject duplicate plan names", func() {
			config := sweep.DefaultConfig()
			config.Plans = append(config.Plans, config.Plans[0])
			Expect(config.Validate()).To(MatchError(ContainSubstring("duplicate")))
		})

		It("should reject unknown replacement policies", func() {
			config := sweep.DefaultConfig()
			config.Replacement = "random"
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject negative workers", func() {
			config := sweep.DefaultConfig()
			config.Workers = -1
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Select", func() {
		It("should return all plans without names", func() {
			config := sweep.DefaultConfig()
			plans, err := config.Select()
			Expect(err).NotTo(HaveOccurred())
			Expect(plans).To(HaveLen(4))
		})

		It("should fail on unknown names", func() {
			_, err := sweep.DefaultConfig().Select("nope")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Load and save", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should round trip JSON", func() {
			path := filepath.Join(dir, "sweep.json")
			config := sweep.DefaultConfig()
			config.Workers = 3
			config.Replacement = "ordered"
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := sweep.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should round trip YAML", func() {
			path := filepath.Join(dir, "sweep.yaml")
			config := sweep.DefaultConfig()
			config.Verify = true
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := sweep.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.yml")
			Expect(os.WriteFile(path, []byte("workers: 2\ntraces: [a.trace]\n"), 0644)).
				To(Succeed())

			loaded, err := sweep.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Workers).To(Equal(2))
			Expect(loaded.Traces).To(Equal([]string{"a.trace"}))
			Expect(loaded.Plans).To(Equal(sweep.DefaultPlans()))
		})

		It("should report parse errors", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())

			_, err := sweep.LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse")))
		})

		It("should report missing files", func() {
			_, err := sweep.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(MatchError(ContainSubstring("failed to read")))
		})
	})

	It("should clone deeply", func() {
		config := sweep.DefaultConfig()
		clone := config.Clone()
		clone.Traces[0] = "other"
		clone.Plans[1].Values[0] = 1

		Expect(config.Traces[0]).NotTo(Equal("other"))
		Expect(config.Plans[1].Values[0]).To(Equal(128 * 1024))
	})
})
