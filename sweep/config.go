package sweep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/cache"
)

// Parameter names the configuration field a plan varies.
type Parameter string

const (
	// Fixed plans run their base configuration only.
	Fixed         Parameter = ""
	Size          Parameter = "size"
	BlockSize     Parameter = "block_size"
	Associativity Parameter = "associativity"
)

// Label is the column header used for the parameter in reports.
func (p Parameter) Label() string {
	switch p {
	case Size:
		return "Cache Size (in kb)"
	case BlockSize:
		return "Block Size"
	case Associativity:
		return "Associativity"
	default:
		return "Configuration"
	}
}

// Plan describes one experiment: a base configuration with one parameter
// swept over a list of values.
type Plan struct {
	Name   string       `json:"name" yaml:"name"`
	Vary   Parameter    `json:"vary,omitempty" yaml:"vary,omitempty"`
	Base   cache.Config `json:"base" yaml:"base"`
	Values []int        `json:"values,omitempty" yaml:"values,omitempty"`
}

// Configs expands the plan into the configurations it runs, in order.
func (p Plan) Configs() []cache.Config {
	if p.Vary == Fixed {
		return []cache.Config{p.Base}
	}

	configs := make([]cache.Config, 0, len(p.Values))
	for _, v := range p.Values {
		c := p.Base
		switch p.Vary {
		case Size:
			c.Size = v
		case BlockSize:
			c.BlockSize = v
		case Associativity:
			c.Associativity = v
		}
		configs = append(configs, c)
	}

	return configs
}

// ParameterValue returns the value of the plan's varied parameter in c.
func (p Plan) ParameterValue(c cache.Config) int {
	switch p.Vary {
	case Size:
		return c.Size
	case BlockSize:
		return c.BlockSize
	case Associativity:
		return c.Associativity
	default:
		return c.Size
	}
}

// Validate checks the plan structure. Individual configurations are
// validated by the cache when the plan runs.
func (p Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name must not be empty")
	}

	switch p.Vary {
	case Fixed:
		return nil
	case Size, BlockSize, Associativity:
	default:
		return fmt.Errorf("plan %s: unknown parameter %q", p.Name, p.Vary)
	}

	if len(p.Values) == 0 {
		return fmt.Errorf("plan %s: values must not be empty", p.Name)
	}

	return nil
}

// Config holds the settings of a sweep.
type Config struct {
	// Traces are the trace files every plan runs against.
	Traces []string `json:"traces" yaml:"traces"`

	// Plans are run in order.
	Plans []Plan `json:"plans" yaml:"plans"`

	// Workers bounds the number of caches simulated at once.
	// 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`

	// Replacement is "stamp" or "ordered".
	Replacement string `json:"replacement" yaml:"replacement"`

	// SkipInvalid records invalid configurations as failed results
	// instead of aborting the sweep.
	SkipInvalid bool `json:"skip_invalid" yaml:"skip_invalid"`

	// Verify replays every access on the reference model.
	Verify bool `json:"verify" yaml:"verify"`
}

// powersOfTwo returns scale * 2^i for i in [from, to].
func powersOfTwo(scale, from, to int) []int {
	values := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		values = append(values, scale<<i)
	}
	return values
}

// DefaultPlans returns the four standard experiments: a fixed 1MB 4B 4-way
// cache, then cache size, block size and associativity sweeps around it.
func DefaultPlans() []Plan {
	base := cache.DefaultConfig()

	return []Plan{
		{
			Name: "fixed",
			Base: base,
		},
		{
			Name:   "cache_size",
			Vary:   Size,
			Base:   base,
			Values: powersOfTwo(1024, 7, 12), // 128KB .. 4MB
		},
		{
			Name:   "block_size",
			Vary:   BlockSize,
			Base:   base,
			Values: powersOfTwo(1, 0, 7), // 1B .. 128B
		},
		{
			Name:   "associativity",
			Vary:   Associativity,
			Base:   base,
			Values: powersOfTwo(1, 0, 6), // 1 .. 64 ways
		},
	}
}

// DefaultTraces returns the standard benchmark traces.
func DefaultTraces() []string {
	names := []string{"gcc", "gzip", "mcf", "swim", "twolf"}

	traces := make([]string, 0, len(names))
	for _, name := range names {
		traces = append(traces, filepath.Join("TraceFiles", name+".trace"))
	}

	return traces
}

// DefaultConfig returns the standard sweep.
func DefaultConfig() *Config {
	return &Config{
		Traces:      DefaultTraces(),
		Plans:       DefaultPlans(),
		Workers:     0,
		Replacement: cache.StampLRU.String(),
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a sweep Config from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep config file: %w", err)
	}

	// Lists are replaced as a whole, never merged element by element.
	config := DefaultConfig()
	config.Traces = nil
	config.Plans = nil

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sweep config: %w", err)
	}

	if config.Traces == nil {
		config.Traces = DefaultTraces()
	}
	if config.Plans == nil {
		config.Plans = DefaultPlans()
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize sweep config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sweep config file: %w", err)
	}

	return nil
}

// Validate checks the sweep settings and plan structure.
func (c *Config) Validate() error {
	if len(c.Traces) == 0 {
		return fmt.Errorf("traces must not be empty")
	}
	if len(c.Plans) == 0 {
		return fmt.Errorf("plans must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if _, err := cache.ParseReplacement(c.Replacement); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, p := range c.Plans {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate plan name %q", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// Select returns the plans with the given names, in the order given.
func (c *Config) Select(names ...string) ([]Plan, error) {
	if len(names) == 0 {
		return c.Plans, nil
	}

	plans := make([]Plan, 0, len(names))
	for _, name := range names {
		found := false
		for _, p := range c.Plans {
			if p.Name == name {
				plans = append(plans, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown plan %q", name)
		}
	}

	return plans, nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Traces = append([]string(nil), c.Traces...)
	clone.Plans = make([]Plan, len(c.Plans))
	for i, p := range c.Plans {
		p.Values = append([]int(nil), p.Values...)
		clone.Plans[i] = p
	}

	return &clone
}
