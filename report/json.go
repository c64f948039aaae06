package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/cachesim/sweep"
)

// Version of the report format.
const Version = "1.0.0"

// Report is the JSON document written by WriteJSON.
type Report struct {
	Metadata Metadata       `json:"metadata"`
	Results  []sweep.Result `json:"results"`
	Summary  Summary        `json:"summary"`
}

// Metadata identifies a sweep run.
type Metadata struct {
	// RunID is unique per report and shared with SQLite records of the same
	// run.
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Host      Host   `json:"host"`
}

// Host describes the simulator process at the time the report was written.
type Host struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty"`
}

// Summary contains aggregate statistics across all results.
type Summary struct {
	TotalRuns     int     `json:"total_runs"`
	FailedRuns    int     `json:"failed_runs"`
	TotalAccesses uint64  `json:"total_accesses"`
	TotalHits     uint64  `json:"total_hits"`
	TotalMisses   uint64  `json:"total_misses"`
	HitRate       float64 `json:"hit_rate"`
}

// NewRunID returns a new unique run identifier.
func NewRunID() string {
	return xid.New().String()
}

// CollectHost reads resource usage of the current process. Fields that
// cannot be read are left zero.
func CollectHost() Host {
	host := Host{PID: int32(os.Getpid())}

	p, err := process.NewProcess(host.PID)
	if err != nil {
		return host
	}

	if mem, err := p.MemoryInfo(); err == nil {
		host.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		host.CPUPercent = cpu
	}

	return host
}

// Summarize aggregates results. Failed results only count towards
// FailedRuns.
func Summarize(results []sweep.Result) Summary {
	s := Summary{TotalRuns: len(results)}

	for _, r := range results {
		if r.Err != "" {
			s.FailedRuns++
			continue
		}
		s.TotalAccesses += r.Stats.Accesses
		s.TotalHits += r.Stats.Hits
		s.TotalMisses += r.Stats.Misses
	}

	if s.TotalAccesses > 0 {
		s.HitRate = float64(s.TotalHits) / float64(s.TotalAccesses) * 100
	}

	return s
}

// NewReport builds a Report for results under runID.
func NewReport(runID string, results []sweep.Result) Report {
	return Report{
		Metadata: Metadata{
			RunID:     runID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Host:      CollectHost(),
		},
		Results: results,
		Summary: Summarize(results),
	}
}

// WriteJSON writes results as an indented JSON Report.
func WriteJSON(w io.Writer, runID string, results []sweep.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(NewReport(runID, results))
}
