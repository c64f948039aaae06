package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sarchlab/cachesim/sweep"
)

var csvHeader = []string{
	"plan", "trace", "size", "block_size", "associativity", "num_sets",
	"hits", "misses", "hit_rate", "miss_rate", "error",
}

// WriteCSV writes a header and one row per result.
func WriteCSV(w io.Writer, results []sweep.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range results {
		err := writer.Write([]string{
			r.Plan,
			r.Trace,
			strconv.Itoa(r.Config.Size),
			strconv.Itoa(r.Config.BlockSize),
			strconv.Itoa(r.Config.Associativity),
			strconv.Itoa(r.Geometry.NumSets),
			strconv.FormatUint(r.Stats.Hits, 10),
			strconv.FormatUint(r.Stats.Misses, 10),
			strconv.FormatFloat(r.HitRate(), 'f', 6, 64),
			strconv.FormatFloat(r.MissRate(), 'f', 6, 64),
			r.Err,
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}
