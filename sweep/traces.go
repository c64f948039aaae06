package sweep

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/trace"
)

// TraceName derives a trace name from its path: "TraceFiles/gcc.trace"
// becomes "gcc".
func TraceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolvePath joins relative trace paths onto baseDir. An empty baseDir
// leaves paths unchanged.
func ResolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(baseDir, path)
}

// LoadTraces reads the trace files concurrently. Traces are returned in the
// order of paths.
func LoadTraces(ctx context.Context, baseDir string, paths []string) ([]Trace, error) {
	traces := make([]Trace, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			addrs, err := trace.LoadFile(ResolvePath(baseDir, path))
			if err != nil {
				return err
			}

			traces[i] = Trace{Name: TraceName(path), Addrs: addrs}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return traces, nil
}
