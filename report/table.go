// Package report formats sweep results as text tables, CSV, JSON and SQLite
// records.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sarchlab/cachesim/sweep"
)

// group is the results of one plan on one trace, in configuration order.
type group struct {
	plan    string
	param   sweep.Parameter
	trace   string
	results []sweep.Result
}

// groupResults splits results by plan and trace, keeping first-seen order.
func groupResults(results []sweep.Result) []*group {
	groups := []*group{}
	index := map[[2]string]*group{}

	for _, r := range results {
		key := [2]string{r.Plan, r.Trace}
		g, ok := index[key]
		if !ok {
			g = &group{plan: r.Plan, param: r.Parameter, trace: r.Trace}
			index[key] = g
			groups = append(groups, g)
		}
		g.results = append(g.results, r)
	}

	return groups
}

func parameterCell(r sweep.Result) string {
	switch r.Parameter {
	case sweep.Size:
		return strconv.Itoa(r.Value / 1024)
	case sweep.Fixed:
		return r.Config.String()
	default:
		return strconv.Itoa(r.Value)
	}
}

// TableOption configures WriteTable.
type TableOption func(*tableConfig)

type tableConfig struct {
	color bool
}

// WithColor highlights parameters, hits and misses with ANSI colors.
func WithColor(enabled bool) TableOption {
	return func(c *tableConfig) {
		c.color = enabled
	}
}

// palette colors table cells. The zero palette leaves text unchanged.
type palette struct {
	param, hit, miss, trace *color.Color
}

func newPalette(enabled bool) palette {
	if !enabled {
		return palette{}
	}

	p := palette{
		param: color.New(color.FgHiBlue),
		hit:   color.New(color.FgGreen),
		miss:  color.New(color.FgRed),
		trace: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.param, p.hit, p.miss, p.trace} {
		c.EnableColor()
	}

	return p
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}

	return c.Sprint(s)
}

// WriteTable writes one grid table per plan and trace. Plans without a
// varied parameter are written as hit and miss rate lines instead.
func WriteTable(w io.Writer, results []sweep.Result, opts ...TableOption) error {
	config := tableConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	p := newPalette(config.color)

	for _, g := range groupResults(results) {
		var err error
		if g.param == sweep.Fixed {
			err = writeRates(w, g, p)
		} else {
			err = writeGrid(w, g, p)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func writeRates(w io.Writer, g *group, p palette) error {
	trace := paint(p.trace, g.trace)

	for _, r := range g.results {
		if r.Err != "" {
			if _, err := fmt.Fprintf(w, "%s %s: %s\n\n", trace, r.Config, r.Err); err != nil {
				return err
			}
			continue
		}

		_, err := fmt.Fprintf(w, "%s for %s: %s\n%s for %s: %s\n\n",
			paint(p.hit, "Hit Rate"), trace, paint(p.hit, fmt.Sprintf("%.6f%%", r.HitRate())),
			paint(p.miss, "Miss Rate"), trace, paint(p.miss, fmt.Sprintf("%.6f%%", r.MissRate())))
		if err != nil {
			return err
		}
	}

	return nil
}

func writeGrid(w io.Writer, g *group, p palette) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Options.SeparateRows = true

	headers := table.Row{g.param.Label(), "Hit count", "Miss count", "Hit Rate", "Miss Rate"}
	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
	}
	t.SetColumnConfigs(configs)
	t.AppendHeader(headers)

	for _, r := range g.results {
		param := paint(p.param, parameterCell(r))
		if r.Err != "" {
			t.AppendRow(table.Row{param, "-", "-", "-", r.Err})
			continue
		}

		t.AppendRow(table.Row{
			param,
			paint(p.hit, strconv.FormatUint(r.Stats.Hits, 10)),
			paint(p.miss, strconv.FormatUint(r.Stats.Misses, 10)),
			paint(p.hit, strconv.FormatFloat(r.HitRate(), 'f', 6, 64)),
			paint(p.miss, strconv.FormatFloat(r.MissRate(), 'f', 6, 64)),
		})
	}

	_, err := fmt.Fprintf(w, "%s (%s)\n\n%s\n\n", g.trace, g.plan, t.Render())

	return err
}
