// Package report renders merged call graphs as indented text tables,
// one row per node with lap counts and unit-scaled statistics.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/perfgraph/perfgraph/storage"
)

// Options controls text rendering.
type Options struct {
	// Color enables ANSI styling for headers and origin rows. It is
	// still subject to the color package's global NO_COLOR handling.
	Color bool
	// ShowSources adds a column with the number of merged source graphs
	// contributing to each row.
	ShowSources bool
	// Indent is the per-depth prefix. Defaults to two spaces.
	Indent string
}

type row struct {
	label   string
	laps    string
	total   string
	mean    string
	last    string
	sources string
	origin  bool
}

// Write renders the global graph to w. Nodes appear in depth-first order
// with their depth expressed as indentation.
func Write(w io.Writer, g *storage.Global, opts Options) error {
	if g == nil {
		return fmt.Errorf("report: nil graph")
	}
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	kind := g.Kind()
	header := row{
		label:   strings.ToUpper(kind.String()),
		laps:    "COUNT",
		total:   "TOTAL",
		mean:    "MEAN",
		last:    "LAST",
		sources: "SRC",
	}
	rows := []row{header}
	g.Walk(func(n storage.NodeView) bool {
		name := n.Name
		if n.Origin != "" && n.Name == n.Origin {
			name = "[" + n.Origin + "]"
		}
		r := row{
			label:  strings.Repeat(opts.Indent, int(n.Depth)) + name,
			laps:   fmt.Sprintf("%d", n.Laps),
			total:  formatValue(kind, n.Accum),
			mean:   formatMean(kind, n.Accum, n.Laps),
			last:   formatValue(kind, n.Last),
			origin: n.Origin != "" && n.Name == n.Origin,
		}
		if opts.ShowSources {
			r.sources = fmt.Sprintf("%d", n.Sources)
		}
		rows = append(rows, r)
		return true
	})

	widths := columnWidths(rows, opts.ShowSources)
	bold := color.New(color.Bold)
	dim := color.New(color.FgCyan)
	for i, r := range rows {
		line := formatRow(r, widths, opts.ShowSources)
		var err error
		switch {
		case opts.Color && i == 0:
			_, err = bold.Fprintln(w, line)
		case opts.Color && r.origin:
			_, err = dim.Fprintln(w, line)
		default:
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(rows []row, sources bool) [6]int {
	var w [6]int
	for _, r := range rows {
		cells := [6]string{r.label, r.laps, r.total, r.mean, r.last, r.sources}
		for i, c := range cells {
			if len(c) > w[i] {
				w[i] = len(c)
			}
		}
	}
	if !sources {
		w[5] = 0
	}
	return w
}

func formatRow(r row, w [6]int, sources bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %*s  %*s  %*s  %*s",
		w[0], r.label, w[1], r.laps, w[2], r.total, w[3], r.mean, w[4], r.last)
	if sources {
		fmt.Fprintf(&b, "  %*s", w[5], r.sources)
	}
	return b.String()
}
