// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainstat

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/trainperf/internal/texttab"
	"golang.org/x/trainperf/trainfmt"
)

// notAvailable is printed in text tables for absent values.
const notAvailable = "N/A"

// A column is one column of the per-log results table. text and csv
// format a record for the text and CSV forms; a nil formatter leaves
// the column out of that form.
type column struct {
	name  string
	grid  bool // only shown for grid-search results
	right bool // right-aligned in text form
	text  func(r Record) string
	csv   func(r Record) string
}

var columns = []column{
	{
		name: "log",
		text: func(r Record) string { return filepath.Base(r.Name) },
		csv:  func(r Record) string { return filepath.Base(r.Name) },
	},
	{
		name: "threads", grid: true, right: true,
		text: func(r Record) string { return optText(gridThreads(r)) },
		csv:  func(r Record) string { return optCSV(gridThreads(r)) },
	},
	{
		name: "batch", grid: true, right: true,
		text: func(r Record) string { return optText(gridBatch(r)) },
		csv:  func(r Record) string { return optCSV(gridBatch(r)) },
	},
	{
		name: "duration", right: true,
		text: func(r Record) string {
			if d, ok := r.Duration.Get(); ok {
				return fmt.Sprintf("%.1fs", d)
			}
			return notAvailable
		},
		csv: func(r Record) string { return floatCSV(r.Duration) },
	},
	{
		name: "steps", right: true,
		text: func(r Record) string {
			total := "?"
			if n, ok := r.TotalSteps.Get(); ok {
				total = strconv.Itoa(n)
			}
			return fmt.Sprintf("%d/%s", r.StepsCompleted, total)
		},
		csv: func(r Record) string { return strconv.Itoa(r.StepsCompleted) },
	},
	{
		name: "total_steps",
		csv:  func(r Record) string { return optCSV(r.TotalSteps) },
	},
	{
		name: "total_steps_source",
		csv:  func(r Record) string { return r.TotalStepsSource },
	},
	{
		name: "steps/min", right: true,
		text: func(r Record) string { return rateText(r.StepsPerMinute, "%.1f") },
		csv:  func(r Record) string { return strconv.FormatFloat(r.StepsPerMinute, 'g', -1, 64) },
	},
	{
		name: "steps/sec",
		csv:  func(r Record) string { return strconv.FormatFloat(r.StepsPerSecond, 'g', -1, 64) },
	},
	{
		name: "progress", right: true,
		text: func(r Record) string { return rateText(r.ProgressPercent, "%.1f%%") },
		csv:  func(r Record) string { return strconv.FormatFloat(r.ProgressPercent, 'g', -1, 64) },
	},
	{
		name: "efficiency", grid: true, right: true,
		text: func(r Record) string {
			if e, ok := r.Efficiency(); ok {
				return fmt.Sprintf("%.1f", e)
			}
			return notAvailable
		},
		csv: func(r Record) string {
			e, ok := r.Efficiency()
			return floatCSV(trainfmt.Opt[float64]{Value: e, OK: ok})
		},
	},
	{
		name: "start",
		csv:  func(r Record) string { return timeCSV(r.Start) },
	},
	{
		name: "end",
		csv:  func(r Record) string { return timeCSV(r.End) },
	},
	{
		name: "log_threads", grid: true,
		csv: func(r Record) string { return optCSV(r.BodyThreads) },
	},
	{
		name: "log_batch", grid: true,
		csv: func(r Record) string { return optCSV(r.BodyBatchSize) },
	},
	{
		name: "data_size",
		csv:  func(r Record) string { return optCSV(r.DataSize) },
	},
}

func gridThreads(r Record) trainfmt.Opt[int] {
	c, ok := r.Config.Get()
	return trainfmt.Opt[int]{Value: c.Threads, OK: ok}
}

func gridBatch(r Record) trainfmt.Opt[int] {
	c, ok := r.Config.Get()
	return trainfmt.Opt[int]{Value: c.BatchSize, OK: ok}
}

// rateText formats a rate, showing zero as not available: a zero rate
// means there was no data to compute it from.
func rateText(v float64, format string) string {
	if v == 0 {
		return notAvailable
	}
	return fmt.Sprintf(format, v)
}

func optText(o trainfmt.Opt[int]) string {
	if v, ok := o.Get(); ok {
		return strconv.Itoa(v)
	}
	return notAvailable
}

func optCSV(o trainfmt.Opt[int]) string {
	if v, ok := o.Get(); ok {
		return strconv.Itoa(v)
	}
	return ""
}

func floatCSV(o trainfmt.Opt[float64]) string {
	if v, ok := o.Get(); ok {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return ""
}

func timeCSV(o trainfmt.Opt[time.Time]) string {
	if t, ok := o.Get(); ok {
		return t.Format(time.RFC3339)
	}
	return ""
}

// selectColumns returns the columns shown in one form of the table.
func selectColumns(grid, csvForm bool) []column {
	var cols []column
	for _, c := range columns {
		if c.grid && !grid {
			continue
		}
		if (csvForm && c.csv == nil) || (!csvForm && c.text == nil) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// FormatText writes a fixed-width table of rs to w, one row per
// record, in the order given. If grid is set, the table includes the
// grid-search configuration of each record.
func FormatText(w io.Writer, rs []Record, grid bool) error {
	cols := selectColumns(grid, false)
	var tab texttab.Table
	tab.Row()
	for i, c := range cols {
		tab.Cell(c.name)
		if c.right {
			tab.SetAlign(i, texttab.AlignRight)
		}
	}
	for _, r := range rs {
		tab.Row()
		for _, c := range cols {
			tab.Cell(c.text(r))
		}
	}
	return tab.Format(w)
}

// FormatCSV writes rs to w in CSV form with a header row. Numbers are
// written with full precision and absent values are empty.
func FormatCSV(w io.Writer, rs []Record, grid bool) error {
	cols := selectColumns(grid, true)
	cw := csv.NewWriter(w)
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = c.name
	}
	cw.Write(row)
	for _, r := range rs {
		for i, c := range cols {
			row[i] = c.csv(r)
		}
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// FormatDetails writes a multi-line description of each record in rs
// to w.
func FormatDetails(w io.Writer, rs []Record) error {
	for _, r := range rs {
		fmt.Fprintf(w, "\nLog: %s\n", filepath.Base(r.Name))
		fmt.Fprintf(w, "  Start: %s\n", timeText(r.Start))
		fmt.Fprintf(w, "  End: %s\n", timeText(r.End))
		if d, ok := r.Duration.Get(); ok {
			fmt.Fprintf(w, "  Duration: %.1f seconds\n", d)
		} else {
			fmt.Fprintf(w, "  Duration: %s\n", notAvailable)
		}
		total := notAvailable
		if n, ok := r.TotalSteps.Get(); ok {
			total = fmt.Sprintf("%d (%s)", n, r.TotalStepsSource)
		}
		fmt.Fprintf(w, "  Steps: %d/%s\n", r.StepsCompleted, total)
		fmt.Fprintf(w, "  Steps/minute: %.1f\n", r.StepsPerMinute)
		if _, err := fmt.Fprintf(w, "  Progress: %.1f%%\n", r.ProgressPercent); err != nil {
			return err
		}
	}
	return nil
}

func timeText(o trainfmt.Opt[time.Time]) string {
	if t, ok := o.Get(); ok {
		return t.Format(trainfmt.TimeLayout)
	}
	return notAvailable
}

// FormatSummary writes the optimal configuration analysis of c to w:
// the best record by each criterion, the range of steps per minute,
// and steps per minute grouped by batch size and by thread count.
func FormatSummary(w io.Writer, c *Collection) error {
	s := c.Summarize()
	if s.Configurations == 0 {
		_, err := fmt.Fprintf(w, "No valid results.\n")
		return err
	}

	var tab texttab.Table
	for _, b := range []struct {
		title string
		crit  Criterion
		value func(r Record) string
	}{
		{"Highest throughput:", MostThroughput, func(r Record) string { return fmt.Sprintf("%.1f steps/minute", r.StepsPerMinute) }},
		{"Most progress:", MostProgress, func(r Record) string { return fmt.Sprintf("%.1f%% completion", r.ProgressPercent) }},
		{"Most steps:", MostSteps, func(r Record) string { return fmt.Sprintf("%d steps completed", r.StepsCompleted) }},
	} {
		r, _ := c.Best(b.crit)
		tab.Row().Cells(b.title, r.Label(), "→ "+b.value(r))
	}
	if err := tab.Format(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSteps/minute range: min %.1f, max %.1f, mean %.1f\n", s.Min, s.Max, s.Mean)

	for _, g := range []struct {
		key   GroupKey
		label func(k int) string
	}{
		{ByBatchSize, func(k int) string { return fmt.Sprintf("Batch %d:", k) }},
		{ByThreads, func(k int) string { return fmt.Sprintf("%d threads:", k) }},
	} {
		groups := c.GroupBy(g.key)
		if len(groups) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nPerformance by %s:\n", g.key.Name)
		var tab texttab.Table
		tab.SetAlign(1, texttab.AlignRight)
		tab.SetAlign(2, texttab.AlignRight)
		for _, grp := range groups {
			tab.Row().Cells("  "+g.label(grp.Key), fmt.Sprintf("avg %.1f,", grp.Mean), fmt.Sprintf("max %.1f steps/min", grp.Max))
		}
		if err := tab.Format(w); err != nil {
			return err
		}
	}
	return nil
}
