// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trainstat reconciles the fields of training logs into
// throughput metrics and aggregates them across a grid search.
//
// Reconcile turns one trainfmt.Fields into Metrics. A Collection holds
// the resulting Records, along with the logs that could not be read,
// and computes the summaries used to pick a configuration: the best
// record by some criterion, the range of throughputs, and throughput
// grouped by batch size or thread count.
package trainstat

import (
	"time"

	"golang.org/x/trainperf/trainfmt"
)

// Metrics are the performance metrics derived from one log.
type Metrics struct {
	// Start is the timestamp of the epoch 1 start marker and End is
	// the timestamp of the last timestamped progress update.
	Start, End trainfmt.Opt[time.Time]

	// Duration is End - Start in seconds. It is absent if either end
	// is absent. Trailing shutdown output and any preamble before
	// epoch 1 are excluded, so a run cut off by a timeout is measured
	// up to its last progress update.
	Duration trainfmt.Opt[float64]

	// StepsCompleted is the completed count of the last progress
	// update in document order, or 0.
	StepsCompleted int

	// TotalSteps is the steps per epoch and TotalStepsSource names
	// the entry of TotalStepsSources it came from.
	TotalSteps       trainfmt.Opt[int]
	TotalStepsSource string

	// ProgressPercent is StepsCompleted / TotalSteps * 100, or 0 if
	// TotalSteps is absent or zero.
	ProgressPercent float64

	// StepsPerMinute and StepsPerSecond are the throughput over
	// Duration, or 0 if Duration is absent or not positive.
	StepsPerMinute float64
	StepsPerSecond float64
}

// A StepsSource is one candidate for a log's total steps.
type StepsSource struct {
	Name  string
	Steps func(f *trainfmt.Fields) (int, bool)
}

// TotalStepsSources are the candidates for Metrics.TotalSteps in
// priority order. The first source that yields a value wins.
//
// The declared total is authoritative. The denominator of the last
// progress update is the fallback for logs cut off before the
// declaration was written.
var TotalStepsSources = []StepsSource{
	{"declared", func(f *trainfmt.Fields) (int, bool) {
		return f.DeclaredTotalSteps.Get()
	}},
	{"progress", func(f *trainfmt.Fields) (int, bool) {
		p, ok := f.LastProgress()
		return p.Total, ok
	}},
}

// Reconcile computes the metrics of the log described by f. It is a
// pure function of f.
func Reconcile(f *trainfmt.Fields) Metrics {
	var m Metrics

	m.Start = f.EpochStart
	if end, ok := f.LastProgressTime(); ok {
		m.End = trainfmt.Some(end)
	}
	if m.Start.OK && m.End.OK {
		m.Duration = trainfmt.Some(m.End.Value.Sub(m.Start.Value).Seconds())
	}

	if last, ok := f.LastProgress(); ok {
		m.StepsCompleted = last.Completed
	}

	for _, src := range TotalStepsSources {
		if n, ok := src.Steps(f); ok {
			m.TotalSteps = trainfmt.Some(n)
			m.TotalStepsSource = src.Name
			break
		}
	}

	if total := m.TotalSteps.Or(0); total > 0 {
		m.ProgressPercent = float64(m.StepsCompleted) / float64(total) * 100
	}
	if d := m.Duration.Or(0); d > 0 {
		m.StepsPerMinute = float64(m.StepsCompleted) * 60 / d
		m.StepsPerSecond = float64(m.StepsCompleted) / d
	}
	return m
}
