// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainstat

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"golang.org/x/trainperf/trainfmt"
)

// A Record is the reconciled metrics of one log, tagged with the
// log's name and configuration.
type Record struct {
	Name string

	// Config is the configuration from the log name.
	Config trainfmt.Opt[trainfmt.GridConfig]

	// BodyThreads, BodyBatchSize, and DataSize are informational
	// fields printed in the log body.
	BodyThreads   trainfmt.Opt[int]
	BodyBatchSize trainfmt.Opt[int]
	DataSize      trainfmt.Opt[int]

	Metrics
}

// NewRecord reconciles f and returns its Record.
func NewRecord(f *trainfmt.Fields) Record {
	return Record{
		Name:          f.Name,
		Config:        f.Config,
		BodyThreads:   f.BodyThreads,
		BodyBatchSize: f.BodyBatchSize,
		DataSize:      f.DataSize,
		Metrics:       Reconcile(f),
	}
}

// Label returns a short human-readable name for r: its
// configuration if it has one, otherwise the base name of its log.
func (r Record) Label() string {
	if c, ok := r.Config.Get(); ok {
		return fmt.Sprintf("%d threads, %d batch", c.Threads, c.BatchSize)
	}
	return filepath.Base(r.Name)
}

// Efficiency returns the progress made per minute of training time,
// in percent per minute. It reports false if r has no positive
// duration.
func (r Record) Efficiency() (float64, bool) {
	d := r.Duration.Or(0)
	if d <= 0 {
		return 0, false
	}
	return r.ProgressPercent / (d / 60), true
}

// A Failure is a log that could not be read.
type Failure struct {
	Name string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

// A Collection is a collection of log analysis results.
//
// The zero Collection is empty and ready to use. Records and
// failures are reported sorted by name regardless of the order they
// were added in.
type Collection struct {
	records  []Record
	failures []Failure
	skipped  []string
}

// Add adds a reconciled record to c. Records with the same
// configuration are kept separately.
func (c *Collection) Add(r Record) {
	c.records = append(c.records, r)
}

// AddFailure records that the log name could not be read.
func (c *Collection) AddFailure(name string, err error) {
	c.failures = append(c.failures, Failure{name, err})
}

// Skip records that the log name is not a training log.
func (c *Collection) Skip(name string) {
	c.skipped = append(c.skipped, name)
}

// Records returns the records in c, sorted by name.
func (c *Collection) Records() []Record {
	rs := append([]Record(nil), c.records...)
	Sort(rs, ByName)
	return rs
}

// Valid returns the records in c that have a defined duration,
// sorted by name.
func (c *Collection) Valid() []Record {
	var rs []Record
	for _, r := range c.Records() {
		if r.Duration.OK {
			rs = append(rs, r)
		}
	}
	return rs
}

// Failures returns the logs that could not be read, sorted by name.
func (c *Collection) Failures() []Failure {
	fs := append([]Failure(nil), c.failures...)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
	return fs
}

// Skipped returns the names of logs that were not training logs,
// sorted.
func (c *Collection) Skipped() []string {
	s := append([]string(nil), c.skipped...)
	sort.Strings(s)
	return s
}

// Processed returns the number of logs that were read or failed.
// Skipped logs are not counted.
func (c *Collection) Processed() int {
	return len(c.records) + len(c.failures)
}

// A Criterion selects the value to maximize when choosing the best
// record.
type Criterion struct {
	Name  string
	Value func(r Record) float64
}

var (
	MostThroughput = Criterion{"steps/min", func(r Record) float64 { return r.StepsPerMinute }}
	MostProgress   = Criterion{"progress", func(r Record) float64 { return r.ProgressPercent }}
	MostSteps      = Criterion{"steps", func(r Record) float64 { return float64(r.StepsCompleted) }}
)

// Best returns the record with the largest value of crit. Ties go to
// the first record by name. It reports false if c has no records.
func (c *Collection) Best(crit Criterion) (Record, bool) {
	rs := c.Records()
	if len(rs) == 0 {
		return Record{}, false
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if crit.Value(r) > crit.Value(best) {
			best = r
		}
	}
	return best, true
}

// A Summary summarizes the throughput of every record in a
// Collection.
type Summary struct {
	// Configurations is the number of records summarized.
	Configurations int

	// Best is the record with the highest steps per minute. It is
	// only meaningful if Configurations > 0.
	Best Record

	// Min, Max, and Mean are the range and mean of steps per minute.
	Min, Max, Mean float64
}

// Summarize returns the throughput summary of c.
func (c *Collection) Summarize() Summary {
	rs := c.Records()
	s := Summary{Configurations: len(rs)}
	if len(rs) == 0 {
		return s
	}
	s.Best, _ = c.Best(MostThroughput)
	xs := stepsPerMinute(rs)
	s.Min, s.Max = stats.Bounds(xs)
	s.Mean = stats.Mean(xs)
	return s
}

// A GroupKey extracts the grouping key of a record. Records without
// a key are left out of every group.
type GroupKey struct {
	Name string
	Key  func(r Record) (int, bool)
}

var (
	ByBatchSize = GroupKey{"batch size", func(r Record) (int, bool) {
		c, ok := r.Config.Get()
		return c.BatchSize, ok
	}}
	ByThreads = GroupKey{"threads", func(r Record) (int, bool) {
		c, ok := r.Config.Get()
		return c.Threads, ok
	}}
)

// A Group is the throughput of all records sharing one key value.
type Group struct {
	Key       int
	N         int
	Mean, Max float64
}

// GroupBy groups the records of c by key and returns the groups in
// increasing key order.
func (c *Collection) GroupBy(key GroupKey) []Group {
	byKey := make(map[int][]Record)
	var keys []int
	for _, r := range c.Records() {
		k, ok := key.Key(r)
		if !ok {
			continue
		}
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], r)
	}
	sort.Ints(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		xs := stepsPerMinute(byKey[k])
		_, hi := stats.Bounds(xs)
		groups = append(groups, Group{Key: k, N: len(xs), Mean: stats.Mean(xs), Max: hi})
	}
	return groups
}

func stepsPerMinute(rs []Record) []float64 {
	xs := make([]float64, len(rs))
	for i, r := range rs {
		xs[i] = r.StepsPerMinute
	}
	return xs
}
