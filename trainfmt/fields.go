// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trainfmt extracts structured fields from free-form training
// logs.
//
// A training log is plain text written by a training process: a
// preamble (data loading, configuration dumps), timestamped status
// lines, and terminal progress bars of the form
//
//	2024-01-01 10:01:30,000 108/810 [===>......] - ETA: 10:39
//
// The Reader recognizes a fixed set of line patterns and reports each
// match as a Record. Extract folds those records into a Fields value,
// where every field is optional: a pattern that never matches leaves
// its field absent rather than causing an error.
//
// This package is designed to be used with package trainstat, which
// reconciles Fields into throughput metrics.
package trainfmt

import "time"

// An Opt is a value that may be absent. The zero Opt is absent.
type Opt[T any] struct {
	Value T
	OK    bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, OK: true}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.OK
}

// Or returns the value if present, otherwise def.
func (o Opt[T]) Or(def T) T {
	if o.OK {
		return o.Value
	}
	return def
}

// A GridConfig is the configuration embedded in a grid-search log
// name, such as training_16t_32b.log.
type GridConfig struct {
	Threads   int
	BatchSize int
}

// Fields is the set of fields found in one training log.
//
// Fields are built once by Extract and should be treated as immutable
// afterwards.
type Fields struct {
	// Name is the identifying name the log was read from.
	Name string

	// Config is the thread count and batch size parsed from Name.
	// It is absent if Name does not have the grid-search shape.
	Config Opt[GridConfig]

	// DeclaredTotalSteps is the steps-per-epoch value declared by a
	// "TRAINING STEPS - N" line. The first such line wins.
	DeclaredTotalSteps Opt[int]

	// Progress holds one event per progress line, in document order.
	Progress []Progress

	// EpochStart is the timestamp of the first timestamped line
	// containing "Training Epoch 1".
	EpochStart Opt[time.Time]

	// BodyBatchSize and BodyThreads are the batch size and thread
	// count printed in the log body. They may disagree with Config.
	BodyBatchSize Opt[int]
	BodyThreads   Opt[int]

	// DataSize is the number of samples left after trimming.
	DataSize Opt[int]
}

// LastProgress returns the last progress event in document order.
func (f *Fields) LastProgress() (Progress, bool) {
	if len(f.Progress) == 0 {
		return Progress{}, false
	}
	return f.Progress[len(f.Progress)-1], true
}

// LastProgressTime returns the timestamp of the last progress event
// that carries one. Events without a timestamp are skipped.
func (f *Fields) LastProgressTime() (time.Time, bool) {
	for i := len(f.Progress) - 1; i >= 0; i-- {
		if t, ok := f.Progress[i].Time.Get(); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
