// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package batch reads a set of training logs and collects their
// reconciled metrics.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"golang.org/x/trainperf/trainfmt"
	"golang.org/x/trainperf/trainstat"
)

// ErrNotApplicable is returned for a log whose name does not have
// the grid-search shape when running in grid mode.
var ErrNotApplicable = errors.New("not a grid-search training log")

// Patterns used by Inputs to expand directories.
const (
	GridPattern    = "training_*t_*b.log"
	GeneralPattern = "*.log"
)

// Options control a batch run.
type Options struct {
	// Grid restricts the run to logs named training_<T>t_<B>b.log.
	// Other logs are skipped.
	Grid bool

	// Workers is the number of logs read concurrently. If it is 0,
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	Logger zerolog.Logger
}

// Inputs expands paths into the list of log files to read. A
// directory is replaced by the files in it that match pattern, in
// sorted order. Other paths are returned as is, so that a missing file
// is reported by Run as a failure.
func Inputs(paths []string, pattern string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			files = append(files, path)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "bad pattern %q", pattern)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

// result is the outcome of reading one log.
type result struct {
	rec trainstat.Record
	err error
}

// Run reads every log in paths and returns the collection of their
// records. A log that cannot be read is recorded as a failure and does
// not stop the run. Run only returns an error if ctx is canceled.
func Run(ctx context.Context, paths []string, opts Options) (*trainstat.Collection, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger

	results := make([]result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := readLog(path, opts.Grid)
			results[i] = result{rec, err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := new(trainstat.Collection)
	for i, res := range results {
		path := paths[i]
		switch {
		case errors.Is(res.err, ErrNotApplicable):
			log.Debug().Str("file", path).Msg("skipping")
			c.Skip(path)
		case res.err != nil:
			log.Warn().Err(res.err).Str("file", path).Msg("unable to read log")
			c.AddFailure(path, errors.Cause(res.err))
		default:
			log.Debug().
				Str("file", path).
				Int("steps", res.rec.StepsCompleted).
				Float64("steps_per_min", res.rec.StepsPerMinute).
				Bool("duration", res.rec.Duration.OK).
				Msg("parsed")
			c.Add(res.rec)
		}
	}
	log.Info().
		Int("processed", c.Processed()).
		Int("valid", len(c.Valid())).
		Int("failed", len(c.Failures())).
		Int("skipped", len(c.Skipped())).
		Msg("batch complete")
	return c, nil
}

// readLog extracts and reconciles the log at path.
func readLog(path string, grid bool) (trainstat.Record, error) {
	if grid {
		if _, ok := trainfmt.ParseName(path); !ok {
			return trainstat.Record{}, ErrNotApplicable
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return trainstat.Record{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	fields, err := trainfmt.Extract(f, path)
	if err != nil {
		return trainstat.Record{}, errors.Wrapf(err, "reading %s", path)
	}
	return trainstat.NewRecord(fields), nil
}
