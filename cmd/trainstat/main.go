// Copyright 2015 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Trainstat computes throughput statistics from training logs.
//
// Usage:
//
//	trainstat [-format text|csv] [-sort order] [-grid=false] [-v] file|dir...
//
// Each input is a training log, or a directory of training logs. In
// grid-search mode, the default, a directory contributes the logs
// named training_<T>t_<B>b.log, where T is the thread count and B is
// the batch size of the run that wrote it. Files named on the command
// line that do not have this shape are skipped. With -grid=false,
// a directory contributes every *.log file and any file is accepted.
//
// For each log, trainstat finds the start of the first training epoch
// (the first timestamped line containing "Training Epoch 1") and the
// last timestamped progress line, such as
//
//	2024-01-01 10:01:30,000 100/800 [====>.....] - ETA: 00:05:00
//
// The time between them is the training duration. Output after the
// last progress line, such as a timeout and shutdown, is not counted.
// The completed step count is taken from the last progress line in the
// log, and the total from the "TRAINING STEPS - N" declaration, or
// from the last progress line if the log has none.
//
// Trainstat prints one row per log with its duration, steps,
// steps per minute, and progress. In grid-search mode, it follows the
// table with the best configurations by throughput, progress, and
// steps, and with throughput grouped by batch size and by thread
// count.
//
// The -format option selects text or csv output. CSV output contains
// only the per-log table, with full precision and additional columns.
//
// The -sort option specifies an order in which to list the logs: name,
// throughput, progress, or config (thread count, then batch size). A
// leading “-” prefix, as in “-throughput”, reverses the order.
//
// The -j option sets the number of logs read in parallel.
//
// The -v option prints a description of each log after the table and
// enables debug logging on standard error.
//
// Defaults for these options are read from trainstat.yaml, found in
// the current directory or one of its parents, or from the file named
// by -config. TRAINSTAT_* environment variables, which may be set in a
// .env file, override the file:
//
//	format: csv
//	sort: -throughput
//	workers: 8
//	grid: true
//	pattern: "training_*t_*b.log"
//	log_level: info
//
// # Example
//
// Suppose the directory logs contains the output of a grid search:
//
//	$ trainstat logs
//	Total log files processed: 2
//	Valid training sessions: 2
//
//	log                  threads  batch  duration    steps  steps/min  progress  efficiency
//	training_2t_8b.log         2      8    120.0s  120/400       60.0     30.0%        15.0
//	training_4t_16b.log        4     16     90.0s  180/200      120.0     90.0%        60.0
//
//	Highest throughput:  4 threads, 16 batch  → 120.0 steps/minute
//	Most progress:       4 threads, 16 batch  → 90.0% completion
//	Most steps:          4 threads, 16 batch  → 180 steps completed
//
//	Steps/minute range: min 60.0, max 120.0, mean 90.0
//
//	Performance by batch size:
//	  Batch 8:    avg 60.0,   max 60.0 steps/min
//	  Batch 16:  avg 120.0,  max 120.0 steps/min
//
//	Performance by threads:
//	  2 threads:   avg 60.0,   max 60.0 steps/min
//	  4 threads:  avg 120.0,  max 120.0 steps/min
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"golang.org/x/trainperf/internal/batch"
	"golang.org/x/trainperf/internal/config"
	tstat "golang.org/x/trainperf/trainstat"
)

var exit = os.Exit

// errUsage is returned by trainstat for command-line errors. The usage
// message has already been printed.
var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("trainstat: ")
	log.SetFlags(0)
	if err := trainstat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			exit(0)
		}
		if errors.Is(err, errUsage) {
			exit(2)
		}
		log.Print(err)
		exit(1)
	}
}

func trainstat(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("trainstat", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() {
		fmt.Fprintf(wErr, "usage: trainstat [options] file|dir...\n")
		fmt.Fprintf(wErr, "options:\n")
		flags.PrintDefaults()
	}

	def := config.Default()
	flagConfig := flags.String("config", "", "read defaults from `file` instead of searching for "+config.File)
	flagEnv := flags.String("env", ".env", "load environment variables from `file` if found")
	flagFormat := flags.String("format", def.Format, "print results in `format`: text or csv")
	flagSort := flags.String("sort", def.Sort, "sort logs by `order`: [-]name, [-]throughput, [-]progress, [-]config")
	flagWorkers := flags.Int("j", def.Workers, "read `n` logs in parallel (0 means one per CPU)")
	flagGrid := flags.Bool("grid", def.Grid, "only read grid-search logs named training_<T>t_<B>b.log")
	flagPattern := flags.String("pattern", def.Pattern, "find logs in directories with glob `pattern`")
	flagVerbose := flags.Bool("v", false, "print per-log details and debug logging")
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return errUsage
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return errUsage
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:          wErr,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}).Level(zerolog.WarnLevel)
	if *flagVerbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	zlog.Logger = logger

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(wd, *flagEnv, *flagConfig)
	if err != nil {
		return err
	}

	// Flags given on the command line override the configuration.
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = *flagFormat
		case "sort":
			cfg.Sort = *flagSort
		case "j":
			cfg.Workers = *flagWorkers
		case "grid":
			cfg.Grid = *flagGrid
		case "pattern":
			cfg.Pattern = *flagPattern
		case "v":
			cfg.LogLevel = "debug"
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(wErr, err)
		flags.Usage()
		return errUsage
	}
	order, _ := tstat.ParseOrder(cfg.Sort)
	logger = logger.Level(cfg.Level())
	zlog.Logger = logger

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = batch.GeneralPattern
		if cfg.Grid {
			pattern = batch.GridPattern
		}
	}
	paths, err := batch.Inputs(flags.Args(), pattern)
	if err != nil {
		return err
	}
	c, err := batch.Run(context.Background(), paths, batch.Options{
		Grid:    cfg.Grid,
		Workers: cfg.Workers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	rs := c.Records()
	tstat.Sort(rs, order)
	if cfg.Format == "csv" {
		return tstat.FormatCSV(w, rs, cfg.Grid)
	}
	return report(w, c, rs, cfg.Grid, *flagVerbose)
}

// report writes the text report of c to w. rs are the records of c in
// the order to print them.
func report(w io.Writer, c *tstat.Collection, rs []tstat.Record, grid, verbose bool) error {
	fmt.Fprintf(w, "Total log files processed: %d\n", c.Processed())
	fmt.Fprintf(w, "Valid training sessions: %d\n", len(c.Valid()))

	if len(rs) > 0 {
		fmt.Fprintln(w)
		if err := tstat.FormatText(w, rs, grid); err != nil {
			return err
		}
		if verbose {
			if err := tstat.FormatDetails(w, rs); err != nil {
				return err
			}
		}
	}

	// The grid-search summary covers every parsed log, timed or not.
	switch {
	case grid && len(rs) > 0:
		fmt.Fprintln(w)
		if err := tstat.FormatSummary(w, c); err != nil {
			return err
		}
	case len(c.Valid()) == 0:
		fmt.Fprintf(w, "\nNo valid results.\n")
	}

	if fs := c.Failures(); len(fs) > 0 {
		fmt.Fprintf(w, "\nFailed to read %d log(s):\n", len(fs))
		for _, f := range fs {
			fmt.Fprintf(w, "  %v\n", f)
		}
	}
	return nil
}
