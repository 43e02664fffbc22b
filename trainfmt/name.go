// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainfmt

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// gridNameRE matches the start of a grid-search log name. Like the
// scripts that produce these logs, only the prefix is anchored, so
// "training_4t_16b.log.1" still names a 4 thread, 16 batch run.
var gridNameRE = regexp.MustCompile(`^training_(\d+)t_(\d+)b\.log`)

// ParseName parses the grid-search configuration embedded in a log
// name of the form training_<threads>t_<batch>b.log. Any directory
// part of name is ignored. It reports false if the base name does not
// have that shape, in which case the log is not a grid-search log.
func ParseName(name string) (GridConfig, bool) {
	m := gridNameRE.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return GridConfig{}, false
	}
	threads, err := strconv.Atoi(m[1])
	if err != nil {
		return GridConfig{}, false
	}
	batch, err := strconv.Atoi(m[2])
	if err != nil {
		return GridConfig{}, false
	}
	return GridConfig{Threads: threads, BatchSize: batch}, true
}

// Name returns the log name for c, the inverse of ParseName.
func (c GridConfig) Name() string {
	return fmt.Sprintf("training_%dt_%db.log", c.Threads, c.BatchSize)
}

// String returns the short "<threads>t_<batch>b" label for c.
func (c GridConfig) String() string {
	return fmt.Sprintf("%dt_%db", c.Threads, c.BatchSize)
}
