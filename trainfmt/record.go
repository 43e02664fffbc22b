// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainfmt

import (
	"fmt"
	"time"
)

// A Record is a single record read from a training log. It may be a
// *Progress, a *Marker, or a *Setting.
type Record interface {
	// Pos returns the position of this record as a log name and a
	// 1-based line number within that log. If this record was not
	// read by a Reader, it returns "", 0.
	Pos() (name string, line int)
}

var _ Record = (*Progress)(nil)
var _ Record = (*Marker)(nil)
var _ Record = (*Setting)(nil)

// A Progress is one progress-bar update:
//
//	<completed>/<total> [<bar>] - ETA: <clock>
type Progress struct {
	Completed int
	Total     int

	// ETA is the raw ETA clock string. It only confirms that the
	// line is a progress update and is not interpreted.
	ETA string

	// Time is the timestamp on the same line, if any.
	Time Opt[time.Time]

	name string
	line int
}

func (p *Progress) Pos() (name string, line int) { return p.name, p.line }

func (p *Progress) String() string {
	return fmt.Sprintf("%d/%d ETA %s", p.Completed, p.Total, p.ETA)
}

// A Marker is a timestamped "Training Epoch 1" line.
type Marker struct {
	Time time.Time

	name string
	line int
}

func (m *Marker) Pos() (name string, line int) { return m.name, m.line }

// A SettingKind identifies a named integer field in a log body.
type SettingKind int

const (
	// TotalSteps is "TRAINING STEPS - N", the declared steps per epoch.
	TotalSteps SettingKind = iota
	// BatchSize is "batch size - N".
	BatchSize
	// Threads is "#threads - N".
	Threads
	// DataSize is "Data size (after trimming M samples) - N".
	DataSize
)

func (k SettingKind) String() string {
	switch k {
	case TotalSteps:
		return "total-steps"
	case BatchSize:
		return "batch-size"
	case Threads:
		return "threads"
	case DataSize:
		return "data-size"
	}
	return fmt.Sprintf("SettingKind(%d)", int(k))
}

// A Setting is one occurrence of a named integer field.
type Setting struct {
	Kind  SettingKind
	Value int

	name string
	line int
}

func (s *Setting) Pos() (name string, line int) { return s.name, s.line }
