// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxLineLen is the longest line a Reader parses. Only the first
// MaxLineLen bytes of a longer line are parsed; the rest is discarded.
const MaxLineLen = 1 << 20

// TimeLayout is the layout of log line timestamps, without the
// ",mmm" millisecond suffix, which is ignored.
const TimeLayout = "2006-01-02 15:04:05"

// EpochStartMarker is the literal text that marks the start of the
// first training epoch.
const EpochStartMarker = "Training Epoch 1"

var (
	timestampRE  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),\d{3}`)
	progressRE   = regexp.MustCompile(`(\d+)/(\d+) \[.*?\] - ETA: ([\d:]+)`)
	totalStepsRE = regexp.MustCompile(`TRAINING STEPS - (\d+)`)
	batchSizeRE  = regexp.MustCompile(`batch size - (\d+)`)
	threadsRE    = regexp.MustCompile(`#threads - (\d+)`)
	dataSizeRE   = regexp.MustCompile(`Data size \(after trimming \d+ samples\) - (\d+)`)
)

// settingPatterns lists the named-field patterns in the order their
// records are queued for a single line.
var settingPatterns = []struct {
	kind SettingKind
	re   *regexp.Regexp
}{
	{TotalSteps, totalStepsRE},
	{BatchSize, batchSizeRE},
	{Threads, threadsRE},
	{DataSize, dataSizeRE},
}

// A Reader reads records from a training log.
//
// Its API is modeled on bufio.Scanner. Each call to Scan advances to
// the next record; a single line may produce several records (for
// example, a timestamped progress line that also declares the batch
// size).
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	s    *bufio.Scanner
	err  error
	name string
	line int

	// q is the queue of records produced by the current line.
	q    []Record
	qPos int

	// discard is set while dropping the remainder of a line longer
	// than MaxLineLen. skipLF is set when a line ended with "\r" at
	// the end of a full buffer, so a following "\n" belongs to it.
	discard bool
	skipLF  bool
}

// NewReader returns a Reader that reads the log r. name identifies
// the log in record positions; it is purely diagnostic.
func NewReader(r io.Reader, name string) *Reader {
	reader := new(Reader)
	reader.Reset(r, name)
	return reader
}

// Reset resets the reader to begin reading from a new log.
func (r *Reader) Reset(ior io.Reader, name string) {
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(make([]byte, 0, 64*1024), MaxLineLen)
	r.s.Split(r.split)
	if name == "" {
		name = "<unknown>"
	}
	r.name = name
	r.line = 0
	r.err = nil
	r.qPos = 0
	r.q = r.q[:0]
	r.discard = false
	r.skipLF = false
}

// Scan advances the reader to the next record and reports whether a
// record was read. The caller should use the Record method to get the
// record. If Scan reaches EOF or an I/O error occurs, it returns
// false, in which case the caller should use the Err method to check
// for errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if r.qPos+1 < len(r.q) {
		r.qPos++
		return true
	}
	r.qPos = 0
	r.q = r.q[:0]

	for len(r.q) == 0 && r.s.Scan() {
		r.line++
		r.parseLine(r.s.Text())
	}
	if len(r.q) > 0 {
		return true
	}

	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.name, r.line+1, err)
	}
	return false
}

// Record returns the record that was just read by Scan. This is a
// *Progress, a *Marker, or a *Setting.
//
// Records are not reused, so the caller may retain them.
func (r *Reader) Record() Record {
	if r.qPos >= len(r.q) {
		return nil
	}
	return r.q[r.qPos]
}

// Err returns the first non-EOF I/O error that was encountered by the
// Reader.
func (r *Reader) Err() error {
	return r.err
}

// parseLine queues the records found on line.
func (r *Reader) parseLine(line string) {
	ts := parseTimestamp(line)

	if m := progressRE.FindStringSubmatch(line); m != nil {
		completed, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			r.q = append(r.q, &Progress{
				Completed: completed,
				Total:     total,
				ETA:       m[3],
				Time:      ts,
				name:      r.name,
				line:      r.line,
			})
		}
	}

	// A start marker is only useful for timing.
	if ts.OK && strings.Contains(line, EpochStartMarker) {
		r.q = append(r.q, &Marker{Time: ts.Value, name: r.name, line: r.line})
	}

	for _, p := range settingPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		r.q = append(r.q, &Setting{Kind: p.kind, Value: v, name: r.name, line: r.line})
	}
}

// parseTimestamp returns the first timestamp on line. A substring
// that has the right shape but is not a valid date and time is
// treated as no timestamp.
func parseTimestamp(line string) Opt[time.Time] {
	m := timestampRE.FindStringSubmatch(line)
	if m == nil {
		return Opt[time.Time]{}
	}
	t, err := time.Parse(TimeLayout, m[1])
	if err != nil {
		return Opt[time.Time]{}
	}
	return Some(t)
}

// split is the bufio.SplitFunc of r. It splits on "\n", "\r\n", and a
// bare "\r". Progress bars redraw themselves with "\r", so each redraw
// is its own line. A line longer than MaxLineLen is cut after
// MaxLineLen bytes.
func (r *Reader) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if r.skipLF {
		r.skipLF = false
		if data[0] == '\n' {
			return 1, nil, nil
		}
	}

	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		switch {
		case r.discard:
			return len(data), nil, nil
		case atEOF:
			return len(data), data, nil
		case len(data) >= MaxLineLen:
			// The buffer is full and holds no line ending.
			r.discard = true
			return MaxLineLen, data[:MaxLineLen], nil
		}
		return 0, nil, nil
	}

	advance = i + 1
	if data[i] == '\r' {
		switch {
		case i+1 < len(data):
			if data[i+1] == '\n' {
				advance++
			}
		case atEOF:
		case len(data) < MaxLineLen:
			// Need another byte to tell "\r" from "\r\n".
			return 0, nil, nil
		default:
			r.skipLF = true
		}
	}
	if r.discard {
		r.discard = false
		return advance, nil, nil
	}
	return advance, data[:i], nil
}

// Extract reads the whole log r and returns the fields found in it.
// name is the log's identifying name; if it has the grid-search shape
// (see ParseName), Fields.Config is set from it.
//
// Extract never fails because of log content. The only errors are I/O
// errors from r.
func Extract(r io.Reader, name string) (*Fields, error) {
	f := &Fields{Name: name}
	if cfg, ok := ParseName(name); ok {
		f.Config = Some(cfg)
	}

	rd := NewReader(r, name)
	for rd.Scan() {
		switch rec := rd.Record().(type) {
		case *Progress:
			f.Progress = append(f.Progress, *rec)
		case *Marker:
			if !f.EpochStart.OK {
				f.EpochStart = Some(rec.Time)
			}
		case *Setting:
			f.setFirst(rec)
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// setFirst records s in f unless a setting of the same kind was
// already recorded.
func (f *Fields) setFirst(s *Setting) {
	var dst *Opt[int]
	switch s.Kind {
	case TotalSteps:
		dst = &f.DeclaredTotalSteps
	case BatchSize:
		dst = &f.BodyBatchSize
	case Threads:
		dst = &f.BodyThreads
	case DataSize:
		dst = &f.DataSize
	default:
		return
	}
	if !dst.OK {
		*dst = Some(s.Value)
	}
}
