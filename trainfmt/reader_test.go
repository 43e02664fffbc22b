// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainfmt

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ts(s string) Opt[time.Time] {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		panic(err)
	}
	return Some(t)
}

func readAll(t *testing.T, r io.Reader) []Record {
	t.Helper()
	rd := NewReader(r, "test")
	var out []Record
	for rd.Scan() {
		out = append(out, rd.Record())
	}
	if err := rd.Err(); err != nil {
		t.Fatal("reading failed: ", err)
	}
	return out
}

var recordOpts = cmp.AllowUnexported(Progress{}, Marker{}, Setting{})

func TestReader(t *testing.T) {
	type testCase struct {
		name, input string
		want        []Record
	}
	for _, test := range []testCase{
		{
			"empty",
			"",
			nil,
		},
		{
			"progress",
			"108/810 [===>......] - ETA: 10:39\n",
			[]Record{
				&Progress{Completed: 108, Total: 810, ETA: "10:39", name: "test", line: 1},
			},
		},
		{
			"timestamped progress",
			"2024-01-01 10:01:30,000 INFO 100/800 [====] - ETA: 00:05:00\n",
			[]Record{
				&Progress{Completed: 100, Total: 800, ETA: "00:05:00", Time: ts("2024-01-01 10:01:30"), name: "test", line: 1},
			},
		},
		{
			"progress without ETA",
			"810/810 [==============================] - 100s 120ms/step\n",
			nil,
		},
		{
			"first progress match on a line",
			"1/9 [=] - ETA: 0:01 2/9 [==] - ETA: 0:00\n",
			[]Record{
				&Progress{Completed: 1, Total: 9, ETA: "0:01", name: "test", line: 1},
			},
		},
		{
			"start marker",
			"2024-01-01 10:00:00,000 Training Epoch 1\n",
			[]Record{
				&Marker{Time: ts("2024-01-01 10:00:00").Value, name: "test", line: 1},
			},
		},
		{
			"start marker without timestamp",
			"Training Epoch 1\n",
			nil,
		},
		{
			"malformed timestamp",
			"2024-13-01 10:00:00,000 Training Epoch 1\n2024-02-30 10:00:00,000 5/10 [=] - ETA: 1:00\n",
			[]Record{
				&Progress{Completed: 5, Total: 10, ETA: "1:00", name: "test", line: 2},
			},
		},
		{
			"settings",
			`TRAINING STEPS - 810
batch size - 32
#threads - 16
Data size (after trimming 12 samples) - 25920
`,
			[]Record{
				&Setting{Kind: TotalSteps, Value: 810, name: "test", line: 1},
				&Setting{Kind: BatchSize, Value: 32, name: "test", line: 2},
				&Setting{Kind: Threads, Value: 16, name: "test", line: 3},
				&Setting{Kind: DataSize, Value: 25920, name: "test", line: 4},
			},
		},
		{
			"several records on one line",
			"2024-01-01 10:00:00,000 Training Epoch 1 batch size - 8 1/2 [] - ETA: 0:01\n",
			[]Record{
				&Progress{Completed: 1, Total: 2, ETA: "0:01", Time: ts("2024-01-01 10:00:00"), name: "test", line: 1},
				&Marker{Time: ts("2024-01-01 10:00:00").Value, name: "test", line: 1},
				&Setting{Kind: BatchSize, Value: 8, name: "test", line: 1},
			},
		},
		{
			"carriage returns",
			"1/3 [=] - ETA: 0:02\r2/3 [==] - ETA: 0:01\r\n3/3 [===] - ETA: 0:00",
			[]Record{
				&Progress{Completed: 1, Total: 3, ETA: "0:02", name: "test", line: 1},
				&Progress{Completed: 2, Total: 3, ETA: "0:01", name: "test", line: 2},
				&Progress{Completed: 3, Total: 3, ETA: "0:00", name: "test", line: 3},
			},
		},
		{
			"integer overflow",
			"99999999999999999999/10 [=] - ETA: 0:01\nTRAINING STEPS - 99999999999999999999\n",
			nil,
		},
		{
			"integer overflow on a timestamped line",
			"2024-01-01 10:01:30,000 1/99999999999999999999 [=] - ETA: 0:01\n",
			nil,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := readAll(t, strings.NewReader(test.input))
			if diff := cmp.Diff(test.want, got, recordOpts); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			// Splitting must not depend on how the input is chunked.
			got = readAll(t, iotest.OneByteReader(strings.NewReader(test.input)))
			if diff := cmp.Diff(test.want, got, recordOpts); diff != "" {
				t.Errorf("one byte reader: records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderPos(t *testing.T) {
	rd := NewReader(strings.NewReader("noise\n\n2/4 [] - ETA: 0:01\n"), "a.log")
	if !rd.Scan() {
		t.Fatalf("want a record, got none (err %v)", rd.Err())
	}
	name, line := rd.Record().Pos()
	if name != "a.log" || line != 3 {
		t.Errorf("want a.log:3, got %s:%d", name, line)
	}
	if rd.Scan() {
		t.Errorf("want end of records, got %v", rd.Record())
	}
}

func TestReaderLongLine(t *testing.T) {
	long := strings.Repeat("=", 2*MaxLineLen)
	for _, test := range []struct {
		name, input string
		want        []Record
	}{
		{
			"events around a long line",
			"2024-01-01 10:00:00,000 Training Epoch 1\n" +
				"TRAINING STEPS - 800 " + long + " batch size - 9\n" +
				"2024-01-01 10:01:30,000 100/800 [==] - ETA: 0:05\n",
			[]Record{
				&Marker{Time: ts("2024-01-01 10:00:00").Value, name: "test", line: 1},
				&Setting{Kind: TotalSteps, Value: 800, name: "test", line: 2},
				&Progress{Completed: 100, Total: 800, ETA: "0:05", Time: ts("2024-01-01 10:01:30"), name: "test", line: 3},
			},
		},
		{
			"long last line",
			"1/2 [] - ETA: 0:01\n" + strings.Repeat("=", MaxLineLen+1) + "\n",
			[]Record{
				&Progress{Completed: 1, Total: 2, ETA: "0:01", name: "test", line: 1},
			},
		},
		{
			"long last line without line ending",
			"1/2 [] - ETA: 0:01\n" + long,
			[]Record{
				&Progress{Completed: 1, Total: 2, ETA: "0:01", name: "test", line: 1},
			},
		},
		{
			"CRLF split by a full buffer",
			strings.Repeat("=", MaxLineLen-1) + "\r\n1/2 [] - ETA: 0:01\n",
			[]Record{
				&Progress{Completed: 1, Total: 2, ETA: "0:01", name: "test", line: 2},
			},
		},
		{
			"bare CR at the end of a full buffer",
			strings.Repeat("=", MaxLineLen-1) + "\r1/2 [] - ETA: 0:01\n",
			[]Record{
				&Progress{Completed: 1, Total: 2, ETA: "0:01", name: "test", line: 2},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := readAll(t, strings.NewReader(test.input))
			if diff := cmp.Diff(test.want, got, recordOpts); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderIOError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Extract(iotest.ErrReader(boom), "bad.log")
	if !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

func TestExtract(t *testing.T) {
	const log = `2024-01-01 09:59:00,000 Loading data
Data size (after trimming 12 samples) - 25920
batch size - 32
#threads - 8
Training Epoch 1
2024-01-01 10:00:00,000 Training Epoch 1
2024-01-01 10:00:05,000 Training Epoch 1 (again)
TRAINING STEPS - 810
2024-01-01 10:00:30,000 10/810 [>.....] - ETA: 30:00
20/810 [>.....] - ETA: 29:00
2024-01-01 10:01:00,000 30/800 [>.....] - ETA: 28:00
TRAINING STEPS - 999
batch size - 64
2024-01-01 10:02:00,000 Shutting down
`
	got, err := Extract(strings.NewReader(log), "logs/training_16t_32b.log")
	if err != nil {
		t.Fatal(err)
	}
	want := &Fields{
		Name:               "logs/training_16t_32b.log",
		Config:             Some(GridConfig{Threads: 16, BatchSize: 32}),
		DeclaredTotalSteps: Some(810),
		Progress: []Progress{
			{Completed: 10, Total: 810, ETA: "30:00", Time: ts("2024-01-01 10:00:30"), name: "logs/training_16t_32b.log", line: 9},
			{Completed: 20, Total: 810, ETA: "29:00", name: "logs/training_16t_32b.log", line: 10},
			{Completed: 30, Total: 800, ETA: "28:00", Time: ts("2024-01-01 10:01:00"), name: "logs/training_16t_32b.log", line: 11},
		},
		EpochStart:    ts("2024-01-01 10:00:00"),
		BodyBatchSize: Some(32),
		BodyThreads:   Some(8),
		DataSize:      Some(25920),
	}
	if diff := cmp.Diff(want, got, recordOpts); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	last, ok := got.LastProgress()
	if !ok || last.Completed != 30 {
		t.Errorf("LastProgress: want 30, got %v %v", last.Completed, ok)
	}
	end, ok := got.LastProgressTime()
	if !ok || !end.Equal(ts("2024-01-01 10:01:00").Value) {
		t.Errorf("LastProgressTime: want 10:01:00, got %v %v", end, ok)
	}
}

func TestExtractNoMatches(t *testing.T) {
	got, err := Extract(strings.NewReader("nothing to see here\n"), "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	want := &Fields{Name: "notes.txt"}
	if diff := cmp.Diff(want, got, recordOpts); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got.LastProgress(); ok {
		t.Errorf("LastProgress: want none")
	}
	if _, ok := got.LastProgressTime(); ok {
		t.Errorf("LastProgressTime: want none")
	}
}

func TestExtractTestdata(t *testing.T) {
	path := filepath.Join("testdata", "training_4t_16b.log")
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fields, err := Extract(f, path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fields.Config, Some(GridConfig{4, 16}); got != want {
		t.Errorf("Config: want %v, got %v", want, got)
	}
	if got, want := len(fields.Progress), 5; got != want {
		t.Errorf("want %d progress events, got %d", want, got)
	}
	if got, want := fields.DeclaredTotalSteps, Some(800); got != want {
		t.Errorf("DeclaredTotalSteps: want %v, got %v", want, got)
	}
	if !fields.EpochStart.OK {
		t.Errorf("want an epoch start")
	}
}
