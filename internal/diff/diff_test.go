// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diff

import (
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	if d := Diff([]byte("a\nb\n"), []byte("a\nb\n")); d != "" {
		t.Errorf("equal inputs: want no diff, got:\n%s", d)
	}

	d := Diff([]byte("a\nb\n"), []byte("a\nc\n"))
	if d == "" {
		t.Fatal("different inputs: want a diff")
	}
	for _, want := range []string{"b", "c"} {
		if !strings.Contains(d, want) {
			t.Errorf("diff does not mention %q:\n%s", want, d)
		}
	}
}
