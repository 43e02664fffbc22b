// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texttab

import (
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var tab Table
	check := func(want string) {
		t.Helper()
		var gotBuf strings.Builder
		if err := tab.Format(&gotBuf); err != nil {
			t.Fatal(err)
		}
		got := gotBuf.String()
		if want != got {
			t.Errorf("want:\n%sgot:\n%s", want, got)
		}
		// Reset tab.
		tab = Table{}
	}

	// Empty table.
	check("")

	// Basic test.
	tab.Row().Cell("a").Cell("b").Cell("c")
	tab.Row().Cell("d").Cell("e").Cell("f")
	check("a  b  c\nd  e  f\n")

	// Padding, without trailing spaces.
	tab.Row().Cell("a").Cell("b").Cell("c")
	tab.Row().Cell("long").Cell("e").Cell("long")
	check("a     b  c\nlong  e  long\n")

	// Column alignment.
	tab.SetAlign(1, AlignRight)
	tab.Row().Cell("name").Cell("1.5").Cell("a")
	tab.Row().Cell("x").Cell("100.25").Cell("bb")
	check("name     1.5  a\nx     100.25  bb\n")

	// Alignment of a column with missing cells.
	tab.SetAlign(2, AlignRight)
	tab.Row().Cells("a", "b", "c")
	tab.Row().Cells("d", "e")
	tab.Row().Cells("f", "g", "hhh")
	check("a  b    c\nd  e\nf  g  hhh\n")

	// Missing cells at the end.
	tab.Row().Cell("a")
	tab.Row().Cells("d", "e", "f")
	check("a\nd  e  f\n")

	// Blank rows.
	tab.Row().Cell("a")
	tab.Row()
	tab.Row().Cell("b")
	check("a\n\nb\n")

	// Cell without Row starts the first row.
	tab.Cell("a").Cell("b")
	check("a  b\n")

	// Runes.
	tab.Row().Cell("☃").Cell("x")
	tab.Row().Cell("ab").Cell("yy")
	check("☃   x\nab  yy\n")
}
