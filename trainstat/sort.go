// Copyright 2018 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainstat

import "sort"

// An Order reports whether record a sorts before record b.
type Order func(a, b Record) bool

// ByName sorts records by log name.
func ByName(a, b Record) bool {
	return a.Name < b.Name
}

// ByThroughput sorts records by increasing steps per minute.
func ByThroughput(a, b Record) bool {
	return a.StepsPerMinute < b.StepsPerMinute
}

// ByProgress sorts records by increasing progress percentage.
func ByProgress(a, b Record) bool {
	return a.ProgressPercent < b.ProgressPercent
}

// ByConfig sorts records by thread count, then batch size. Records
// without a configuration sort last.
func ByConfig(a, b Record) bool {
	ca, oka := a.Config.Get()
	cb, okb := b.Config.Get()
	if oka != okb {
		return oka
	}
	if ca.Threads != cb.Threads {
		return ca.Threads < cb.Threads
	}
	return ca.BatchSize < cb.BatchSize
}

// Reverse returns the reverse of order.
func Reverse(order Order) Order {
	return func(a, b Record) bool { return order(b, a) }
}

// Sort sorts rs in place by order. Records that order does not
// distinguish keep their relative positions, so sorting a
// name-ordered slice leaves ties in name order.
func Sort(rs []Record, order Order) {
	sort.SliceStable(rs, func(i, j int) bool { return order(rs[i], rs[j]) })
}

// orders maps the names accepted by ParseOrder to their Order.
var orders = map[string]Order{
	"name":       ByName,
	"throughput": ByThroughput,
	"progress":   ByProgress,
	"config":     ByConfig,
}

// ParseOrder parses an order name such as "throughput". A leading
// "-", as in "-throughput", reverses the order.
func ParseOrder(name string) (Order, bool) {
	reverse := false
	if len(name) > 0 && name[0] == '-' {
		reverse = true
		name = name[1:]
	}
	order, ok := orders[name]
	if !ok {
		return nil, false
	}
	if reverse {
		order = Reverse(order)
	}
	return order, true
}
