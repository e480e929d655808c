// Copyright 2019 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytes has helpers for laying out and checking byte regions of a
// flat binary image.
package bytes

import (
	"fmt"
	"sort"
	"strings"
)

// Range is a half-open byte region [Offset, Offset+Length).
type Range struct {
	Offset uint64
	Length uint64
}

func (r Range) String() string {
	return fmt.Sprintf(`{"Offset":"0x%x", "Length":"0x%x"}`, r.Offset, r.Length)
}

// End returns the first offset after the range.
func (r Range) End() uint64 {
	return r.Offset + r.Length
}

// Intersect returns True if ranges "r" and "cmp" has at least
// one byte with the same offset.
func (r Range) Intersect(cmp Range) bool {
	if r.Length == 0 || cmp.Length == 0 {
		return false
	}
	return r.Offset < cmp.End() && cmp.Offset < r.End()
}

// Within reports whether r lies completely inside outer.
func (r Range) Within(outer Range) bool {
	return r.Offset >= outer.Offset && r.End() <= outer.End()
}

// Ranges is a helper to manipulate multiple `Range`-s at once
type Ranges []Range

func (s Ranges) String() string {
	r := make([]string, 0, len(s))
	for _, oneRange := range s {
		r = append(r, oneRange.String())
	}
	return `[` + strings.Join(r, `, `) + `]`
}

// Sort sorts the slice by field Offset
func (s Ranges) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Offset < s[j].Offset
	})
}

// Overlapping returns every pair of ranges which share at least one byte.
// The input order is not modified.
func (s Ranges) Overlapping() [][2]Range {
	sorted := make(Ranges, len(s))
	copy(sorted, s)
	sorted.Sort()

	var result [][2]Range
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Offset >= sorted[i].End() {
				break
			}
			if sorted[i].Intersect(sorted[j]) {
				result = append(result, [2]Range{sorted[i], sorted[j]})
			}
		}
	}
	return result
}

// Compile returns the bytes from `b` which are referenced by `Range`-s `s`.
func (s Ranges) Compile(b []byte) []byte {
	var result []byte
	for _, r := range s {
		result = append(result, b[r.Offset:r.End()]...)
	}
	return result
}

// AlignUp rounds offset up to a multiple of align. align must be a power
// of two; zero and one leave offset untouched.
func AlignUp(offset, align uint64) uint64 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// IsZeroFilled returns true if b consists of zeros only.
func IsZeroFilled(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
