// Copyright 2017-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcddb

import (
	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
)

func bounds(length uint, startIdx, endIdx int) error {
	var result *multierror.Error
	if startIdx < 0 {
		result = multierror.Append(result, &ErrStartLessThanZero{StartIdx: startIdx})
	}
	if endIdx < startIdx {
		result = multierror.Append(result, &ErrEndLessThanStart{StartIdx: startIdx, EndIdx: endIdx})
	}
	if endIdx >= 0 && uint(endIdx) > length {
		result = multierror.Append(result, &ErrEndGreaterThanLength{Length: length, EndIdx: endIdx})
	}

	return result.ErrorOrNil()
}

// checkRange checks that r lies inside a region of the given length:
// * 0 <= r.Offset
// * r.Offset <= r.End()
// * r.End() <= length
func checkRange(length uint, r bytes.Range) error {
	return bounds(length, int(r.Offset), int(r.End()))
}

// checkLayout verifies that no two parts of an image overlap and that all
// of them lie inside the image.
func checkLayout(length uint, layout []TokenLayout) error {
	var all bytes.Ranges
	for _, l := range layout {
		all = append(all, l.ranges()...)
	}

	var result *multierror.Error
	for _, r := range all {
		if err := checkRange(length, r); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, pair := range all.Overlapping() {
		result = multierror.Append(result, &ErrOverlap{A: pair[0], B: pair[1]})
	}
	return result.ErrorOrNil()
}
