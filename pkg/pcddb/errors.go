// Copyright 2017-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcddb

import (
	"fmt"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
)

// ErrStartLessThanZero means `startIdx` has negative value
type ErrStartLessThanZero struct {
	StartIdx int
}

func (err *ErrStartLessThanZero) Error() string {
	return fmt.Sprintf("start index is less than zero: %d", err.StartIdx)
}

// ErrEndLessThanStart means `endIdx` value is less than `startIdx` value
type ErrEndLessThanStart struct {
	StartIdx int
	EndIdx   int
}

func (err *ErrEndLessThanStart) Error() string {
	return fmt.Sprintf("end index is less than start index: %d < %d",
		err.EndIdx, err.StartIdx)
}

// ErrEndGreaterThanLength means `endIdx` is greater than the length.
type ErrEndGreaterThanLength struct {
	Length uint
	EndIdx int
}

func (err *ErrEndGreaterThanLength) Error() string {
	return fmt.Sprintf("end index is outside of the bounds: %d > %d",
		err.EndIdx, err.Length)
}

// ErrInvalidSignature means the image does not start with Signature.
type ErrInvalidSignature struct {
	Signature [4]byte
}

func (err *ErrInvalidSignature) Error() string {
	return fmt.Sprintf("invalid signature %q, expected %q", err.Signature[:], Signature)
}

// ErrUnsupportedVersion means the image has a format version this package
// does not know.
type ErrUnsupportedVersion struct {
	Version uint8
}

func (err *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported database version %d, expected %d", err.Version, Version)
}

// ErrOverlap means two parts of an image share bytes.
type ErrOverlap struct {
	A, B bytes.Range
}

func (err *ErrOverlap) Error() string {
	return fmt.Sprintf("regions %s and %s overlap", err.A, err.B)
}

// ErrFieldOverflow means a token attribute does not fit the descriptor
// field that stores it.
type ErrFieldOverflow struct {
	CName string
	Field string
	Value uint64
	Max   uint64
}

func (err *ErrFieldOverflow) Error() string {
	return fmt.Sprintf("PCD %s: %s %d does not fit the database (max %d)",
		err.CName, err.Field, err.Value, err.Max)
}

// ErrNonZeroPadding means a padding region of a decoded image holds data.
type ErrNonZeroPadding struct {
	Region bytes.Range
}

func (err *ErrNonZeroPadding) Error() string {
	return fmt.Sprintf("padding %s is not zero filled", err.Region)
}

// ErrDuplicateMacro means two tokens would define the same C macro in the
// generated header.
type ErrDuplicateMacro struct {
	Macro string
	A, B  string
}

func (err *ErrDuplicateMacro) Error() string {
	return fmt.Sprintf("PCDs %s and %s both define %s", err.A, err.B, err.Macro)
}
