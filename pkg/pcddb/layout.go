// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcddb serializes the PEI and DXE dynamic PCD databases into the
// flat little-endian images firmware loads without relocation, and decodes
// them back.
//
// An image is a header, an array of fixed-size token descriptors and a
// blob region. Every offset in an image is relative to the image start.
package pcddb

import (
	"fmt"
	"strings"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
)

// Layout constants.
const (
	Signature      = "PCDB"
	Version        = 1
	HeaderSize     = 32
	DescriptorSize = 56
	SkuEntrySize   = 16
	ValueSize      = 8

	// ImageAlignment is the alignment of the total image length and of
	// SKU tables.
	ImageAlignment = 8
)

// Header starts every image.
type Header struct {
	Signature  [4]byte
	Phase      uint8
	Version    uint8
	Reserved   [2]byte
	Length     uint32
	TokenCount uint32
	// TokenBase is the combined index of the first token: 0 for PEI, the
	// number of PEI tokens for DXE.
	TokenBase  uint32
	DescOffset uint32
	BlobOffset uint32
	BlobSize   uint32
}

// Flags of a descriptor.
type Flags uint8

// Descriptor flags.
const (
	FlagHii Flags = 1 << iota
	FlagSku
	FlagBlob
)

func (f Flags) String() string {
	var s []string
	if f&FlagHii != 0 {
		s = append(s, "HII")
	}
	if f&FlagSku != 0 {
		s = append(s, "SKU")
	}
	if f&FlagBlob != 0 {
		s = append(s, "BLOB")
	}
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, "|")
}

// Descriptor describes one token.
type Descriptor struct {
	TokenNumber    uint32
	Flags          Flags
	DatumType      pcd.DatumType
	MaxSkuCount    uint8
	SkuID          uint8
	VariableGUID   guid.GUID
	VarNameOffset  uint32
	VarNameLength  uint32
	VariableOffset uint32
	DatumSize      uint32
	// Value is the scalar value, or the blob reference of a POINTER value
	// as Offset uint32 followed by Length uint32.
	Value          [ValueSize]byte
	SkuTableOffset uint32
	SkuCount       uint32
}

// SkuEntry is one row of a SKU table.
type SkuEntry struct {
	SkuID    uint32
	Reserved uint32
	Value    [ValueSize]byte
}

// TokenLayout records where the parts of one token were placed.
type TokenLayout struct {
	CName        string
	TokenSpace   string
	TokenNumber  uint32
	DatumType    pcd.DatumType
	DatumSize    uint32
	Descriptor   bytes.Range
	Value        bytes.Range
	VariableName bytes.Range
	SkuTable     bytes.Range
	SkuValues    []bytes.Range
	// VariableGUID is set for HII tokens.
	VariableGUID *guid.GUID
}

func (l TokenLayout) ranges() bytes.Ranges {
	result := bytes.Ranges{l.Descriptor, l.Value, l.VariableName, l.SkuTable}
	return append(result, l.SkuValues...)
}

func (l TokenLayout) String() string {
	return fmt.Sprintf("%s #%d desc %s value %s", l.CName, l.TokenNumber, l.Descriptor, l.Value)
}
