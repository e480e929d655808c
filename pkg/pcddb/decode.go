// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcddb

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/xaionaro-go/bytesextra"
	"golang.org/x/text/encoding/unicode"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
)

// Decoded is the content of a database image.
type Decoded struct {
	Header  Header   `json:"-"`
	Phase   string   `json:"phase"`
	Length  uint32   `json:"length"`
	Records []Record `json:"tokens"`
}

// Record is one decoded token.
type Record struct {
	Descriptor Descriptor `json:"-"`

	TokenNumber uint32        `json:"tokenNumber"`
	Flags       Flags         `json:"flags"`
	DatumType   pcd.DatumType `json:"datumType"`
	DatumSize   uint32        `json:"datumSize"`
	// Value is the current value: the scalar bytes, or the used part of a
	// POINTER payload.
	Value []byte `json:"-"`
	Text  string `json:"datum"`

	VariableGUID   *guid.GUID `json:"variableGuid,omitempty"`
	VariableName   string     `json:"variableName,omitempty"`
	VariableOffset uint32     `json:"variableOffset,omitempty"`

	MaxSkuCount uint8       `json:"maxSkuCount,omitempty"`
	SkuID       uint8       `json:"skuId,omitempty"`
	Skus        []SkuRecord `json:"skus,omitempty"`
}

// SkuRecord is one decoded SKU value.
type SkuRecord struct {
	ID    uint32 `json:"id"`
	Value []byte `json:"-"`
	Text  string `json:"datum"`
}

// FormatValue renders a value of type t: scalars in hex, BOOLEAN as
// TRUE/FALSE and POINTER payloads as a byte array literal.
func FormatValue(t pcd.DatumType, b []byte) string {
	switch t {
	case pcd.DatumBoolean:
		if len(b) > 0 && b[0] != 0 {
			return "TRUE"
		}
		return "FALSE"
	case pcd.DatumPointer:
		parts := make([]string, 0, len(b))
		for _, v := range b {
			parts = append(parts, fmt.Sprintf("0x%02x", v))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	var scalar [ValueSize]byte
	copy(scalar[:], b)
	return fmt.Sprintf("0x%X", binary.LittleEndian.Uint64(scalar[:]))
}

// MarshalText implements encoding.TextMarshaler.
func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type decoder struct {
	img  []byte
	blob bytes.Range
}

// Decode parses a database image produced by Encode.
func Decode(b []byte) (*Decoded, error) {
	if err := checkRange(uint(len(b)), bytes.Range{Length: HeaderSize}); err != nil {
		return nil, fmt.Errorf("image too short for the header: %w", err)
	}

	var hdr Header
	r := bytesextra.NewReadWriteSeeker(b)
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("unable to read the header: %w", err)
	}
	if string(hdr.Signature[:]) != Signature {
		return nil, &ErrInvalidSignature{Signature: hdr.Signature}
	}
	if hdr.Version != Version {
		return nil, &ErrUnsupportedVersion{Version: hdr.Version}
	}
	if err := checkRange(uint(len(b)), bytes.Range{Length: uint64(hdr.Length)}); err != nil {
		return nil, fmt.Errorf("invalid database length: %w", err)
	}
	if hdr.Length%ImageAlignment != 0 {
		return nil, fmt.Errorf("database length %d is not a multiple of %d", hdr.Length, ImageAlignment)
	}

	d := decoder{
		img:  b[:hdr.Length],
		blob: bytes.Range{Offset: uint64(hdr.BlobOffset), Length: uint64(hdr.BlobSize)},
	}
	descs := bytes.Range{Offset: uint64(hdr.DescOffset), Length: uint64(hdr.TokenCount) * DescriptorSize}
	for name, region := range map[string]bytes.Range{"descriptor array": descs, "blob": d.blob} {
		if err := checkRange(uint(hdr.Length), region); err != nil {
			return nil, fmt.Errorf("invalid %s %s: %w", name, region, err)
		}
	}
	if descs.Intersect(d.blob) {
		return nil, &ErrOverlap{A: descs, B: d.blob}
	}

	result := &Decoded{
		Header:  hdr,
		Phase:   pcd.Phase(hdr.Phase).String(),
		Length:  hdr.Length,
		Records: make([]Record, 0, hdr.TokenCount),
	}
	if _, err := r.Seek(int64(hdr.DescOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("unable to Seek(%d, io.SeekStart): %w", hdr.DescOffset, err)
	}
	for idx := uint32(0); idx < hdr.TokenCount; idx++ {
		var desc Descriptor
		if err := binary.Read(r, binary.LittleEndian, &desc); err != nil {
			return nil, fmt.Errorf("unable to read descriptor #%d: %w", idx, err)
		}
		rec, err := d.record(desc)
		if err != nil {
			return nil, fmt.Errorf("descriptor #%d (token %d): %w", idx, desc.TokenNumber, err)
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func (d *decoder) record(desc Descriptor) (Record, error) {
	rec := Record{
		Descriptor:  desc,
		TokenNumber: desc.TokenNumber,
		Flags:       desc.Flags,
		DatumType:   desc.DatumType,
		DatumSize:   desc.DatumSize,
	}
	value, err := d.value(desc, desc.Value)
	if err != nil {
		return rec, err
	}
	rec.Value = value
	rec.Text = FormatValue(desc.DatumType, value)

	if desc.Flags&FlagHii != 0 {
		g := desc.VariableGUID
		rec.VariableGUID = &g
		rec.VariableOffset = desc.VariableOffset
		raw, err := d.region(bytes.Range{Offset: uint64(desc.VarNameOffset), Length: uint64(desc.VarNameLength)})
		if err != nil {
			return rec, fmt.Errorf("variable name: %w", err)
		}
		name, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return rec, fmt.Errorf("variable name: %w", err)
		}
		rec.VariableName = string(name)
	}

	if desc.Flags&FlagSku != 0 {
		rec.MaxSkuCount = desc.MaxSkuCount
		rec.SkuID = desc.SkuID
		raw, err := d.region(bytes.Range{Offset: uint64(desc.SkuTableOffset), Length: uint64(desc.SkuCount) * SkuEntrySize})
		if err != nil {
			return rec, fmt.Errorf("SKU table: %w", err)
		}
		r := bytesextra.NewReadWriteSeeker(raw)
		for idx := uint32(0); idx < desc.SkuCount; idx++ {
			var entry SkuEntry
			if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
				return rec, fmt.Errorf("unable to read SKU entry #%d: %w", idx, err)
			}
			v, err := d.value(desc, entry.Value)
			if err != nil {
				return rec, fmt.Errorf("SKU %d: %w", entry.SkuID, err)
			}
			rec.Skus = append(rec.Skus, SkuRecord{ID: entry.SkuID, Value: v, Text: FormatValue(desc.DatumType, v)})
		}
	}
	return rec, nil
}

// region returns the bytes of r, which must lie inside the blob.
func (d *decoder) region(r bytes.Range) ([]byte, error) {
	if !r.Within(d.blob) {
		return nil, fmt.Errorf("region %s is outside of the blob %s", r, d.blob)
	}
	return d.img[r.Offset:r.End()], nil
}

// value resolves a descriptor or SKU value field.
func (d *decoder) value(desc Descriptor, raw [ValueSize]byte) ([]byte, error) {
	if desc.Flags&FlagBlob == 0 {
		if desc.DatumSize > ValueSize {
			return nil, fmt.Errorf("scalar of %d bytes does not fit the value field", desc.DatumSize)
		}
		return append([]byte(nil), raw[:desc.DatumSize]...), nil
	}

	offset := binary.LittleEndian.Uint32(raw[0:])
	length := binary.LittleEndian.Uint32(raw[4:])
	if length > desc.DatumSize {
		return nil, fmt.Errorf("value length %d exceeds the reserved %d bytes", length, desc.DatumSize)
	}
	reserved, err := d.region(bytes.Range{Offset: uint64(offset), Length: uint64(desc.DatumSize)})
	if err != nil {
		return nil, err
	}
	if !bytes.IsZeroFilled(reserved[length:]) {
		return nil, &ErrNonZeroPadding{Region: bytes.Range{
			Offset: uint64(offset) + uint64(length),
			Length: uint64(desc.DatumSize - length),
		}}
	}
	return append([]byte(nil), reserved[:length]...), nil
}
