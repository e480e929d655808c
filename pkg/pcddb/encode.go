// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcddb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/bytesextra"
	"golang.org/x/text/encoding/unicode"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
)

// Image is one serialized database.
type Image struct {
	Phase     pcd.Phase
	TokenBase uint32
	Bytes     []byte
	Layout    []TokenLayout
}

// Pair is the PEI and DXE database of a platform.
type Pair struct {
	Pei *Image
	Dxe *Image
}

// Build encodes the PEI and DXE token lists. DXE token numbering continues
// after the PEI tokens.
func Build(pei, dxe []*pcd.Token) (*Pair, error) {
	peiImage, err := Encode(pcd.PhasePEI, 0, pei)
	if err != nil {
		return nil, fmt.Errorf("unable to encode the PEI database: %w", err)
	}
	dxeImage, err := Encode(pcd.PhaseDXE, uint32(len(pei)), dxe)
	if err != nil {
		return nil, fmt.Errorf("unable to encode the DXE database: %w", err)
	}
	return &Pair{Pei: peiImage, Dxe: dxeImage}, nil
}

// blob accumulates the variable-length region of an image.
type blob struct {
	base uint64
	data []byte
}

// put appends b at the next multiple of align, followed by zeros up to
// reserve bytes, and returns its range.
func (bl *blob) put(b []byte, reserve uint64, align uint64) bytes.Range {
	if reserve < uint64(len(b)) {
		reserve = uint64(len(b))
	}
	start := bytes.AlignUp(bl.base+uint64(len(bl.data)), align)
	bl.pad(start)
	bl.data = append(bl.data, b...)
	bl.data = append(bl.data, make([]byte, reserve-uint64(len(b)))...)
	return bytes.Range{Offset: start, Length: reserve}
}

// pad zero-fills the blob up to absolute offset end.
func (bl *blob) pad(end uint64) {
	if cur := bl.base + uint64(len(bl.data)); end > cur {
		bl.data = append(bl.data, make([]byte, end-cur)...)
	}
}

func (bl *blob) end() uint64 {
	return bl.base + uint64(len(bl.data))
}

// Encode serializes tokens, in order, into a database for phase. Tokens
// whose AssignedTokenNumber is zero are numbered tokenBase+index+1.
func Encode(phase pcd.Phase, tokenBase uint32, tokens []*pcd.Token) (*Image, error) {
	descStart := uint64(HeaderSize)
	bl := &blob{base: descStart + uint64(len(tokens))*DescriptorSize}

	descriptors := make([]Descriptor, 0, len(tokens))
	layout := make([]TokenLayout, 0, len(tokens))
	for idx, tok := range tokens {
		desc, l, err := encodeToken(bl, tok)
		if err != nil {
			return nil, err
		}
		if desc.TokenNumber == 0 {
			desc.TokenNumber = tokenBase + uint32(idx) + 1
		}
		l.TokenNumber = desc.TokenNumber
		l.Descriptor = bytes.Range{Offset: descStart + uint64(idx)*DescriptorSize, Length: DescriptorSize}
		descriptors = append(descriptors, desc)
		layout = append(layout, l)
	}

	length := bytes.AlignUp(bl.end(), ImageAlignment)
	bl.pad(length)
	if length > math.MaxUint32 {
		return nil, fmt.Errorf("database of %d bytes exceeds 4GiB", length)
	}

	hdr := Header{
		Phase:      uint8(phase),
		Version:    Version,
		Length:     uint32(length),
		TokenCount: uint32(len(tokens)),
		TokenBase:  tokenBase,
		DescOffset: uint32(descStart),
		BlobOffset: uint32(bl.base),
		BlobSize:   uint32(len(bl.data)),
	}
	copy(hdr.Signature[:], Signature)

	b := make([]byte, length)
	w := bytesextra.NewReadWriteSeeker(b)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("unable to write the header: %w", err)
	}
	for idx := range descriptors {
		if err := binary.Write(w, binary.LittleEndian, &descriptors[idx]); err != nil {
			return nil, fmt.Errorf("unable to write descriptor #%d: %w", idx, err)
		}
	}
	copy(b[bl.base:], bl.data)

	if err := checkLayout(uint(length), layout); err != nil {
		return nil, fmt.Errorf("internal layout error: %w", err)
	}
	return &Image{Phase: phase, TokenBase: tokenBase, Bytes: b, Layout: layout}, nil
}

func encodeToken(bl *blob, tok *pcd.Token) (Descriptor, TokenLayout, error) {
	l := TokenLayout{
		CName:      tok.CName,
		TokenSpace: tok.TokenSpaceGUIDCName,
		DatumType:  tok.DatumType,
		DatumSize:  tok.MaxDatumSize,
	}
	desc := Descriptor{
		TokenNumber: tok.AssignedTokenNumber,
		DatumType:   tok.DatumType,
		DatumSize:   tok.MaxDatumSize,
	}

	value, valueRange, err := encodeValue(bl, tok, tok.Datum)
	if err != nil {
		return desc, l, err
	}
	desc.Value = value
	l.Value = valueRange
	if tok.DatumType == pcd.DatumPointer {
		desc.Flags |= FlagBlob
	}

	if tok.HiiEnabled {
		desc.Flags |= FlagHii
		desc.VariableGUID = tok.VariableGUID
		variableGUID := tok.VariableGUID
		l.VariableGUID = &variableGUID
		desc.VariableOffset = tok.VariableOffset
		name, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(tok.VariableName))
		if err != nil {
			return desc, l, fmt.Errorf("PCD %s: unable to encode variable name %q: %w", tok.CName, tok.VariableName, err)
		}
		l.VariableName = bl.put(name, 0, 2)
		desc.VarNameOffset = uint32(l.VariableName.Offset)
		desc.VarNameLength = uint32(l.VariableName.Length)
	}

	if tok.SkuEnabled {
		desc.Flags |= FlagSku
		if tok.MaxSkuCount > math.MaxUint8 {
			return desc, l, &ErrFieldOverflow{CName: tok.CName, Field: "MaxSku", Value: uint64(tok.MaxSkuCount), Max: math.MaxUint8}
		}
		if tok.SkuID > math.MaxUint8 {
			return desc, l, &ErrFieldOverflow{CName: tok.CName, Field: "SkuId", Value: uint64(tok.SkuID), Max: math.MaxUint8}
		}
		desc.MaxSkuCount = uint8(tok.MaxSkuCount)
		desc.SkuID = uint8(tok.SkuID)

		entries := make([]SkuEntry, 0, len(tok.SkuData))
		for _, sku := range tok.SkuData {
			value, r, err := encodeValue(bl, tok, sku.Value)
			if err != nil {
				return desc, l, fmt.Errorf("SKU %d: %w", sku.ID, err)
			}
			if r.Length > 0 {
				l.SkuValues = append(l.SkuValues, r)
			}
			entries = append(entries, SkuEntry{SkuID: sku.ID, Value: value})
		}

		table := make([]byte, len(entries)*SkuEntrySize)
		w := bytesextra.NewReadWriteSeeker(table)
		for idx := range entries {
			if err := binary.Write(w, binary.LittleEndian, &entries[idx]); err != nil {
				return desc, l, fmt.Errorf("PCD %s: unable to write SKU entry #%d: %w", tok.CName, idx, err)
			}
		}
		l.SkuTable = bl.put(table, 0, ImageAlignment)
		desc.SkuTableOffset = uint32(l.SkuTable.Offset)
		desc.SkuCount = uint32(len(entries))
	}
	return desc, l, nil
}

// encodeValue returns the descriptor value field for datum. POINTER
// payloads are placed in the blob, reserving MaxDatumSize bytes.
func encodeValue(bl *blob, tok *pcd.Token, datum string) ([ValueSize]byte, bytes.Range, error) {
	var value [ValueSize]byte
	d, err := pcd.DecodeDatum(tok.DatumType, tok.MaxDatumSize, datum)
	if err != nil {
		return value, bytes.Range{}, pcd.WithContext(err, tok.CName, tok.Modules())
	}
	if tok.DatumType != pcd.DatumPointer {
		copy(value[:], d.Encode(tok.DatumType.Size()))
		return value, bytes.Range{}, nil
	}

	align := uint64(1)
	if d.Kind == pcd.LiteralUnicode {
		align = 2
	}
	r := bl.put(d.Bytes, uint64(tok.MaxDatumSize), align)
	binary.LittleEndian.PutUint32(value[0:], uint32(r.Offset))
	binary.LittleEndian.PutUint32(value[4:], uint32(len(d.Bytes)))
	return value, r, nil
}
