// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// VerifyDatum checks that datum is a valid value of type t stored in
// maxDatumSize bytes. An empty datum only gets its size checked.
func VerifyDatum(t DatumType, maxDatumSize uint32, datum string) error {
	_, err := DecodeDatum(t, maxDatumSize, datum)
	return err
}

// DecodeDatum is VerifyDatum returning the decoded value.
func DecodeDatum(t DatumType, maxDatumSize uint32, datum string) (Datum, error) {
	switch t {
	case DatumUint8, DatumUint16, DatumUint32, DatumUint64, DatumBoolean:
		if maxDatumSize != t.Size() {
			return Datum{}, &ErrDatumSize{
				DatumType:    t,
				MaxDatumSize: maxDatumSize,
				Required:     t.Size(),
				Rule:         "MaxDatumSize must equal the type width",
			}
		}
	case DatumPointer:
		if maxDatumSize == 0 {
			return Datum{}, &ErrDatumSize{
				DatumType: t,
				Rule:      "MaxDatumSize is mandatory",
			}
		}
	default:
		return Datum{}, &ErrDatumValue{DatumType: t, Value: datum, Rule: "datum type is not set"}
	}

	if strings.TrimSpace(datum) == "" {
		return Datum{}, nil
	}
	d, err := ParseDatum(t, datum)
	if err != nil {
		return Datum{}, err
	}
	if t == DatumPointer && uint32(len(d.Bytes)) > maxDatumSize {
		return Datum{}, &ErrDatumSize{
			DatumType:    t,
			MaxDatumSize: maxDatumSize,
			Required:     uint32(len(d.Bytes)),
			Rule:         fmt.Sprintf("%s value does not fit", d.Kind),
		}
	}
	return d, nil
}

// VerifyToken checks every rule a resolved token must satisfy before it
// may be serialized. All violations are reported.
func VerifyToken(t *Token) error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, WithContext(err, t.CName, t.Modules()))
		}
	}

	if t.ItemType == ItemFeatureFlag && t.DatumType != DatumBoolean {
		add(&ErrItemType{ItemType: t.ItemType, DatumType: t.DatumType})
	}
	if t.Datum == "" {
		add(&ErrMissingDatum{CName: t.CName})
	}
	add(VerifyDatum(t.DatumType, t.MaxDatumSize, t.Datum))

	if t.SkuEnabled {
		if t.MaxSkuCount != 0 && uint32(len(t.SkuData)) > t.MaxSkuCount {
			add(&ErrSkuDefinition{Rule: fmt.Sprintf("%d SKU values exceed MaxSku %d", len(t.SkuData), t.MaxSkuCount)})
		}
		seen := make(map[uint32]bool, len(t.SkuData))
		for _, sku := range t.SkuData {
			if seen[sku.ID] {
				add(&ErrSkuDefinition{Rule: fmt.Sprintf("SKU %d is defined twice", sku.ID)})
			}
			seen[sku.ID] = true
			if err := VerifyDatum(t.DatumType, t.MaxDatumSize, sku.Value); err != nil {
				add(fmt.Errorf("SKU %d: %w", sku.ID, err))
			}
		}
	}

	if t.HiiEnabled {
		if t.VariableName == "" {
			add(&ErrHiiDefinition{Rule: "variable name is empty"})
		}
		if t.VariableGUID.IsNil() {
			add(&ErrHiiDefinition{Rule: "variable GUID is not set"})
		}
	}

	return result.ErrorOrNil()
}
