// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

import (
	"fmt"
	"strings"
)

// DatumType is the storage type of a PCD value.
type DatumType uint8

// Datum types. The numeric values are stored in the serialized database.
const (
	DatumTypeUnknown DatumType = iota
	DatumUint8
	DatumUint16
	DatumUint32
	DatumUint64
	DatumBoolean
	DatumPointer
)

var datumTypeName = map[DatumType]string{
	DatumUint8:   "UINT8",
	DatumUint16:  "UINT16",
	DatumUint32:  "UINT32",
	DatumUint64:  "UINT64",
	DatumBoolean: "BOOLEAN",
	DatumPointer: "POINTER",
}

func (t DatumType) String() string {
	if s, ok := datumTypeName[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Size returns the fixed width in bytes of scalar types, 0 for POINTER and
// unknown types.
func (t DatumType) Size() uint32 {
	switch t {
	case DatumUint8, DatumBoolean:
		return 1
	case DatumUint16:
		return 2
	case DatumUint32:
		return 4
	case DatumUint64:
		return 8
	}
	return 0
}

// IsScalar reports whether the value fits inline in a descriptor.
func (t DatumType) IsScalar() bool {
	return t != DatumPointer && t != DatumTypeUnknown
}

// ParseDatumType parses the surface area spelling of a datum type.
// "POINTER" and "VOID*" are both accepted.
func ParseDatumType(s string) (DatumType, error) {
	switch strings.TrimSpace(s) {
	case "UINT8":
		return DatumUint8, nil
	case "UINT16":
		return DatumUint16, nil
	case "UINT32":
		return DatumUint32, nil
	case "UINT64":
		return DatumUint64, nil
	case "BOOLEAN":
		return DatumBoolean, nil
	case "POINTER", "VOID*":
		return DatumPointer, nil
	}
	return DatumTypeUnknown, fmt.Errorf("unknown datum type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DatumType) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*t = DatumTypeUnknown
		return nil
	}
	v, err := ParseDatumType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t DatumType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ItemType says how and when a firmware phase may access a PCD.
type ItemType uint8

// Item types.
const (
	ItemTypeUnknown ItemType = iota
	ItemFeatureFlag
	ItemFixedAtBuild
	ItemPatchInModule
	ItemDynamic
	ItemDynamicEx
)

var itemTypeName = map[ItemType]string{
	ItemFeatureFlag:   "FEATURE_FLAG",
	ItemFixedAtBuild:  "FIXED_AT_BUILD",
	ItemPatchInModule: "PATCH_IN_MODULE",
	ItemDynamic:       "DYNAMIC",
	ItemDynamicEx:     "DYNAMIC_EX",
}

func (t ItemType) String() string {
	if s, ok := itemTypeName[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsDynamic reports whether values of this item type live in the PCD
// database rather than in module images.
func (t ItemType) IsDynamic() bool {
	return t == ItemDynamic || t == ItemDynamicEx
}

// ParseItemType parses the surface area spelling of an item type.
func ParseItemType(s string) (ItemType, error) {
	s = strings.TrimSpace(s)
	for t, name := range itemTypeName {
		if name == s {
			return t, nil
		}
	}
	return ItemTypeUnknown, fmt.Errorf("unknown PCD item type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ItemType) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*t = ItemTypeUnknown
		return nil
	}
	v, err := ParseItemType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Usage is how a module uses a PCD.
type Usage uint8

// Usages.
const (
	UsageUnknown Usage = iota
	UsageAlwaysConsumed
	UsageSometimesConsumed
	UsageAlwaysProduced
	UsageSometimesProduced
)

var usageName = map[Usage]string{
	UsageUnknown:           "UNKNOWN",
	UsageAlwaysConsumed:    "ALWAYS_CONSUMED",
	UsageSometimesConsumed: "SOMETIMES_CONSUMED",
	UsageAlwaysProduced:    "ALWAYS_PRODUCED",
	UsageSometimesProduced: "SOMETIMES_PRODUCED",
}

func (u Usage) String() string {
	if s, ok := usageName[u]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseUsage parses the surface area spelling of a usage. An empty string
// is UNKNOWN.
func ParseUsage(s string) (Usage, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UsageUnknown, nil
	}
	for u, name := range usageName {
		if name == s {
			return u, nil
		}
	}
	return UsageUnknown, fmt.Errorf("unknown usage %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Usage) UnmarshalText(b []byte) error {
	v, err := ParseUsage(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (u Usage) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Phase is the boot phase whose PCD database holds a dynamic token.
type Phase uint8

// Phases. The numeric values are stored in the serialized database header.
const (
	PhasePEI Phase = iota
	PhaseDXE
)

func (p Phase) String() string {
	switch p {
	case PhasePEI:
		return "PEI"
	case PhaseDXE:
		return "DXE"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ComponentType is the module kind declared in a module surface area.
type ComponentType uint8

// Component types.
const (
	ComponentUnknown ComponentType = iota
	ComponentLibrary
	ComponentSec
	ComponentPeiCore
	ComponentPeim
	ComponentDxeCore
	ComponentDxeDriver
	ComponentDxeRuntimeDriver
	ComponentDxeSalDriver
	ComponentDxeSmmDriver
	ComponentUefiDriver
	ComponentUefiApplication
)

var componentTypeName = map[ComponentType]string{
	ComponentLibrary:          "LIBRARY",
	ComponentSec:              "SEC",
	ComponentPeiCore:          "PEI_CORE",
	ComponentPeim:             "PEIM",
	ComponentDxeCore:          "DXE_CORE",
	ComponentDxeDriver:        "DXE_DRIVER",
	ComponentDxeRuntimeDriver: "DXE_RUNTIME_DRIVER",
	ComponentDxeSalDriver:     "DXE_SAL_DRIVER",
	ComponentDxeSmmDriver:     "DXE_SMM_DRIVER",
	ComponentUefiDriver:       "UEFI_DRIVER",
	ComponentUefiApplication:  "UEFI_APPLICATION",
}

func (t ComponentType) String() string {
	if s, ok := componentTypeName[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseComponentType parses a module type.
func ParseComponentType(s string) (ComponentType, error) {
	s = strings.TrimSpace(s)
	for t, name := range componentTypeName {
		if name == s {
			return t, nil
		}
	}
	return ComponentUnknown, fmt.Errorf("unknown module type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ComponentType) UnmarshalText(b []byte) error {
	v, err := ParseComponentType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t ComponentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsLibrary reports whether the component is a library instance.
func (t ComponentType) IsLibrary() bool {
	return t == ComponentLibrary
}

// Phase returns the boot phase a component of this type executes in.
// Libraries have no phase of their own and report DXE; callers should
// use the phase of the consuming module instead.
func (t ComponentType) Phase() Phase {
	switch t {
	case ComponentSec, ComponentPeiCore, ComponentPeim:
		return PhasePEI
	}
	return PhaseDXE
}
