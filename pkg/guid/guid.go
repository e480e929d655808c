// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package guid implements the mixed-endian GUID used by UEFI, as it
// appears in surface area documents and in the PCD database.
package guid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Size represents number of bytes in a GUID
	Size = 16
	// UExample is a example of a string GUID
	UExample  = "01234567-89AB-CDEF-0123-456789ABCDEF"
	strFormat = "%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X"
)

// GUID represents a unique identifier in its in-memory (mixed-endian) form:
// the first three fields are little-endian, the trailing 8 bytes are kept
// in order.
type GUID [Size]byte

// Nil is the all-zero GUID.
var Nil GUID

// Parse parses a registry-format guid string. The hyphens are optional and
// surrounding braces are ignored.
func Parse(s string) (*GUID, error) {
	stripped := strings.TrimSpace(s)
	stripped = strings.TrimPrefix(stripped, "{")
	stripped = strings.TrimSuffix(stripped, "}")
	stripped = strings.Replace(stripped, "-", "", -1)
	decoded, err := hex.DecodeString(stripped)
	if err != nil {
		return nil, fmt.Errorf("guid string not correct, need string of the format %v, got %q",
			UExample, s)
	}
	if len(decoded) != Size {
		return nil, fmt.Errorf("guid string has incorrect length, need string of the format %v, got %q",
			UExample, s)
	}

	var u GUID
	binary.LittleEndian.PutUint32(u[0:], binary.BigEndian.Uint32(decoded[0:]))
	binary.LittleEndian.PutUint16(u[4:], binary.BigEndian.Uint16(decoded[4:]))
	binary.LittleEndian.PutUint16(u[6:], binary.BigEndian.Uint16(decoded[6:]))
	copy(u[8:], decoded[8:])
	return &u, nil
}

// MustParse parses a guid string or panics. Intended for constants.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return *g
}

// Data1 returns the first (32-bit) field.
func (u GUID) Data1() uint32 { return binary.LittleEndian.Uint32(u[0:]) }

// Data2 returns the second (16-bit) field.
func (u GUID) Data2() uint16 { return binary.LittleEndian.Uint16(u[4:]) }

// Data3 returns the third (16-bit) field.
func (u GUID) Data3() uint16 { return binary.LittleEndian.Uint16(u[6:]) }

// IsNil reports whether u is the all-zero GUID.
func (u GUID) IsNil() bool {
	return u == Nil
}

func (u GUID) String() string {
	return fmt.Sprintf(strFormat, u.Data1(), u.Data2(), u.Data3(),
		u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15])
}

// CInitializer renders the GUID as an EFI_GUID C initializer, e.g.
// {0x01234567, 0x89AB, 0xCDEF, {0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}}
func (u GUID) CInitializer() string {
	var s strings.Builder
	fmt.Fprintf(&s, "{0x%08X, 0x%04X, 0x%04X, {", u.Data1(), u.Data2(), u.Data3())
	for i, b := range u[8:] {
		if i > 0 {
			s.WriteString(", ")
		}
		fmt.Fprintf(&s, "0x%02X", b)
	}
	s.WriteString("}}")
	return s.String()
}

// MarshalText implements encoding.TextMarshaler.
func (u GUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty text
// yields the nil GUID.
func (u *GUID) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*u = Nil
		return nil
	}
	g, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = *g
	return nil
}
