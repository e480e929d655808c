// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrNotNumeric is returned by ParseUint for text that is neither a
	// decimal nor a 0x-prefixed hexadecimal number.
	ErrNotNumeric = errors.New("not an unsigned decimal or 0x-prefixed hexadecimal number")
	// ErrOutOfRange is returned by ParseUint for numbers wider than the
	// requested bit size.
	ErrOutOfRange = errors.New("value out of range")
)

// ParseUint parses an unsigned decimal or 0x-prefixed hexadecimal number
// that must fit in bits bits.
func ParseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return 0, ErrNotNumeric
	}
	v, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, ErrOutOfRange
		}
		return 0, ErrNotNumeric
	}
	return v, nil
}

// LiteralKind is the syntax a datum was written in.
type LiteralKind uint8

// Literal kinds.
const (
	LiteralScalar LiteralKind = iota
	LiteralBoolean
	LiteralUnicode
	LiteralAnsi
	LiteralByteArray
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralScalar:
		return "scalar"
	case LiteralBoolean:
		return "boolean"
	case LiteralUnicode:
		return "unicode"
	case LiteralAnsi:
		return "ansi"
	case LiteralByteArray:
		return "bytes"
	}
	return "unknown"
}

// Datum is a decoded PCD value.
type Datum struct {
	Kind LiteralKind
	// Uint holds scalar and boolean values.
	Uint uint64
	// Bytes holds POINTER payloads: UTF-16LE for unicode strings, the raw
	// characters for ANSI strings, the elements of byte arrays. No
	// terminator is appended.
	Bytes []byte
}

// Encode returns the little-endian in-database representation of the
// value, size bytes long for scalars.
func (d Datum) Encode(size uint32) []byte {
	if d.Kind == LiteralScalar || d.Kind == LiteralBoolean {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, d.Uint)
		return b[:size]
	}
	return append([]byte(nil), d.Bytes...)
}

// ParseDatum decodes text as a value of type t. The returned errors are
// *ErrDatumValue or *ErrMalformedLiteral without token context.
func ParseDatum(t DatumType, text string) (Datum, error) {
	text = strings.TrimSpace(text)
	switch t {
	case DatumUint8, DatumUint16, DatumUint32, DatumUint64:
		v, err := ParseUint(text, int(t.Size())*8)
		if err != nil {
			rule := "must be an unsigned decimal or 0x-prefixed hexadecimal number"
			if errors.Is(err, ErrOutOfRange) {
				rule = "does not fit in " + strconv.Itoa(int(t.Size())*8) + " bits"
			}
			return Datum{}, &ErrDatumValue{DatumType: t, Value: text, Rule: rule}
		}
		return Datum{Kind: LiteralScalar, Uint: v}, nil
	case DatumBoolean:
		switch strings.ToUpper(text) {
		case "TRUE":
			return Datum{Kind: LiteralBoolean, Uint: 1}, nil
		case "FALSE":
			return Datum{Kind: LiteralBoolean, Uint: 0}, nil
		}
		return Datum{}, &ErrDatumValue{DatumType: t, Value: text, Rule: "must be TRUE or FALSE"}
	case DatumPointer:
		return parsePointer(text)
	}
	return Datum{}, &ErrDatumValue{DatumType: t, Value: text, Rule: "datum type is not set"}
}

func parsePointer(text string) (Datum, error) {
	switch {
	case strings.HasPrefix(text, `L"`):
		s, err := unquote(text[1:])
		if err != nil {
			return Datum{}, &ErrMalformedLiteral{Value: text, Rule: err.Error()}
		}
		if !utf8.ValidString(s) {
			return Datum{}, &ErrMalformedLiteral{Value: text, Rule: "string is not valid UTF-8"}
		}
		b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
		if err != nil {
			return Datum{}, &ErrDatumValue{DatumType: DatumPointer, Value: text, Rule: "cannot encode as UTF-16: " + err.Error()}
		}
		return Datum{Kind: LiteralUnicode, Bytes: b}, nil
	case strings.HasPrefix(text, `"`):
		s, err := unquote(text)
		if err != nil {
			return Datum{}, &ErrMalformedLiteral{Value: text, Rule: err.Error()}
		}
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7F {
				return Datum{}, &ErrDatumValue{DatumType: DatumPointer, Value: text, Rule: "ANSI string contains a non-ASCII character"}
			}
		}
		return Datum{Kind: LiteralAnsi, Bytes: []byte(s)}, nil
	case strings.HasPrefix(text, "{"):
		return parseByteArray(text)
	}
	return Datum{}, &ErrMalformedLiteral{Value: text, Rule: `expected L"...", "..." or {b0, b1, ...}`}
}

var errUnterminated = errors.New("unbalanced quotes")

// unquote decodes a double-quoted string with C-like escapes. The closing
// quote must be the last character.
func unquote(q string) (string, error) {
	if len(q) < 2 || q[0] != '"' || q[len(q)-1] != '"' {
		return "", errUnterminated
	}
	body := q[1 : len(q)-1]
	var s strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '"':
			return "", errUnterminated
		case '\\':
			i++
			if i >= len(body) {
				return "", errUnterminated
			}
			switch body[i] {
			case '\\':
				s.WriteByte('\\')
			case '"':
				s.WriteByte('"')
			case 'n':
				s.WriteByte('\n')
			case 't':
				s.WriteByte('\t')
			case 'r':
				s.WriteByte('\r')
			case '0':
				s.WriteByte(0)
			default:
				return "", errors.New("unknown escape sequence \\" + string(body[i]))
			}
		default:
			s.WriteByte(c)
		}
	}
	return s.String(), nil
}

func parseByteArray(text string) (Datum, error) {
	if !strings.HasSuffix(text, "}") || strings.Count(text, "{") != 1 || strings.Count(text, "}") != 1 {
		return Datum{}, &ErrMalformedLiteral{Value: text, Rule: "unbalanced braces"}
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return Datum{Kind: LiteralByteArray, Bytes: []byte{}}, nil
	}
	elements := strings.Split(body, ",")
	b := make([]byte, 0, len(elements))
	for idx, el := range elements {
		v, err := ParseUint(el, 8)
		switch {
		case errors.Is(err, ErrOutOfRange):
			return Datum{}, &ErrDatumValue{DatumType: DatumPointer, Value: text,
				Rule: "byte #" + strconv.Itoa(idx) + " (" + strings.TrimSpace(el) + ") exceeds 0xFF"}
		case err != nil:
			return Datum{}, &ErrMalformedLiteral{Value: text,
				Rule: "byte #" + strconv.Itoa(idx) + " (" + strings.TrimSpace(el) + ") is not numeric"}
		}
		b = append(b, byte(v))
	}
	return Datum{Kind: LiteralByteArray, Bytes: b}, nil
}
