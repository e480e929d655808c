// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

import (
	"errors"
	"fmt"
)

// ErrorKind classifies PCD pipeline failures. Both kinds are fatal for
// the platform build.
type ErrorKind int

// Error kinds.
const (
	// KindCollection covers undeclared, duplicate or incomplete tokens.
	KindCollection ErrorKind = iota + 1
	// KindValidation covers datum, type and size inconsistencies.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is implemented by every typed error of this package.
type Error interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of the first typed error found in err's chain,
// or 0 if there is none.
func KindOf(err error) ErrorKind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return 0
}

// Context names the token and module a validation error is about.
type Context struct {
	CName  string
	Module string
}

func (c *Context) setContext(cName, module string) {
	if c.CName == "" {
		c.CName = cName
	}
	if c.Module == "" {
		c.Module = module
	}
}

func (c Context) prefix() string {
	switch {
	case c.CName == "" && c.Module == "":
		return ""
	case c.Module == "":
		return fmt.Sprintf("PCD %s: ", c.CName)
	}
	return fmt.Sprintf("PCD %s (module %s): ", c.CName, c.Module)
}

type contextSetter interface {
	setContext(cName, module string)
}

// WithContext fills in the token and module name of every validation error
// in err's chain that does not have them yet, and returns err.
func WithContext(err error, cName, module string) error {
	if err == nil {
		return nil
	}
	var cs contextSetter
	if errors.As(err, &cs) {
		cs.setContext(cName, module)
	}
	return err
}

// ErrUndeclaredToken means a module references a PCD the platform does not
// declare.
type ErrUndeclaredToken struct {
	CName      string
	TokenSpace string
	Module     ModuleID
}

func (err *ErrUndeclaredToken) Error() string {
	return fmt.Sprintf("PCD %s.%s used by module %s does not exist in FPD file",
		err.TokenSpace, err.CName, err.Module)
}

// Kind implements Error.
func (*ErrUndeclaredToken) Kind() ErrorKind { return KindCollection }

// ErrDuplicateToken means a token key is defined twice.
type ErrDuplicateToken struct {
	Key    string
	Reason string
}

func (err *ErrDuplicateToken) Error() string {
	if err.Reason == "" {
		return fmt.Sprintf("token %s is already in the database", err.Key)
	}
	return fmt.Sprintf("token %s is defined twice: %s", err.Key, err.Reason)
}

// Kind implements Error.
func (*ErrDuplicateToken) Kind() ErrorKind { return KindCollection }

// ErrTokenNotFound means a lookup by primary key found nothing.
type ErrTokenNotFound struct {
	Key string
}

func (err *ErrTokenNotFound) Error() string {
	return fmt.Sprintf("token %s is not in the database", err.Key)
}

// Kind implements Error.
func (*ErrTokenNotFound) Kind() ErrorKind { return KindCollection }

// ErrMissingDatum means no layer supplied a value for a token.
type ErrMissingDatum struct {
	CName string
}

func (err *ErrMissingDatum) Error() string {
	return fmt.Sprintf("PCD %s: no datum available from FPD, MSA, or SPD", err.CName)
}

// Kind implements Error.
func (*ErrMissingDatum) Kind() ErrorKind { return KindCollection }

// ErrMissingDynamicDefinition means a dynamic token has no entry in the
// platform's dynamic build definitions.
type ErrMissingDynamicDefinition struct {
	CName      string
	TokenSpace string
	Reason     string
}

func (err *ErrMissingDynamicDefinition) Error() string {
	reason := err.Reason
	if reason == "" {
		reason = "no entry in DynamicPcdBuildDefinitions"
	}
	return fmt.Sprintf("dynamic PCD %s.%s: %s", err.TokenSpace, err.CName, reason)
}

// Kind implements Error.
func (*ErrMissingDynamicDefinition) Kind() ErrorKind { return KindCollection }

// ErrTypeConflict means two sources disagree on the datum type of a token.
type ErrTypeConflict struct {
	Context
	SourceA string
	TypeA   DatumType
	SourceB string
	TypeB   DatumType
}

func (err *ErrTypeConflict) Error() string {
	return fmt.Sprintf("%sdatum type mismatch: %s declares %s, %s declares %s",
		err.prefix(), err.SourceA, err.TypeA, err.SourceB, err.TypeB)
}

// Kind implements Error.
func (*ErrTypeConflict) Kind() ErrorKind { return KindValidation }

// ErrItemType means the item type cannot hold the datum type.
type ErrItemType struct {
	Context
	ItemType  ItemType
	DatumType DatumType
}

func (err *ErrItemType) Error() string {
	return fmt.Sprintf("%s%s PCD must be BOOLEAN, got %s", err.prefix(), err.ItemType, err.DatumType)
}

// Kind implements Error.
func (*ErrItemType) Kind() ErrorKind { return KindValidation }

// ErrDatumSize means MaxDatumSize is inconsistent with the datum type or
// the value does not fit.
type ErrDatumSize struct {
	Context
	DatumType    DatumType
	MaxDatumSize uint32
	// Required is the width the type requires, or the decoded length of
	// a POINTER value.
	Required uint32
	Rule     string
}

func (err *ErrDatumSize) Error() string {
	return fmt.Sprintf("%s%s: %s (MaxDatumSize %d, required %d)",
		err.prefix(), err.DatumType, err.Rule, err.MaxDatumSize, err.Required)
}

// Kind implements Error.
func (*ErrDatumSize) Kind() ErrorKind { return KindValidation }

// ErrDatumValue means a value does not parse as, or does not fit, its type.
type ErrDatumValue struct {
	Context
	DatumType DatumType
	Value     string
	Rule      string
}

func (err *ErrDatumValue) Error() string {
	return fmt.Sprintf("%sinvalid %s value %q: %s", err.prefix(), err.DatumType, err.Value, err.Rule)
}

// Kind implements Error.
func (*ErrDatumValue) Kind() ErrorKind { return KindValidation }

// ErrMalformedLiteral means a POINTER literal is syntactically broken.
type ErrMalformedLiteral struct {
	Context
	Value string
	Rule  string
}

func (err *ErrMalformedLiteral) Error() string {
	return fmt.Sprintf("%smalformed POINTER literal %q: %s", err.prefix(), err.Value, err.Rule)
}

// Kind implements Error.
func (*ErrMalformedLiteral) Kind() ErrorKind { return KindValidation }

// ErrSkuDefinition means the SKU data of a token is inconsistent.
type ErrSkuDefinition struct {
	Context
	Rule string
}

func (err *ErrSkuDefinition) Error() string {
	return fmt.Sprintf("%sSKU definition: %s", err.prefix(), err.Rule)
}

// Kind implements Error.
func (*ErrSkuDefinition) Kind() ErrorKind { return KindValidation }

// ErrHiiDefinition means an HII-enabled token lacks its variable binding.
type ErrHiiDefinition struct {
	Context
	Rule string
}

func (err *ErrHiiDefinition) Error() string {
	return fmt.Sprintf("%sHII definition: %s", err.prefix(), err.Rule)
}

// Kind implements Error.
func (*ErrHiiDefinition) Kind() ErrorKind { return KindValidation }
