// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcd implements the Platform Configuration Database token model:
// tokens, their per-module usage bindings and SKU overrides, the in-memory
// token database of one platform build, datum validation and the
// resolution of a token's value across the platform, module and package
// layers.
package pcd

import (
	"fmt"
	"strings"

	"github.com/linuxboot/pcdbuild/pkg/guid"
)

// ModuleID identifies a module (or library instance) within a workspace.
// Module names are only unique within a package, and the same module may
// be built for several architectures.
type ModuleID struct {
	Package string
	Name    string
	Arch    string
}

func (id ModuleID) String() string {
	s := id.Name
	if id.Package != "" {
		s = id.Package + "/" + s
	}
	if id.Arch != "" {
		s += "." + id.Arch
	}
	return s
}

// IsZero reports whether the ID is unset.
func (id ModuleID) IsZero() bool {
	return id == ModuleID{}
}

// Key returns the primary key of a token.
func Key(cName string, tokenSpace, platformScope guid.GUID) string {
	return cName + "_" + tokenSpace.String() + "_" + platformScope.String()
}

// SkuInstance is the value of a token for one SKU.
type SkuInstance struct {
	ID    uint32
	Value string
}

// UsageInstance binds a token to one consuming or producing module.
type UsageInstance struct {
	Token *Token

	Module        ModuleID
	Usage         Usage
	ItemType      ItemType
	ComponentType ComponentType
	Phase         Phase

	DefaultValueInMSA string
	HelpText          string
	DefaultValueInSPD string
	HelpTextInSPD     string

	// IsLibraryInherited is set when the binding exists because a library
	// instance linked into Module declares the PCD. Library names that
	// library.
	IsLibraryInherited bool
	Library            ModuleID
}

func (u *UsageInstance) String() string {
	s := fmt.Sprintf("%s %s %s", u.Module, u.Usage, u.ItemType)
	if u.IsLibraryInherited {
		s += " (via " + u.Library.String() + ")"
	}
	return s
}

// Token is one PCD configuration item of a platform build.
type Token struct {
	CName               string
	TokenSpaceGUIDCName string
	TokenSpaceGUID      guid.GUID
	PlatformScope       guid.GUID

	// TokenNumber is the package-scope token number; AssignedTokenNumber
	// is the platform-scope number used in the PCD database.
	TokenNumber         uint32
	AssignedTokenNumber uint32

	DatumType    DatumType
	Datum        string
	MaxDatumSize uint32
	ItemType     ItemType

	HiiEnabled     bool
	VariableGUID   guid.GUID
	VariableName   string
	VariableOffset uint32

	SkuEnabled          bool
	SkuDataArrayEnabled bool
	MaxSkuCount         uint32
	SkuID               uint32
	SkuData             []SkuInstance

	// Candidate values contributed by each layer; see Resolve.
	Platform Layer
	Module   Layer
	Package  Layer

	usages []*UsageInstance
}

// NewToken returns a token with the given identity.
func NewToken(cName, tokenSpaceCName string, tokenSpace guid.GUID) *Token {
	return &Token{
		CName:               cName,
		TokenSpaceGUIDCName: tokenSpaceCName,
		TokenSpaceGUID:      tokenSpace,
	}
}

// PrimaryKey returns the database key of the token.
func (t *Token) PrimaryKey() string {
	return Key(t.CName, t.TokenSpaceGUID, t.PlatformScope)
}

func (t *Token) String() string {
	if t.TokenSpaceGUIDCName != "" {
		return t.TokenSpaceGUIDCName + "." + t.CName
	}
	return t.CName
}

// IsDynamic reports whether the token lives in the PEI or DXE database.
func (t *Token) IsDynamic() bool {
	return t.ItemType.IsDynamic()
}

// AddUsageInstance attaches u to the token. It returns false, and leaves
// the token untouched, if the module is already bound.
func (t *Token) AddUsageInstance(u *UsageInstance) bool {
	if t.UsageInstance(u.Module) != nil {
		return false
	}
	u.Token = t
	t.usages = append(t.usages, u)
	return true
}

// UsageInstance returns the binding for module id, or nil.
func (t *Token) UsageInstance(id ModuleID) *UsageInstance {
	for _, u := range t.usages {
		if u.Module == id {
			return u
		}
	}
	return nil
}

// UsageInstances returns the bindings in the order they were added.
func (t *Token) UsageInstances() []*UsageInstance {
	return append([]*UsageInstance(nil), t.usages...)
}

// Phase returns PEI if any PEI-phase module uses the token, DXE otherwise.
func (t *Token) Phase() Phase {
	for _, u := range t.usages {
		if u.Phase == PhasePEI {
			return PhasePEI
		}
	}
	return PhaseDXE
}

// Modules returns a short description of the modules using the token, for
// error messages.
func (t *Token) Modules() string {
	if len(t.usages) == 0 {
		return "FPD"
	}
	names := make([]string, 0, len(t.usages))
	for _, u := range t.usages {
		names = append(names, u.Module.String())
	}
	return strings.Join(names, ",")
}
