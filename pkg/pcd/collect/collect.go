// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package collect populates a PCD database from the surface area of a
// platform build.
//
// Tokens are created from the platform build declarations only. Modules,
// the libraries linked into them, and the packages owning them can bind to
// those tokens and supply fallback values, but never create new ones.
package collect

import (
	"fmt"

	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/log"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/linuxboot/pcdbuild/pkg/surfacearea"
)

// Workspace gives access to the documents of a platform build.
type Workspace interface {
	Platform() *surfacearea.PlatformSurfaceArea
	Packages() []*surfacearea.Package
	Package(name string) (*surfacearea.Package, error)
	Module(pkg, name string) (*surfacearea.Module, error)
	TokenSpaceGUID(cName string) (guid.GUID, bool)
}

// Option configures an Action.
type Option func(*Action)

// WithLogger sets the logger for warnings and debug output.
func WithLogger(l log.Logger) Option {
	return func(a *Action) {
		a.logger = l
	}
}

// WithPlatformScope sets the platform scoping GUID that is part of every
// token key. It is the nil GUID by default.
func WithPlatformScope(g guid.GUID) Option {
	return func(a *Action) {
		a.platformScope = g
	}
}

// WithArch restricts the module pass to the FPD modules built for arch.
// Modules without an Arch attribute are always collected.
func WithArch(arch string) Option {
	return func(a *Action) {
		a.arch = arch
	}
}

// Action collects the tokens of one platform into a database.
type Action struct {
	db            *pcd.Database
	ws            Workspace
	logger        log.Logger
	platformScope guid.GUID
	arch          string

	staged     *pcd.Database
	decls      map[string]*surfacearea.PcdBuildData
	unresolved map[string]bool
}

// New returns an Action filling db from ws.
func New(db *pcd.Database, ws Workspace, opts ...Option) *Action {
	a := &Action{
		db:     db,
		ws:     ws,
		logger: log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.DefaultLogger
	}
	return a
}

// Collect runs the platform, module, package and library passes and
// resolves every token's type and datum. The database is only modified if
// everything succeeds.
func (a *Action) Collect() error {
	a.staged = pcd.NewDatabase()
	a.decls = make(map[string]*surfacearea.PcdBuildData)
	a.unresolved = make(map[string]bool)
	defer func() {
		a.staged = nil
		a.decls = nil
		a.unresolved = nil
	}()

	platform := a.ws.Platform()
	if platform == nil {
		return fmt.Errorf("workspace has no platform surface area")
	}

	if err := a.createTokensFromFPD(platform); err != nil {
		return err
	}
	for _, msa := range platform.Modules {
		if a.arch != "" && msa.Arch != "" && msa.Arch != a.arch {
			a.logger.Debugf("skipping module %s: not built for %s", msa.ID(), a.arch)
			continue
		}
		if err := a.collectModule(msa); err != nil {
			return err
		}
	}
	if err := a.resolveTokens(); err != nil {
		return err
	}
	return a.db.Merge(a.staged)
}

func (a *Action) tokenSpace(cName string) guid.GUID {
	if cName == "" {
		return guid.Nil
	}
	g, ok := a.ws.TokenSpaceGUID(cName)
	if !ok {
		if !a.unresolved[cName] {
			a.unresolved[cName] = true
			a.logger.Warnf("token space %s is not declared by any package, using the nil GUID", cName)
		}
		return guid.Nil
	}
	return g
}

func (a *Action) key(cName, tokenSpaceCName string) string {
	return pcd.Key(cName, a.tokenSpace(tokenSpaceCName), a.platformScope)
}

func (a *Action) createTokensFromFPD(platform *surfacearea.PlatformSurfaceArea) error {
	for idx := range platform.PcdBuildDeclarations {
		decl := &platform.PcdBuildDeclarations[idx]
		if decl.CName == "" {
			return fmt.Errorf("PcdBuildData #%d in FPD has no C_Name", idx)
		}
		key := a.key(decl.CName, decl.TokenSpaceGuidCName)
		if first, ok := a.decls[key]; ok {
			if first.TokenSpaceGuidCName != decl.TokenSpaceGuidCName {
				return &pcd.ErrDuplicateToken{Key: key, Reason: fmt.Sprintf(
					"token spaces %s and %s resolve to the same GUID",
					first.TokenSpaceGuidCName, decl.TokenSpaceGuidCName)}
			}
			if reason := declarationDiff(first, decl); reason != "" {
				return &pcd.ErrDuplicateToken{Key: key, Reason: reason}
			}
			a.logger.Warnf("PCD %s.%s is declared twice in FPD, keeping the first declaration",
				decl.TokenSpaceGuidCName, decl.CName)
			continue
		}

		tok, err := a.tokenFromDeclaration(decl)
		if err != nil {
			return err
		}
		if err := a.staged.AddToken(key, tok); err != nil {
			return err
		}
		a.decls[key] = decl
	}
	return nil
}

// declarationDiff describes how two declarations of the same token differ,
// or returns "" if they are interchangeable.
func declarationDiff(a, b *surfacearea.PcdBuildData) string {
	switch {
	case a.ItemType != b.ItemType:
		return fmt.Sprintf("item type %s vs %s", a.ItemType, b.ItemType)
	case a.DatumType != b.DatumType:
		return fmt.Sprintf("datum type %s vs %s", a.DatumType, b.DatumType)
	case a.Token != b.Token:
		return fmt.Sprintf("token %q vs %q", a.Token, b.Token)
	case a.MaxDatumSize != b.MaxDatumSize:
		return fmt.Sprintf("MaxDatumSize %q vs %q", a.MaxDatumSize, b.MaxDatumSize)
	case (a.DefaultValue == nil) != (b.DefaultValue == nil),
		a.DefaultValue != nil && *a.DefaultValue != *b.DefaultValue:
		return fmt.Sprintf("default value %s vs %s", quoteOpt(a.DefaultValue), quoteOpt(b.DefaultValue))
	}
	return ""
}

func quoteOpt(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}

func (a *Action) tokenFromDeclaration(decl *surfacearea.PcdBuildData) (*pcd.Token, error) {
	tok := pcd.NewToken(decl.CName, decl.TokenSpaceGuidCName, a.tokenSpace(decl.TokenSpaceGuidCName))
	tok.PlatformScope = a.platformScope
	tok.ItemType = decl.ItemType
	tok.DatumType = decl.DatumType

	num := numberParser{cName: decl.CName, datumType: decl.DatumType}
	tok.MaxDatumSize = uint32(num.parse("MaxDatumSize", decl.MaxDatumSize, 32))
	tok.HiiEnabled = decl.HiiEnable
	tok.VariableGUID = decl.VariableGuid
	tok.VariableName = decl.VariableName
	tok.VariableOffset = uint32(num.parse("DataOffset", decl.DataOffset, 32))
	tok.SkuEnabled = decl.SkuEnable
	tok.SkuDataArrayEnabled = decl.SkuDataArrayEnable
	tok.MaxSkuCount = uint32(num.parse("MaxSku", decl.MaxSku, 32))
	tok.SkuID = uint32(num.parse("SkuId", decl.SkuID, 32))
	for _, sku := range decl.SkuData {
		tok.SkuData = append(tok.SkuData, pcd.SkuInstance{
			ID:    uint32(num.parse("SkuData Id", sku.ID, 32)),
			Value: sku.Value,
		})
	}

	tok.Platform = pcd.Layer{
		Source:    "FPD",
		DatumType: decl.DatumType,
		Datum:     copyString(decl.DefaultValue),
	}
	if decl.Token != "" {
		n := uint32(num.parse("Token", decl.Token, 32))
		tok.Platform.TokenNumber = &n
	}
	if num.err != nil {
		return nil, num.err
	}
	return tok, nil
}

// numberParser parses the numeric text fields of one declaration and keeps
// the first error.
type numberParser struct {
	cName     string
	module    string
	datumType pcd.DatumType
	err       error
}

func (p *numberParser) parse(field, text string, bits int) uint64 {
	if text == "" || p.err != nil {
		return 0
	}
	v, err := pcd.ParseUint(text, bits)
	if err != nil {
		module := p.module
		if module == "" {
			module = "FPD"
		}
		p.err = &pcd.ErrDatumValue{
			Context:   pcd.Context{CName: p.cName, Module: module},
			DatumType: p.datumType,
			Value:     text,
			Rule:      fmt.Sprintf("%s: %v", field, err),
		}
		return 0
	}
	return v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// binding describes who a module-level PCD entry is bound to.
type binding struct {
	module        pcd.ModuleID
	componentType pcd.ComponentType
	phase         pcd.Phase
	// owner is the module whose surface area declares the entry; its
	// package is searched first for the SPD fallback.
	owner     *surfacearea.Module
	inherited bool
	library   pcd.ModuleID
}

func (a *Action) collectModule(msa surfacearea.ModuleSA) error {
	module, err := a.ws.Module(msa.PackageName, msa.ModuleName)
	if err != nil {
		return fmt.Errorf("unable to find module %s listed in FPD: %w", msa.ID(), err)
	}
	id := msa.ID()
	componentType := module.MSA.Header.ModuleType
	phase := componentType.Phase()

	self := binding{
		module:        id,
		componentType: componentType,
		phase:         phase,
		owner:         module,
	}
	for _, entry := range module.MSA.PcdCoded {
		if err := a.bind(entry, self); err != nil {
			return err
		}
	}

	for _, inst := range msa.Libraries {
		lib, err := a.ws.Module(inst.PackageName, inst.ModuleName)
		if err != nil {
			return fmt.Errorf("unable to find library instance %s/%s of module %s: %w",
				inst.PackageName, inst.ModuleName, id, err)
		}
		if !alwaysConsumed(module, lib) {
			a.logger.Debugf("module %s only sometimes consumes library %s, skipping its PCDs", id, lib.Name())
			continue
		}
		libID := pcd.ModuleID{Package: inst.PackageName, Name: inst.ModuleName, Arch: msa.Arch}
		for _, entry := range lib.MSA.PcdCoded {
			viaModule := self
			viaModule.owner = lib
			viaModule.inherited = true
			viaModule.library = libID
			if err := a.bind(entry, viaModule); err != nil {
				return err
			}

			ownBinding := binding{
				module:        libID,
				componentType: lib.MSA.Header.ModuleType,
				phase:         phase,
				owner:         lib,
			}
			if err := a.bind(entry, ownBinding); err != nil {
				return err
			}
		}
	}
	return nil
}

// alwaysConsumed reports whether module always uses library lib. Only an
// explicit SOMETIMES_CONSUMED library class makes the answer false.
func alwaysConsumed(module, lib *surfacearea.Module) bool {
	for _, produced := range lib.MSA.LibraryClasses {
		if produced.Usage != pcd.UsageAlwaysProduced && produced.Usage != pcd.UsageSometimesProduced {
			continue
		}
		for _, consumed := range module.MSA.LibraryClasses {
			if consumed.Keyword == produced.Keyword {
				return consumed.Usage != pcd.UsageSometimesConsumed
			}
		}
	}
	return true
}

func (a *Action) bind(entry surfacearea.PcdCoded, b binding) error {
	key := a.key(entry.CName, entry.TokenSpaceGuidCName)
	if !a.staged.HasToken(key) {
		return &pcd.ErrUndeclaredToken{
			CName:      entry.CName,
			TokenSpace: entry.TokenSpaceGuidCName,
			Module:     b.module,
		}
	}
	tok, err := a.staged.Token(key)
	if err != nil {
		return err
	}
	// unresolved token spaces all share the nil GUID
	if tok.TokenSpaceGUID.IsNil() && entry.TokenSpaceGuidCName != "" &&
		tok.TokenSpaceGUIDCName != "" && tok.TokenSpaceGUIDCName != entry.TokenSpaceGuidCName {
		return &pcd.ErrUndeclaredToken{
			CName:      entry.CName,
			TokenSpace: entry.TokenSpaceGuidCName,
			Module:     b.module,
		}
	}
	if tok.UsageInstance(b.module) != nil {
		a.logger.Debugf("PCD %s is already bound to module %s", tok, b.module)
		return nil
	}

	if entry.Usage != pcd.UsageAlwaysConsumed {
		a.logger.Debugf("PCD %s: usage %s of module %s is recorded as %s",
			tok, entry.Usage, b.module, pcd.UsageAlwaysConsumed)
	}
	u := &pcd.UsageInstance{
		Module:             b.module,
		Usage:              pcd.UsageAlwaysConsumed,
		ItemType:           entry.ItemType,
		ComponentType:      b.componentType,
		Phase:              b.phase,
		HelpText:           entry.HelpText,
		IsLibraryInherited: b.inherited,
		Library:            b.library,
	}
	if entry.DefaultValue != nil {
		u.DefaultValueInMSA = *entry.DefaultValue
	}
	switch {
	case u.ItemType == pcd.ItemTypeUnknown:
		u.ItemType = tok.ItemType
	case u.ItemType != tok.ItemType:
		a.logger.Warnf("PCD %s is %s in FPD but module %s declares it %s",
			tok, tok.ItemType, b.module, u.ItemType)
	}

	if entry.DefaultValue != nil && tok.Module.Datum == nil {
		tok.Module = pcd.Layer{
			Source: "MSA " + b.owner.Name(),
			Datum:  copyString(entry.DefaultValue),
		}
	}

	if err := a.updateTokenBySPD(tok, u, b.owner); err != nil {
		return err
	}
	tok.AddUsageInstance(u)
	return nil
}

// findDeclaration returns the SPD declaration of tok, looking at the
// package of owner first and then at every package declaring the same
// token space.
func (a *Action) findDeclaration(tok *pcd.Token, owner *surfacearea.Module) (*surfacearea.Package, *surfacearea.PcdDeclaration) {
	matches := func(p *surfacearea.Package) *surfacearea.PcdDeclaration {
		if p == nil {
			return nil
		}
		decl := p.PcdDeclaration(tok.CName)
		if decl == nil {
			return nil
		}
		if decl.TokenSpaceGuidCName != "" && a.tokenSpace(decl.TokenSpaceGuidCName) != tok.TokenSpaceGUID {
			return nil
		}
		return decl
	}
	if decl := matches(owner.Package); decl != nil {
		return owner.Package, decl
	}
	for _, p := range a.ws.Packages() {
		if decl := matches(p); decl != nil {
			return p, decl
		}
	}
	return nil, nil
}

func (a *Action) updateTokenBySPD(tok *pcd.Token, u *pcd.UsageInstance, owner *surfacearea.Module) error {
	p, decl := a.findDeclaration(tok, owner)
	if decl == nil {
		a.logger.Debugf("PCD %s used by %s is not declared by any package", tok, u.Module)
		return nil
	}
	source := "SPD " + p.Name()

	if decl.DefaultValue != nil {
		u.DefaultValueInSPD = *decl.DefaultValue
	}
	u.HelpTextInSPD = decl.HelpText

	if tok.Platform.DatumType != pcd.DatumTypeUnknown && decl.DatumType != pcd.DatumTypeUnknown &&
		tok.Platform.DatumType != decl.DatumType {
		return &pcd.ErrTypeConflict{
			Context: pcd.Context{CName: tok.CName, Module: u.Module.String()},
			SourceA: tok.Platform.Source,
			TypeA:   tok.Platform.DatumType,
			SourceB: source,
			TypeB:   decl.DatumType,
		}
	}

	if tok.Package.IsSet() {
		if tok.Package.Source != source && decl.DatumType != tok.Package.DatumType {
			return &pcd.ErrTypeConflict{
				Context: pcd.Context{CName: tok.CName, Module: u.Module.String()},
				SourceA: tok.Package.Source,
				TypeA:   tok.Package.DatumType,
				SourceB: source,
				TypeB:   decl.DatumType,
			}
		}
		return nil
	}

	num := numberParser{cName: tok.CName, module: source, datumType: decl.DatumType}
	layer := pcd.Layer{
		Source:    source,
		DatumType: decl.DatumType,
		Datum:     copyString(decl.DefaultValue),
	}
	if decl.Token != "" {
		n := uint32(num.parse("Token", decl.Token, 32))
		layer.TokenNumber = &n
	}
	if num.err != nil {
		return num.err
	}
	tok.Package = layer
	return nil
}

func (a *Action) resolveTokens() error {
	for _, tok := range a.staged.Tokens() {
		r := pcd.Resolve(tok.Platform, tok.Package, tok.Module)
		if r.Status != pcd.Resolved {
			return pcd.WithContext(r.Err(tok.CName), tok.CName, tok.Modules())
		}
		tok.DatumType = r.DatumType
		tok.Datum = r.Datum
		if r.HasTokenNumber {
			tok.TokenNumber = r.TokenNumber
		}
		if tok.MaxDatumSize == 0 && tok.DatumType.IsScalar() {
			tok.MaxDatumSize = tok.DatumType.Size()
		}
		a.logger.Debugf("PCD %s = %s (%s, from %s)", tok, tok.Datum, tok.DatumType, r.DatumSource)
	}
	return nil
}
