// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preprocess prepares a collected PCD database for serialization:
// it applies the platform's dynamic PCD definitions, validates every token
// and splits the dynamic tokens into the PEI and DXE databases.
package preprocess

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/pcdbuild/pkg/log"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/linuxboot/pcdbuild/pkg/surfacearea"
)

// Result is the ordered content of the two dynamic PCD databases.
type Result struct {
	Pei []*pcd.Token
	Dxe []*pcd.Token
}

// Option configures an Action.
type Option func(*Action)

// WithLogger sets the logger for warnings and debug output.
func WithLogger(l log.Logger) Option {
	return func(a *Action) {
		a.logger = l
	}
}

// Action is one preprocessing run over a database.
type Action struct {
	db          *pcd.Database
	platform    *surfacearea.PlatformSurfaceArea
	logger      log.Logger
	forBuilding bool
}

// New returns an Action over db using the dynamic definitions of platform.
func New(db *pcd.Database, platform *surfacearea.PlatformSurfaceArea, opts ...Option) *Action {
	a := &Action{
		db:       db,
		platform: platform,
		logger:   log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.DefaultLogger
	}
	return a
}

// NewForBuilding is like New, but the run also fails for dynamic tokens no
// module consumes.
func NewForBuilding(db *pcd.Database, platform *surfacearea.PlatformSurfaceArea, opts ...Option) *Action {
	a := New(db, platform, opts...)
	a.forBuilding = true
	return a
}

// Run applies the dynamic definitions, validates every token and returns
// the PEI and DXE token lists with their assigned token numbers.
func (a *Action) Run() (*Result, error) {
	if a.platform == nil {
		return nil, fmt.Errorf("no platform surface area")
	}
	if err := a.applyDynamicDefinitions(); err != nil {
		return nil, err
	}

	var result *multierror.Error
	for _, tok := range a.db.Tokens() {
		if err := pcd.VerifyToken(tok); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	pei, dxe := a.db.TwoPhaseDynamicRecords()
	for idx, tok := range pei {
		tok.AssignedTokenNumber = uint32(idx + 1)
	}
	for idx, tok := range dxe {
		tok.AssignedTokenNumber = uint32(len(pei) + idx + 1)
	}
	for _, tok := range a.db.Tokens() {
		if !tok.IsDynamic() {
			tok.AssignedTokenNumber = tok.TokenNumber
		}
	}
	a.logger.Debugf("%d PEI and %d DXE dynamic PCDs", len(pei), len(dxe))
	return &Result{Pei: pei, Dxe: dxe}, nil
}

// applyDynamicDefinitions overlays DynamicPcdBuildDefinitions on the
// dynamic tokens. Every dynamic token must have a definition.
func (a *Action) applyDynamicDefinitions() error {
	byName := make(map[string]*pcd.Token)
	for _, tok := range a.db.Tokens() {
		byName[tok.String()] = tok
	}

	defined := make(map[*pcd.Token]bool)
	for idx := range a.platform.DynamicPcdBuildDefinitions {
		def := &a.platform.DynamicPcdBuildDefinitions[idx]
		name := def.CName
		if def.TokenSpaceGuidCName != "" {
			name = def.TokenSpaceGuidCName + "." + def.CName
		}
		tok, ok := byName[name]
		switch {
		case !ok:
			a.logger.Warnf("dynamic definition of %s matches no declared PCD, skipping", name)
			continue
		case !tok.IsDynamic():
			a.logger.Warnf("dynamic definition of %s ignored: the PCD is %s", name, tok.ItemType)
			continue
		case defined[tok]:
			a.logger.Warnf("%s has more than one dynamic definition, keeping the first", name)
			continue
		}
		if err := a.override(tok, def); err != nil {
			return err
		}
		defined[tok] = true
	}

	var result *multierror.Error
	for _, tok := range a.db.Tokens() {
		if !tok.IsDynamic() {
			continue
		}
		if !defined[tok] {
			result = multierror.Append(result, &pcd.ErrMissingDynamicDefinition{
				CName:      tok.CName,
				TokenSpace: tok.TokenSpaceGUIDCName,
			})
			continue
		}
		if a.forBuilding && len(tok.UsageInstances()) == 0 {
			result = multierror.Append(result, &pcd.ErrMissingDynamicDefinition{
				CName:      tok.CName,
				TokenSpace: tok.TokenSpaceGUIDCName,
				Reason:     "no module consumes it",
			})
		}
	}
	return result.ErrorOrNil()
}

func (a *Action) override(tok *pcd.Token, def *surfacearea.PcdBuildData) error {
	if def.DatumType != pcd.DatumTypeUnknown && def.DatumType != tok.DatumType {
		return &pcd.ErrTypeConflict{
			Context: pcd.Context{CName: tok.CName, Module: tok.Modules()},
			SourceA: "PcdBuildDeclarations",
			TypeA:   tok.DatumType,
			SourceB: "DynamicPcdBuildDefinitions",
			TypeB:   def.DatumType,
		}
	}
	if def.ItemType != pcd.ItemTypeUnknown && def.ItemType != tok.ItemType {
		a.logger.Warnf("%s is %s but its dynamic definition says %s", tok, tok.ItemType, def.ItemType)
	}

	var err error
	parse := func(field, text string) uint32 {
		if text == "" || err != nil {
			return 0
		}
		v, perr := pcd.ParseUint(text, 32)
		if perr != nil {
			err = &pcd.ErrDatumValue{
				Context:   pcd.Context{CName: tok.CName, Module: "DynamicPcdBuildDefinitions"},
				DatumType: tok.DatumType,
				Value:     text,
				Rule:      fmt.Sprintf("%s: %v", field, perr),
			}
		}
		return uint32(v)
	}

	if def.MaxDatumSize != "" {
		tok.MaxDatumSize = parse("MaxDatumSize", def.MaxDatumSize)
	}
	if def.DefaultValue != nil {
		tok.Datum = *def.DefaultValue
	}
	if def.HiiEnable {
		tok.HiiEnabled = true
		tok.VariableGUID = def.VariableGuid
		tok.VariableName = def.VariableName
		tok.VariableOffset = parse("DataOffset", def.DataOffset)
	}
	if def.SkuEnable {
		tok.SkuEnabled = true
		tok.SkuDataArrayEnabled = def.SkuDataArrayEnable
		tok.MaxSkuCount = parse("MaxSku", def.MaxSku)
		tok.SkuID = parse("SkuId", def.SkuID)
		tok.SkuData = nil
		for _, sku := range def.SkuData {
			tok.SkuData = append(tok.SkuData, pcd.SkuInstance{
				ID:    parse("SkuData Id", sku.ID),
				Value: sku.Value,
			})
		}
	}
	if err != nil {
		return err
	}
	a.logger.Debugf("applied dynamic definition of %s: %s", tok, tok.Datum)
	return nil
}
