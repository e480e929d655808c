// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package surfacearea decodes the platform (FPD), module (MSA) and package
// (SPD) surface area documents into the records the PCD pipeline consumes.
// Only the elements the PCD pipeline reads are modelled.
package surfacearea

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
)

// PlatformSurfaceArea is an FPD document.
type PlatformSurfaceArea struct {
	XMLName xml.Name       `xml:"PlatformSurfaceArea"`
	Header  PlatformHeader `xml:"PlatformHeader"`

	SupportedArchitectures string `xml:"PlatformDefinitions>SupportedArchitectures"`

	Modules                    []ModuleSA     `xml:"FrameworkModules>ModuleSA"`
	PcdBuildDeclarations       []PcdBuildData `xml:"PcdBuildDeclarations>PcdBuildData"`
	DynamicPcdBuildDefinitions []PcdBuildData `xml:"DynamicPcdBuildDefinitions>PcdBuildData"`
}

// PlatformHeader identifies a platform.
type PlatformHeader struct {
	PlatformName string    `xml:"PlatformName"`
	GUID         guid.GUID `xml:"GuidValue"`
	Version      string    `xml:"Version"`
}

// ModuleSA is a module built by the platform, with the library instances
// linked into it.
type ModuleSA struct {
	ModuleName  string            `xml:"ModuleName,attr"`
	PackageName string            `xml:"PackageName,attr"`
	Arch        string            `xml:"Arch,attr"`
	Libraries   []LibraryInstance `xml:"Libraries>Instance"`
}

// ID returns the module identity of the entry.
func (m ModuleSA) ID() pcd.ModuleID {
	return pcd.ModuleID{Package: m.PackageName, Name: m.ModuleName, Arch: m.Arch}
}

// LibraryInstance names a library module.
type LibraryInstance struct {
	ModuleName  string `xml:"ModuleName,attr"`
	PackageName string `xml:"PackageName,attr"`
}

// PcdBuildData is one platform PCD declaration. The same shape is used by
// the build declarations and by the dynamic build definitions. Numbers are
// kept as text (hex with 0x prefix or decimal) and parsed by the consumer.
type PcdBuildData struct {
	ItemType            pcd.ItemType  `xml:"ItemType,attr"`
	CName               string        `xml:"C_Name"`
	Token               string        `xml:"Token"`
	TokenSpaceGuidCName string        `xml:"TokenSpaceGuidCName"`
	DatumType           pcd.DatumType `xml:"DatumType"`
	MaxDatumSize        string        `xml:"MaxDatumSize"`
	// DefaultValue is nil when the element is absent.
	DefaultValue *string `xml:"DefaultValue"`

	HiiEnable    bool      `xml:"HiiEnable"`
	VariableGuid guid.GUID `xml:"VariableGuid"`
	VariableName string    `xml:"VariableName"`
	DataOffset   string    `xml:"DataOffset"`

	SkuEnable          bool      `xml:"SkuEnable"`
	MaxSku             string    `xml:"MaxSku"`
	SkuID              string    `xml:"SkuId"`
	SkuDataArrayEnable bool      `xml:"SkuDataArrayEnable"`
	SkuData            []SkuData `xml:"SkuData"`
}

// SkuData is the value of a PCD for one SKU.
type SkuData struct {
	ID    string `xml:"Id,attr"`
	Value string `xml:",chardata"`
}

// ModuleSurfaceArea is an MSA document.
type ModuleSurfaceArea struct {
	XMLName        xml.Name       `xml:"ModuleSurfaceArea"`
	Header         ModuleHeader   `xml:"MsaHeader"`
	LibraryClasses []LibraryClass `xml:"LibraryClassDefinitions>LibraryClass"`
	PcdCoded       []PcdCoded     `xml:"PcdCoded>PcdEntry"`
}

// ModuleHeader identifies a module.
type ModuleHeader struct {
	ModuleName string            `xml:"ModuleName"`
	ModuleType pcd.ComponentType `xml:"ModuleType"`
	GUID       guid.GUID         `xml:"GuidValue"`
	Version    string            `xml:"Version"`
}

// LibraryClass is a library class a module consumes, or a library
// instance produces.
type LibraryClass struct {
	Usage   pcd.Usage `xml:"Usage,attr"`
	Keyword string    `xml:"Keyword"`
}

// PcdCoded is one PCD a module consumes or produces.
type PcdCoded struct {
	ItemType            pcd.ItemType `xml:"PcdItemType,attr"`
	Usage               pcd.Usage    `xml:"Usage,attr"`
	CName               string       `xml:"C_Name"`
	TokenSpaceGuidCName string       `xml:"TokenSpaceGuidCName"`
	DefaultValue        *string      `xml:"DefaultValue"`
	HelpText            string       `xml:"HelpText"`
}

// PackageSurfaceArea is an SPD document.
type PackageSurfaceArea struct {
	XMLName          xml.Name          `xml:"PackageSurfaceArea"`
	Header           PackageHeader     `xml:"SpdHeader"`
	MsaFiles         []string          `xml:"MsaFiles>Filename"`
	GuidDeclarations []GuidDeclaration `xml:"GuidDeclarations>Entry"`
	PcdDeclarations  []PcdDeclaration  `xml:"PcdDeclarations>PcdEntry"`
}

// PackageHeader identifies a package.
type PackageHeader struct {
	PackageName string    `xml:"PackageName"`
	GUID        guid.GUID `xml:"GuidValue"`
	Version     string    `xml:"Version"`
}

// GuidDeclaration binds a C name to a GUID value.
type GuidDeclaration struct {
	CName string    `xml:"C_Name"`
	GUID  guid.GUID `xml:"GuidValue"`
}

// PcdDeclaration is one PCD a package declares.
type PcdDeclaration struct {
	CName               string        `xml:"C_Name"`
	Token               string        `xml:"Token"`
	TokenSpaceGuidCName string        `xml:"TokenSpaceGuidCName"`
	DatumType           pcd.DatumType `xml:"DatumType"`
	ValidUsage          string        `xml:"ValidUsage"`
	DefaultValue        *string       `xml:"DefaultValue"`
	HelpText            string        `xml:"HelpText"`
}

// Decode reads one surface area document of any of the three kinds into v.
func Decode(r io.Reader, v interface{}) error {
	dec := xml.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func decodeFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Decode(f, v); err != nil {
		return fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return nil
}

// ReadPlatform parses an FPD file.
func ReadPlatform(path string) (*PlatformSurfaceArea, error) {
	var fpd PlatformSurfaceArea
	if err := decodeFile(path, &fpd); err != nil {
		return nil, err
	}
	return &fpd, nil
}

// ReadModule parses an MSA file.
func ReadModule(path string) (*ModuleSurfaceArea, error) {
	var msa ModuleSurfaceArea
	if err := decodeFile(path, &msa); err != nil {
		return nil, err
	}
	return &msa, nil
}

// ReadPackage parses an SPD file.
func ReadPackage(path string) (*PackageSurfaceArea, error) {
	var spd PackageSurfaceArea
	if err := decodeFile(path, &spd); err != nil {
		return nil, err
	}
	return &spd, nil
}
