// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surfacearea

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkspace = "testdata/workspace"

func TestDecodePlatform(t *testing.T) {
	fpd, err := ReadPlatform(filepath.Join(testWorkspace, "EdkNt32Pkg", "Nt32.fpd"))
	require.NoError(t, err)

	assert.Equal(t, "Nt32", fpd.Header.PlatformName)
	assert.Equal(t, "EB216561-961F-47EE-9EF9-CA426EF547C2", fpd.Header.GUID.String())
	require.Len(t, fpd.Modules, 2)
	assert.Equal(t, pcd.ModuleID{Package: "EdkModulePkg", Name: "PeiMain", Arch: "IA32"}, fpd.Modules[0].ID())
	require.Len(t, fpd.Modules[0].Libraries, 1)
	assert.Equal(t, LibraryInstance{ModuleName: "BaseLib", PackageName: "MdePkg"}, fpd.Modules[0].Libraries[0])
	assert.Empty(t, fpd.Modules[1].Libraries)

	require.Len(t, fpd.PcdBuildDeclarations, 4)
	maxVar := fpd.PcdBuildDeclarations[1]
	assert.Equal(t, "PcdMaxVar", maxVar.CName)
	assert.Equal(t, pcd.ItemDynamic, maxVar.ItemType)
	assert.Equal(t, pcd.DatumUint32, maxVar.DatumType)
	assert.Nil(t, maxVar.DefaultValue)

	str := fpd.PcdBuildDeclarations[2]
	assert.Equal(t, pcd.DatumPointer, str.DatumType)
	require.NotNil(t, str.DefaultValue)
	assert.Equal(t, `L"Nt32"`, *str.DefaultValue)
	assert.Equal(t, "16", str.MaxDatumSize)

	require.Len(t, fpd.DynamicPcdBuildDefinitions, 3)
	sku := fpd.DynamicPcdBuildDefinitions[0]
	assert.True(t, sku.SkuEnable)
	assert.Equal(t, "2", sku.MaxSku)
	assert.Equal(t, []SkuData{{ID: "0", Value: "100"}, {ID: "1", Value: "0x200"}}, sku.SkuData)

	hii := fpd.DynamicPcdBuildDefinitions[2]
	assert.True(t, hii.HiiEnable)
	assert.Equal(t, "BootState", hii.VariableName)
	assert.Equal(t, guid.MustParse("8BE4DF61-93CA-11D2-AA0D-00E098032B8C"), hii.VariableGuid)
}

func TestDecodeModule(t *testing.T) {
	msa, err := ReadModule(filepath.Join(testWorkspace, "EdkModulePkg", "Core", "Pei", "PeiMain.msa"))
	require.NoError(t, err)

	assert.Equal(t, "PeiMain", msa.Header.ModuleName)
	assert.Equal(t, pcd.ComponentPeiCore, msa.Header.ModuleType)
	require.Equal(t, []LibraryClass{{Usage: pcd.UsageAlwaysConsumed, Keyword: "BaseLib"}}, msa.LibraryClasses)
	require.Len(t, msa.PcdCoded, 1)
	assert.Equal(t, pcd.ItemDynamic, msa.PcdCoded[0].ItemType)
	assert.Equal(t, pcd.UsageSometimesConsumed, msa.PcdCoded[0].Usage)
	assert.Nil(t, msa.PcdCoded[0].DefaultValue)
}

func TestDecodePackage(t *testing.T) {
	spd, err := ReadPackage(filepath.Join(testWorkspace, "MdePkg", "MdePkg.spd"))
	require.NoError(t, err)

	assert.Equal(t, "MdePkg", spd.Header.PackageName)
	assert.Equal(t, []string{"Library/BaseLib/BaseLib.msa"}, spd.MsaFiles)
	require.Len(t, spd.GuidDeclarations, 1)
	assert.Equal(t, "gEfiMdePkgTokenSpaceGuid", spd.GuidDeclarations[0].CName)
	require.Len(t, spd.PcdDeclarations, 2)
	decl := spd.PcdDeclarations[1]
	assert.Equal(t, "PcdDebugPropertyMask", decl.CName)
	assert.Equal(t, pcd.DatumUint8, decl.DatumType)
	require.NotNil(t, decl.DefaultValue)
	assert.Equal(t, "0x0f", *decl.DefaultValue)
}

func TestDecodeErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"malformed":      `<PlatformSurfaceArea><PlatformHeader>`,
		"bad item type":  `<PlatformSurfaceArea><PcdBuildDeclarations><PcdBuildData ItemType="DYNAMIC_HII"/></PcdBuildDeclarations></PlatformSurfaceArea>`,
		"bad datum type": `<PlatformSurfaceArea><PcdBuildDeclarations><PcdBuildData><DatumType>UINT128</DatumType></PcdBuildData></PcdBuildDeclarations></PlatformSurfaceArea>`,
		"bad guid":       `<PlatformSurfaceArea><PlatformHeader><GuidValue>xyz</GuidValue></PlatformHeader></PlatformSurfaceArea>`,
	} {
		t.Run(name, func(t *testing.T) {
			var fpd PlatformSurfaceArea
			require.Error(t, Decode(strings.NewReader(doc), &fpd))
		})
	}
}

func TestLoadWorkspace(t *testing.T) {
	ws, err := LoadWorkspace(testWorkspace, filepath.Join("EdkNt32Pkg", "Nt32.fpd"))
	require.NoError(t, err)

	require.Len(t, ws.Packages(), 2)
	assert.Equal(t, "Nt32", ws.Platform().Header.PlatformName)

	m, err := ws.Module("EdkModulePkg", "Variable")
	require.NoError(t, err)
	assert.Equal(t, pcd.ComponentDxeRuntimeDriver, m.MSA.Header.ModuleType)
	require.NotNil(t, m.Package)
	assert.Equal(t, "EdkModulePkg", m.Package.Name())

	_, err = ws.Module("EdkModulePkg", "Nope")
	require.Error(t, err)
	_, err = ws.Module("NopePkg", "Variable")
	require.Error(t, err)

	g, ok := ws.TokenSpaceGUID("gEfiMdePkgTokenSpaceGuid")
	require.True(t, ok)
	assert.Equal(t, guid.MustParse("914AEBE7-4635-459B-AA1C-11E219B03A10"), g)
	_, ok = ws.TokenSpaceGUID("gUnknownGuid")
	assert.False(t, ok)

	p, err := ws.Package("MdePkg")
	require.NoError(t, err)
	require.NotNil(t, p.PcdDeclaration("PcdMaximumUnicodeStringLength"))
	assert.Nil(t, p.PcdDeclaration("PcdMaxVar"))
}

func TestLoadWorkspaceMissingIndex(t *testing.T) {
	_, err := LoadWorkspace(t.TempDir(), "Platform.fpd")
	require.Error(t, err)
}

func TestNewWorkspaceConflicts(t *testing.T) {
	spd := func(name, guidValue string) *Package {
		return &Package{SPD: &PackageSurfaceArea{
			Header: PackageHeader{PackageName: name},
			GuidDeclarations: []GuidDeclaration{
				{CName: "gSharedGuid", GUID: guid.MustParse(guidValue)},
			},
		}}
	}

	_, err := NewWorkspace(&PlatformSurfaceArea{},
		spd("PkgA", "914AEBE7-4635-459B-AA1C-11E219B03A10"),
		spd("PkgA", "914AEBE7-4635-459B-AA1C-11E219B03A10"))
	require.Error(t, err)

	_, err = NewWorkspace(&PlatformSurfaceArea{},
		spd("PkgA", "914AEBE7-4635-459B-AA1C-11E219B03A10"),
		spd("PkgB", "A1AFF049-FDEB-442A-B320-13AB4CB72BBC"))
	require.Error(t, err)

	ws, err := NewWorkspace(&PlatformSurfaceArea{},
		spd("PkgA", "914AEBE7-4635-459B-AA1C-11E219B03A10"),
		spd("PkgB", "914AEBE7-4635-459B-AA1C-11E219B03A10"))
	require.NoError(t, err)
	require.Len(t, ws.Packages(), 2)

	_, err = NewWorkspace(&PlatformSurfaceArea{}, &Package{Path: "broken.spd"})
	require.Error(t, err)
}
