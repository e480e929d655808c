// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collect

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/log"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/linuxboot/pcdbuild/pkg/surfacearea"
)

const (
	tsCName = "gTestTokenSpaceGuid"
	tsValue = "914AEBE7-4635-459B-AA1C-11E219B03A10"
)

var tsGUID = guid.MustParse(tsValue)

func strp(s string) *string {
	return &s
}

func testPackage(name string, decls ...surfacearea.PcdDeclaration) *surfacearea.Package {
	for i := range decls {
		if decls[i].TokenSpaceGuidCName == "" {
			decls[i].TokenSpaceGuidCName = tsCName
		}
	}
	return &surfacearea.Package{
		Path: name + ".spd",
		SPD: &surfacearea.PackageSurfaceArea{
			Header: surfacearea.PackageHeader{PackageName: name},
			GuidDeclarations: []surfacearea.GuidDeclaration{
				{CName: tsCName, GUID: tsGUID},
			},
			PcdDeclarations: decls,
		},
	}
}

func addModule(p *surfacearea.Package, name string, kind pcd.ComponentType, pcds ...surfacearea.PcdCoded) *surfacearea.Module {
	for i := range pcds {
		if pcds[i].TokenSpaceGuidCName == "" {
			pcds[i].TokenSpaceGuidCName = tsCName
		}
	}
	m := &surfacearea.Module{
		Path: name + ".msa",
		MSA: &surfacearea.ModuleSurfaceArea{
			Header:   surfacearea.ModuleHeader{ModuleName: name, ModuleType: kind},
			PcdCoded: pcds,
		},
	}
	p.Modules = append(p.Modules, m)
	return m
}

func buildData(item pcd.ItemType, cName string, datumType pcd.DatumType, value *string) surfacearea.PcdBuildData {
	return surfacearea.PcdBuildData{
		ItemType:            item,
		CName:               cName,
		TokenSpaceGuidCName: tsCName,
		DatumType:           datumType,
		DefaultValue:        value,
	}
}

func moduleSA(pkg, name string, libs ...surfacearea.LibraryInstance) surfacearea.ModuleSA {
	return surfacearea.ModuleSA{ModuleName: name, PackageName: pkg, Arch: "IA32", Libraries: libs}
}

func newWorkspace(t *testing.T, fpd *surfacearea.PlatformSurfaceArea, pkgs ...*surfacearea.Package) *surfacearea.Workspace {
	ws, err := surfacearea.NewWorkspace(fpd, pkgs...)
	require.NoError(t, err)
	return ws
}

func quietLogger() (log.Logger, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return log.Wrap(l), hook
}

func collect(t *testing.T, ws Workspace) (*pcd.Database, *logtest.Hook, error) {
	l, hook := quietLogger()
	db := pcd.NewDatabase()
	err := New(db, ws, WithLogger(l)).Collect()
	return db, hook, err
}

func token(t *testing.T, db *pcd.Database, cName string) *pcd.Token {
	tok, err := db.Token(pcd.Key(cName, tsGUID, guid.Nil))
	require.NoError(t, err)
	return tok
}

func warnings(hook *logtest.Hook) []string {
	var result []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			result = append(result, e.Message)
		}
	}
	return result
}

func TestCollectWorkspace(t *testing.T) {
	ws, err := surfacearea.LoadWorkspace(filepath.Join("..", "..", "surfacearea", "testdata", "workspace"),
		filepath.Join("EdkNt32Pkg", "Nt32.fpd"))
	require.NoError(t, err)

	db, _, err := collect(t, ws)
	require.NoError(t, err)
	require.Equal(t, 4, db.Len())

	edkSpace, ok := ws.TokenSpaceGUID("gEfiEdkModulePkgTokenSpaceGuid")
	require.True(t, ok)
	maxVar, err := db.Token(pcd.Key("PcdMaxVar", edkSpace, guid.Nil))
	require.NoError(t, err)
	assert.Equal(t, "100", maxVar.Datum)
	assert.Equal(t, pcd.DatumUint32, maxVar.DatumType)
	assert.Equal(t, uint32(4), maxVar.MaxDatumSize)
	assert.Equal(t, uint32(0x10001), maxVar.TokenNumber)
	usages := maxVar.UsageInstances()
	require.Len(t, usages, 1)
	assert.Equal(t, "PeiMain", usages[0].Module.Name)
	assert.Equal(t, pcd.UsageAlwaysConsumed, usages[0].Usage)
	assert.Equal(t, pcd.PhasePEI, usages[0].Phase)
	assert.Equal(t, "100", usages[0].DefaultValueInSPD)

	str, err := db.Token(pcd.Key("PcdPlatformString", edkSpace, guid.Nil))
	require.NoError(t, err)
	assert.Equal(t, `L"Nt32"`, str.Datum)
	assert.Equal(t, uint32(16), str.MaxDatumSize)

	mdeSpace, _ := ws.TokenSpaceGUID("gEfiMdePkgTokenSpaceGuid")
	strLen, err := db.Token(pcd.Key("PcdMaximumUnicodeStringLength", mdeSpace, guid.Nil))
	require.NoError(t, err)
	assert.Equal(t, "1000000", strLen.Datum)
	usages = strLen.UsageInstances()
	require.Len(t, usages, 2)
	assert.Equal(t, pcd.ModuleID{Package: "EdkModulePkg", Name: "PeiMain", Arch: "IA32"}, usages[0].Module)
	assert.True(t, usages[0].IsLibraryInherited)
	assert.Equal(t, "BaseLib", usages[0].Library.Name)
	assert.Equal(t, pcd.ComponentPeiCore, usages[0].ComponentType)
	assert.Equal(t, pcd.ModuleID{Package: "MdePkg", Name: "BaseLib", Arch: "IA32"}, usages[1].Module)
	assert.False(t, usages[1].IsLibraryInherited)
	assert.Equal(t, pcd.ComponentLibrary, usages[1].ComponentType)
	assert.Equal(t, pcd.PhasePEI, usages[1].Phase)
}

func TestCollectPlatformOnly(t *testing.T) {
	fpd := &surfacearea.PlatformSurfaceArea{
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint16, strp("5")),
		},
	}
	db, _, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
	require.NoError(t, err)

	tok := token(t, db, "PcdA")
	assert.Equal(t, "5", tok.Datum)
	assert.Equal(t, uint32(2), tok.MaxDatumSize)
	assert.Empty(t, tok.UsageInstances())
	assert.Equal(t, "FPD", tok.Modules())
}

func TestCollectUndeclaredToken(t *testing.T) {
	pkg := testPackage("TestPkg")
	addModule(pkg, "ModA", pcd.ComponentPeim,
		surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdB"})
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA")},
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
		},
	}

	l, _ := quietLogger()
	db := pcd.NewDatabase()
	existing := pcd.NewToken("PcdExisting", tsCName, tsGUID)
	require.NoError(t, db.AddToken(existing.PrimaryKey(), existing))

	err := New(db, newWorkspace(t, fpd, pkg), WithLogger(l)).Collect()
	var undeclared *pcd.ErrUndeclaredToken
	require.ErrorAs(t, err, &undeclared)
	assert.Equal(t, "PcdB", undeclared.CName)
	assert.Equal(t, "ModA", undeclared.Module.Name)
	assert.Contains(t, err.Error(), "does not exist in FPD file")
	assert.Equal(t, pcd.KindCollection, pcd.KindOf(err))

	require.Equal(t, 1, db.Len())
	assert.False(t, db.HasToken(pcd.Key("PcdA", tsGUID, guid.Nil)))
}

func TestCollectDatumPrecedence(t *testing.T) {
	for _, tc := range []struct {
		name     string
		platform *string
		module   *string
		pkg      *string
		want     string
	}{
		{name: "platform wins", platform: strp("1"), module: strp("2"), pkg: strp("3"), want: "1"},
		{name: "module before package", module: strp("2"), pkg: strp("3"), want: "2"},
		{name: "package fallback", pkg: strp("3"), want: "3"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pkg := testPackage("TestPkg", surfacearea.PcdDeclaration{
				CName: "PcdA", Token: "0x10", DatumType: pcd.DatumUint32, DefaultValue: tc.pkg,
			})
			addModule(pkg, "ModA", pcd.ComponentDxeDriver, surfacearea.PcdCoded{
				ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA", DefaultValue: tc.module,
			})
			fpd := &surfacearea.PlatformSurfaceArea{
				Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA")},
				PcdBuildDeclarations: []surfacearea.PcdBuildData{
					buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint32, tc.platform),
				},
			}
			db, _, err := collect(t, newWorkspace(t, fpd, pkg))
			require.NoError(t, err)

			tok := token(t, db, "PcdA")
			assert.Equal(t, tc.want, tok.Datum)
			assert.Equal(t, uint32(0x10), tok.TokenNumber)
			u := tok.UsageInstance(pcd.ModuleID{Package: "TestPkg", Name: "ModA", Arch: "IA32"})
			require.NotNil(t, u)
			assert.Equal(t, pcd.PhaseDXE, u.Phase)
		})
	}
}

func TestCollectPackageFallbackByTokenSpace(t *testing.T) {
	owner := testPackage("OwnerPkg")
	addModule(owner, "ModA", pcd.ComponentPeim,
		surfacearea.PcdCoded{ItemType: pcd.ItemDynamic, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA"})
	declaring := testPackage("DeclPkg", surfacearea.PcdDeclaration{
		CName: "PcdA", DatumType: pcd.DatumUint8, DefaultValue: strp("0x7"),
	})
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("OwnerPkg", "ModA")},
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemDynamic, "PcdA", pcd.DatumUint8, nil),
		},
	}
	db, _, err := collect(t, newWorkspace(t, fpd, owner, declaring))
	require.NoError(t, err)

	tok := token(t, db, "PcdA")
	assert.Equal(t, "0x7", tok.Datum)
	assert.Equal(t, "SPD DeclPkg", tok.Package.Source)
}

func TestCollectTypeConflict(t *testing.T) {
	pkg := testPackage("TestPkg", surfacearea.PcdDeclaration{
		CName: "PcdA", DatumType: pcd.DatumUint16, DefaultValue: strp("1"),
	})
	addModule(pkg, "ModA", pcd.ComponentPeim,
		surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA"})
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA")},
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
		},
	}
	db, _, err := collect(t, newWorkspace(t, fpd, pkg))
	var conflict *pcd.ErrTypeConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, pcd.DatumUint8, conflict.TypeA)
	assert.Equal(t, pcd.DatumUint16, conflict.TypeB)
	assert.Equal(t, "PcdA", conflict.CName)
	assert.Equal(t, pcd.KindValidation, pcd.KindOf(err))
	assert.Equal(t, 0, db.Len())
}

func TestCollectMissingDatum(t *testing.T) {
	fpd := &surfacearea.PlatformSurfaceArea{
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, nil),
		},
	}
	db, _, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
	var missing *pcd.ErrMissingDatum
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, err.Error(), "no datum available from FPD, MSA, or SPD")
	assert.Equal(t, 0, db.Len())
}

func TestCollectDuplicateDeclarations(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		fpd := &surfacearea.PlatformSurfaceArea{
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
				buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
			},
		}
		db, hook, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
		require.NoError(t, err)
		assert.Equal(t, 1, db.Len())
		require.Len(t, warnings(hook), 1)
		assert.Contains(t, warnings(hook)[0], "declared twice")
	})
	t.Run("conflicting", func(t *testing.T) {
		fpd := &surfacearea.PlatformSurfaceArea{
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
				buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("2")),
			},
		}
		db, _, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
		var dup *pcd.ErrDuplicateToken
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, 0, db.Len())
	})
}

func unknownSpace(decl surfacearea.PcdBuildData, tokenSpace string) surfacearea.PcdBuildData {
	decl.TokenSpaceGuidCName = tokenSpace
	return decl
}

func TestCollectUnresolvedTokenSpace(t *testing.T) {
	t.Run("warned once", func(t *testing.T) {
		fpd := &surfacearea.PlatformSurfaceArea{
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				unknownSpace(buildData(pcd.ItemFixedAtBuild, "PcdX", pcd.DatumUint8, strp("1")), "gUnknownA"),
				unknownSpace(buildData(pcd.ItemFixedAtBuild, "PcdY", pcd.DatumUint8, strp("2")), "gUnknownA"),
			},
		}
		db, hook, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
		require.NoError(t, err)
		assert.Equal(t, 2, db.Len())
		require.Len(t, warnings(hook), 1)
		assert.Contains(t, warnings(hook)[0], "token space gUnknownA is not declared by any package")
	})
	t.Run("same C name in two spaces", func(t *testing.T) {
		fpd := &surfacearea.PlatformSurfaceArea{
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				unknownSpace(buildData(pcd.ItemFixedAtBuild, "PcdX", pcd.DatumUint8, strp("1")), "gUnknownA"),
				unknownSpace(buildData(pcd.ItemFixedAtBuild, "PcdX", pcd.DatumUint8, strp("1")), "gUnknownB"),
			},
		}
		db, hook, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
		var dup *pcd.ErrDuplicateToken
		require.ErrorAs(t, err, &dup)
		assert.Contains(t, dup.Reason, "gUnknownA and gUnknownB")
		assert.Equal(t, 0, db.Len())
		for _, w := range warnings(hook) {
			assert.NotContains(t, w, "declared twice")
		}
	})
	t.Run("module bound across spaces", func(t *testing.T) {
		pkg := testPackage("TestPkg")
		addModule(pkg, "ModA", pcd.ComponentPeim, surfacearea.PcdCoded{
			ItemType:            pcd.ItemFixedAtBuild,
			Usage:               pcd.UsageAlwaysConsumed,
			CName:               "PcdX",
			TokenSpaceGuidCName: "gUnknownB",
		})
		fpd := &surfacearea.PlatformSurfaceArea{
			Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA")},
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				unknownSpace(buildData(pcd.ItemFixedAtBuild, "PcdX", pcd.DatumUint8, strp("1")), "gUnknownA"),
			},
		}
		db, _, err := collect(t, newWorkspace(t, fpd, pkg))
		var undeclared *pcd.ErrUndeclaredToken
		require.ErrorAs(t, err, &undeclared)
		assert.Equal(t, "gUnknownB", undeclared.TokenSpace)
		assert.Equal(t, 0, db.Len())
	})
}

func TestCollectIdempotentBinding(t *testing.T) {
	pkg := testPackage("TestPkg")
	addModule(pkg, "ModA", pcd.ComponentPeim,
		surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageSometimesConsumed, CName: "PcdA"},
		surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA"})
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA"), moduleSA("TestPkg", "ModA")},
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
		},
	}
	db, _, err := collect(t, newWorkspace(t, fpd, pkg))
	require.NoError(t, err)

	usages := token(t, db, "PcdA").UsageInstances()
	require.Len(t, usages, 1)
	assert.Equal(t, pcd.UsageAlwaysConsumed, usages[0].Usage)
}

func TestCollectLibraryUsage(t *testing.T) {
	newPkg := func(consumerUsage pcd.Usage) *surfacearea.Package {
		pkg := testPackage("TestPkg")
		lib := addModule(pkg, "FooLib", pcd.ComponentLibrary,
			surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA"})
		lib.MSA.LibraryClasses = []surfacearea.LibraryClass{{Usage: pcd.UsageAlwaysProduced, Keyword: "FooLib"}}
		mod := addModule(pkg, "ModA", pcd.ComponentDxeDriver)
		mod.MSA.LibraryClasses = []surfacearea.LibraryClass{{Usage: consumerUsage, Keyword: "FooLib"}}
		return pkg
	}
	fpd := func() *surfacearea.PlatformSurfaceArea {
		return &surfacearea.PlatformSurfaceArea{
			Modules: []surfacearea.ModuleSA{
				moduleSA("TestPkg", "ModA", surfacearea.LibraryInstance{ModuleName: "FooLib", PackageName: "TestPkg"}),
			},
			PcdBuildDeclarations: []surfacearea.PcdBuildData{
				buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
			},
		}
	}

	db, _, err := collect(t, newWorkspace(t, fpd(), newPkg(pcd.UsageAlwaysConsumed)))
	require.NoError(t, err)
	usages := token(t, db, "PcdA").UsageInstances()
	require.Len(t, usages, 2)
	assert.Equal(t, "ModA", usages[0].Module.Name)
	assert.True(t, usages[0].IsLibraryInherited)
	assert.Equal(t, "FooLib", usages[0].Library.Name)
	assert.Equal(t, "FooLib", usages[1].Module.Name)
	assert.Equal(t, pcd.PhaseDXE, usages[1].Phase)

	db, _, err = collect(t, newWorkspace(t, fpd(), newPkg(pcd.UsageSometimesConsumed)))
	require.NoError(t, err)
	assert.Empty(t, token(t, db, "PcdA").UsageInstances())
}

func TestCollectMalformedNumber(t *testing.T) {
	data := buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1"))
	data.Token = "0xZZ"
	fpd := &surfacearea.PlatformSurfaceArea{PcdBuildDeclarations: []surfacearea.PcdBuildData{data}}

	_, _, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
	var bad *pcd.ErrDatumValue
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "PcdA", bad.CName)
	assert.Equal(t, "0xZZ", bad.Value)
}

func TestCollectUnknownModule(t *testing.T) {
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "Missing")},
	}
	_, _, err := collect(t, newWorkspace(t, fpd, testPackage("TestPkg")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestCollectArchFilter(t *testing.T) {
	pkg := testPackage("TestPkg")
	addModule(pkg, "ModA", pcd.ComponentPeim,
		surfacearea.PcdCoded{ItemType: pcd.ItemFixedAtBuild, Usage: pcd.UsageAlwaysConsumed, CName: "PcdA"})
	x64 := moduleSA("TestPkg", "ModA")
	x64.Arch = "X64"
	fpd := &surfacearea.PlatformSurfaceArea{
		Modules: []surfacearea.ModuleSA{moduleSA("TestPkg", "ModA"), x64},
		PcdBuildDeclarations: []surfacearea.PcdBuildData{
			buildData(pcd.ItemFixedAtBuild, "PcdA", pcd.DatumUint8, strp("1")),
		},
	}

	l, _ := quietLogger()
	db := pcd.NewDatabase()
	require.NoError(t, New(db, newWorkspace(t, fpd, pkg), WithLogger(l), WithArch("X64")).Collect())
	usages := token(t, db, "PcdA").UsageInstances()
	require.Len(t, usages, 1)
	assert.Equal(t, "X64", usages[0].Module.Arch)
}
