// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surfacearea

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/linuxboot/pcdbuild/pkg/guid"
)

// FrameworkDatabasePath is the workspace-relative path of the package
// index.
var FrameworkDatabasePath = filepath.Join("Tools", "Conf", "FrameworkDatabase.db")

// FrameworkDatabase lists the packages of a workspace.
type FrameworkDatabase struct {
	XMLName  xml.Name `xml:"FrameworkDatabase"`
	Packages []string `xml:"PackageList>Filename"`
}

// Package is a loaded SPD together with the modules it contains.
type Package struct {
	Path    string
	SPD     *PackageSurfaceArea
	Modules []*Module
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.SPD.Header.PackageName
}

// Module returns the module called name, or nil.
func (p *Package) Module(name string) *Module {
	for _, m := range p.Modules {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// PcdDeclaration returns the declaration of cName, or nil.
func (p *Package) PcdDeclaration(cName string) *PcdDeclaration {
	for idx := range p.SPD.PcdDeclarations {
		if p.SPD.PcdDeclarations[idx].CName == cName {
			return &p.SPD.PcdDeclarations[idx]
		}
	}
	return nil
}

// Module is a loaded MSA.
type Module struct {
	Path    string
	MSA     *ModuleSurfaceArea
	Package *Package
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.MSA.Header.ModuleName
}

// Workspace is the set of documents one platform build reads.
type Workspace struct {
	Root     string
	platform *PlatformSurfaceArea
	packages []*Package
	guids    map[string]guid.GUID
}

// NewWorkspace assembles a workspace from already decoded documents.
// GUID C names declared by more than one package must agree.
func NewWorkspace(platform *PlatformSurfaceArea, packages ...*Package) (*Workspace, error) {
	w := &Workspace{
		platform: platform,
		guids:    make(map[string]guid.GUID),
	}
	names := make(map[string]bool)
	for _, p := range packages {
		if p.SPD == nil {
			return nil, fmt.Errorf("package at '%s' has no surface area", p.Path)
		}
		if names[p.Name()] {
			return nil, fmt.Errorf("package %s is listed twice", p.Name())
		}
		names[p.Name()] = true
		for _, m := range p.Modules {
			m.Package = p
		}
		for _, decl := range p.SPD.GuidDeclarations {
			if prev, ok := w.guids[decl.CName]; ok && prev != decl.GUID {
				return nil, fmt.Errorf("GUID %s is declared as %s and as %s (package %s)",
					decl.CName, prev, decl.GUID, p.Name())
			}
			w.guids[decl.CName] = decl.GUID
		}
		w.packages = append(w.packages, p)
	}
	return w, nil
}

// LoadWorkspace reads the package index under root, every package and
// module it lists, and the FPD at fpdPath (relative to root unless
// absolute).
func LoadWorkspace(root, fpdPath string) (*Workspace, error) {
	var fdb FrameworkDatabase
	if err := decodeFile(filepath.Join(root, FrameworkDatabasePath), &fdb); err != nil {
		return nil, fmt.Errorf("unable to read the framework database: %w", err)
	}

	var packages []*Package
	for _, rel := range fdb.Packages {
		spdPath := filepath.Join(root, rel)
		spd, err := ReadPackage(spdPath)
		if err != nil {
			return nil, err
		}
		p := &Package{Path: spdPath, SPD: spd}
		for _, msaRel := range spd.MsaFiles {
			msaPath := filepath.Join(filepath.Dir(spdPath), msaRel)
			msa, err := ReadModule(msaPath)
			if err != nil {
				return nil, err
			}
			p.Modules = append(p.Modules, &Module{Path: msaPath, MSA: msa})
		}
		packages = append(packages, p)
	}

	if !filepath.IsAbs(fpdPath) {
		fpdPath = filepath.Join(root, fpdPath)
	}
	platform, err := ReadPlatform(fpdPath)
	if err != nil {
		return nil, err
	}

	w, err := NewWorkspace(platform, packages...)
	if err != nil {
		return nil, err
	}
	w.Root = root
	return w, nil
}

// Platform returns the FPD of the build.
func (w *Workspace) Platform() *PlatformSurfaceArea {
	return w.platform
}

// Packages returns all packages in index order.
func (w *Workspace) Packages() []*Package {
	return append([]*Package(nil), w.packages...)
}

// Package returns the package called name.
func (w *Workspace) Package(name string) (*Package, error) {
	for _, p := range w.packages {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("package %s is not in the workspace", name)
}

// Module returns module name of package pkg.
func (w *Workspace) Module(pkg, name string) (*Module, error) {
	p, err := w.Package(pkg)
	if err != nil {
		return nil, err
	}
	m := p.Module(name)
	if m == nil {
		return nil, fmt.Errorf("module %s is not in package %s", name, pkg)
	}
	return m, nil
}

// TokenSpaceGUID resolves a GUID C name through the GUID declarations of
// every package.
func (w *Workspace) TokenSpaceGUID(cName string) (guid.GUID, bool) {
	g, ok := w.guids[cName]
	return g, ok
}
