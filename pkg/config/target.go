// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads the workspace build configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// TargetPath is the workspace-relative path of the build target file.
var TargetPath = filepath.Join("Tools", "Conf", "target.txt")

// WorkspaceEnv names the environment variable holding the workspace root.
const WorkspaceEnv = "WORKSPACE"

// Target is the content of target.txt.
type Target struct {
	// ActivePlatform is the FPD to build, relative to the workspace.
	ActivePlatform string
	// TargetArch lists the architectures to build for.
	TargetArch []string
	// LogLevel is a logrus level name.
	LogLevel string
}

// ReadTarget reads target.txt under root. A missing file yields an empty
// Target.
func ReadTarget(root string) (*Target, error) {
	path := filepath.Join(root, TargetPath)
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Target{}, nil
		}
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	return &Target{
		ActivePlatform: values["ACTIVE_PLATFORM"],
		TargetArch:     strings.Fields(values["TARGET_ARCH"]),
		LogLevel:       values["LOG_LEVEL"],
	}, nil
}

// Settings are the effective options of one build.
type Settings struct {
	Workspace string
	Platform  string
	Arch      string
	LogLevel  string
}

// Resolve fills the empty fields of s from the WORKSPACE environment
// variable and target.txt. Explicit values always win.
func (s Settings) Resolve() (Settings, error) {
	if s.Workspace == "" {
		s.Workspace = os.Getenv(WorkspaceEnv)
	}
	if s.Workspace == "" {
		return s, fmt.Errorf("workspace is not set: use --workspace or $%s", WorkspaceEnv)
	}
	target, err := ReadTarget(s.Workspace)
	if err != nil {
		return s, err
	}
	if s.Platform == "" {
		s.Platform = target.ActivePlatform
	}
	if s.Platform == "" {
		return s, fmt.Errorf("platform is not set: use --platform or ACTIVE_PLATFORM in %s", TargetPath)
	}
	if s.Arch == "" && len(target.TargetArch) > 0 {
		s.Arch = target.TargetArch[0]
	}
	if s.LogLevel == "" {
		s.LogLevel = target.LogLevel
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s, nil
}
