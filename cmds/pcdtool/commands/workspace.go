// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/linuxboot/pcdbuild/pkg/config"
	"github.com/linuxboot/pcdbuild/pkg/log"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/linuxboot/pcdbuild/pkg/pcd/collect"
	"github.com/linuxboot/pcdbuild/pkg/surfacearea"
)

// WorkspaceFlags select the workspace and platform a command works on.
// Unset values come from $WORKSPACE and Tools/Conf/target.txt.
type WorkspaceFlags struct {
	Workspace string `short:"w" long:"workspace" description:"workspace root (default $WORKSPACE)"`
	Platform  string `short:"p" long:"platform" description:"FPD path relative to the workspace (default ACTIVE_PLATFORM of target.txt)"`
	Arch      string `short:"a" long:"arch" description:"only collect modules built for this architecture (default first TARGET_ARCH of target.txt)"`
	LogLevel  string `long:"log-level" description:"log level [debug, info, warn, error]"`
}

// Session is a loaded workspace with its collected PCD database.
type Session struct {
	Settings  config.Settings
	Workspace *surfacearea.Workspace
	DB        *pcd.Database
	Logger    log.Logger
}

// Collect loads the workspace and runs the collection pass.
func (f WorkspaceFlags) Collect() (*Session, error) {
	settings, err := config.Settings{
		Workspace: f.Workspace,
		Platform:  f.Platform,
		Arch:      f.Arch,
		LogLevel:  f.LogLevel,
	}.Resolve()
	if err != nil {
		return nil, ErrArgs{Err: err}
	}
	logger := log.New(settings.LogLevel)
	log.DefaultLogger = logger

	ws, err := surfacearea.LoadWorkspace(settings.Workspace, settings.Platform)
	if err != nil {
		return nil, fmt.Errorf("unable to load workspace '%s': %w", settings.Workspace, err)
	}
	db := pcd.NewDatabase()
	err = collect.New(db, ws, collect.WithLogger(logger), collect.WithArch(settings.Arch)).Collect()
	if err != nil {
		return nil, fmt.Errorf("unable to collect PCDs of '%s': %w", settings.Platform, err)
	}
	logger.Debugf("collected %d PCDs from %s", db.Len(), settings.Platform)
	return &Session{Settings: settings, Workspace: ws, DB: db, Logger: logger}, nil
}

// Format is an output format of the show-like commands.
type Format int

// Formats.
const (
	FormatUndefined = Format(iota)
	FormatText
	FormatJSON
)

// ParseFormat parses a --format value. A nil value means text.
func ParseFormat(s *string) (Format, error) {
	if s == nil {
		return FormatText, nil
	}
	switch strings.Trim(strings.ToLower(*s), " ") {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatUndefined, ErrArgs{Err: fmt.Errorf("unknown format '%s'", *s)}
}

// NewTable returns a table writer rendering to w, with box drawing when w
// is a terminal.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.SetStyle(table.StyleLight)
	}
	return t
}
