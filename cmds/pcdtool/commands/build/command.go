// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	stdbytes "bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/pkg/pcd/preprocess"
	"github.com/linuxboot/pcdbuild/pkg/pcddb"
)

// Output file names.
const (
	HeaderFile = "PcdDatabase.h"
	SourceFile = "PcdDatabase.c"
	PeiFile    = "PeiPcdDb.bin"
	DxeFile    = "DxePcdDb.bin"
)

var _ commands.Command = (*Command)(nil)

// Command builds the PCD database of a platform.
type Command struct {
	commands.WorkspaceFlags
	OutDir  string `short:"o" long:"out" description:"output directory" required:"true"`
	Lenient bool   `long:"lenient" description:"allow dynamic PCDs no module consumes"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "builds the PEI and DXE PCD databases of a platform"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Collects the PCDs of the platform, validates them and writes
PcdDatabase.h, PcdDatabase.c, PeiPcdDb.bin and DxePcdDb.bin to the output
directory. Nothing is written if any step fails.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	session, err := cmd.WorkspaceFlags.Collect()
	if err != nil {
		return err
	}

	newAction := preprocess.NewForBuilding
	if cmd.Lenient {
		newAction = preprocess.New
	}
	res, err := newAction(session.DB, session.Workspace.Platform(), preprocess.WithLogger(session.Logger)).Run()
	if err != nil {
		return fmt.Errorf("PCD validation failed: %w", err)
	}

	pair, err := pcddb.Build(res.Pei, res.Dxe)
	if err != nil {
		return err
	}

	var header, source stdbytes.Buffer
	if err := pcddb.WriteHeader(&header, pair); err != nil {
		return err
	}
	if err := pcddb.WriteSource(&source, pair); err != nil {
		return err
	}

	if err := os.MkdirAll(cmd.OutDir, 0755); err != nil {
		return fmt.Errorf("unable to create the output directory '%s': %w", cmd.OutDir, err)
	}
	outputs := []struct {
		name string
		data []byte
	}{
		{HeaderFile, header.Bytes()},
		{SourceFile, source.Bytes()},
		{PeiFile, pair.Pei.Bytes},
		{DxeFile, pair.Dxe.Bytes},
	}
	for _, out := range outputs {
		path := filepath.Join(cmd.OutDir, out.name)
		if err := os.WriteFile(path, out.data, 0644); err != nil {
			return fmt.Errorf("unable to write '%s': %w", path, err)
		}
	}

	session.Logger.Infof("PEI database: %d tokens, %s", len(pair.Pei.Layout), humanize.IBytes(uint64(len(pair.Pei.Bytes))))
	session.Logger.Infof("DXE database: %d tokens, %s", len(pair.Dxe.Layout), humanize.IBytes(uint64(len(pair.Dxe.Bytes))))
	return nil
}
