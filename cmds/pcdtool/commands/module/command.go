// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package module

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
)

var _ commands.Command = (*Command)(nil)

// Command lists the PCDs a module is bound to.
type Command struct {
	commands.WorkspaceFlags
	Name string `short:"m" long:"module" description:"module base name" required:"true"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "lists the PCDs used by a module"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Collects the PCDs of the platform and prints every usage of the
given module, including the ones inherited from its library instances.`
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
	return Render(os.Stdout, session.DB, cmd.Name)
}

// Render prints the usages of module name found in db.
func Render(w io.Writer, db *pcd.Database, name string) error {
	usages := db.UsageInstancesByModuleName(name)
	if len(usages) == 0 {
		return fmt.Errorf("module '%s' uses no PCD of the platform", name)
	}
	t := commands.NewTable(w)
	t.SetTitle("PCDs of %s", name)
	t.AppendHeader(table.Row{"Module", "PCD", "Item type", "Usage", "Phase", "Datum", "Library"})
	for _, u := range usages {
		var library string
		if u.IsLibraryInherited {
			library = u.Library.String()
		}
		t.AppendRow(table.Row{u.Module, u.Token, u.ItemType, u.Usage, u.Phase, u.Token.Datum, library})
	}
	t.Render()
	return nil
}
