// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/pkg/pcd"
	"github.com/linuxboot/pcdbuild/pkg/pcddb"
)

var _ commands.Command = (*Command)(nil)

// Command checks a single datum against a datum type and size.
type Command struct {
	DatumType string `short:"t" long:"type" description:"datum type [UINT8, UINT16, UINT32, UINT64, BOOLEAN, VOID*]" required:"true"`
	Size      uint32 `short:"s" long:"size" description:"MaxDatumSize (default the width of scalar types)"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "checks that a value literal fits a datum type"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Validates VALUE the way the build does for a PCD of the given type and
MaxDatumSize, and prints the bytes it encodes to.

Synopsis:
    pcdtool verify -t TYPE [-s SIZE] VALUE`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 1 {
		return commands.ErrArgs{Err: fmt.Errorf("exactly one VALUE is expected, got %d", len(args))}
	}
	return cmd.Run(os.Stdout, args[0])
}

// Run validates value and prints its encoding to w.
func (cmd *Command) Run(w io.Writer, value string) error {
	t, err := pcd.ParseDatumType(cmd.DatumType)
	if err != nil {
		return commands.ErrArgs{Err: err}
	}
	size := cmd.Size
	if size == 0 && t.IsScalar() {
		size = t.Size()
	}
	datum, err := pcd.DecodeDatum(t, size, value)
	if err != nil {
		return err
	}
	encoded := datum.Encode(t.Size())
	_, err = fmt.Fprintf(w, "%s literal, %d of %d bytes: %s\n",
		datum.Kind, len(encoded), size, pcddb.FormatValue(t, encoded))
	return err
}
