// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package show

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/transform"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/pkg/guidname"
	"github.com/linuxboot/pcdbuild/pkg/pcddb"
)

var _ commands.Command = (*Command)(nil)

// Command decodes and prints a PCD database image.
type Command struct {
	File   string  `short:"f" long:"file" description:"PEI or DXE database image" required:"true"`
	Format *string `long:"format" description:"output format [text, json]"`
	Names  bool    `short:"n" long:"guid-names" description:"print well-known GUIDs by their C name (text format only)"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the tokens of a PCD database image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Decodes a PeiPcdDb.bin or DxePcdDb.bin image, validates its layout
and prints every token with its value, HII variable and SKU values.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	format, err := commands.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("unable to read '%s': %w", cmd.File, err)
	}
	decoded, err := pcddb.Decode(b)
	if err != nil {
		return fmt.Errorf("unable to decode '%s': %w", cmd.File, err)
	}
	var names guidname.Names
	if cmd.Names {
		names = guidname.Known
	}
	return Render(os.Stdout, decoded, format, names)
}

// Render prints decoded in the given format. The text format prints the
// GUIDs found in names by their C name.
func Render(w io.Writer, decoded *pcddb.Decoded, format commands.Format, names guidname.Names) error {
	switch format {
	case commands.FormatJSON:
		b, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to serialize to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case commands.FormatText:
		t := commands.NewTable(w)
		t.SetTitle("%s PCD database, %s, %d tokens",
			decoded.Phase, humanize.IBytes(uint64(decoded.Length)), len(decoded.Records))
		t.AppendHeader(table.Row{"#", "Token", "Type", "Flags", "Size", "Value", "Variable", "SKUs"})
		for idx, r := range decoded.Records {
			t.AppendRow(table.Row{
				idx,
				fmt.Sprintf("0x%X", r.TokenNumber),
				r.DatumType,
				r.Flags,
				r.DatumSize,
				r.Text,
				variable(r, names),
				skus(r),
			})
		}
		t.Render()
		return nil
	}
	return fmt.Errorf("format %d is not supported", format)
}

func variable(r pcddb.Record, names guidname.Names) string {
	if r.VariableGUID == nil {
		return ""
	}
	s := fmt.Sprintf("%s:%s+0x%X", r.VariableGUID, r.VariableName, r.VariableOffset)
	if names == nil {
		return s
	}
	named, _, err := transform.String(names.Transformer(), s)
	if err != nil {
		return s
	}
	return named
}

func skus(r pcddb.Record) string {
	if len(r.Skus) == 0 {
		return ""
	}
	s := fmt.Sprintf("id %d of %d:", r.SkuID, r.MaxSkuCount)
	for _, sku := range r.Skus {
		s += fmt.Sprintf(" %d=%s", sku.ID, sku.Text)
	}
	return s
}
