// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pcdinfo prints a summary of PEI and DXE PCD database images.
//
// Synopsis:
//     pcdinfo [--tokens] FILE...
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	flag "github.com/spf13/pflag"

	"github.com/linuxboot/pcdbuild/pkg/pcddb"
)

var tokens = flag.BoolP("tokens", "t", false, "also list the tokens of every image")

func main() {
	flag.Parse()

	a := flag.Args()
	if len(a) == 0 {
		log.Fatal("Usage: pcdinfo [--tokens] <pcd-db-file>...")
	}
	if err := summarize(os.Stdout, a, *tokens); err != nil {
		log.Fatal(err)
	}
}

func summarize(w io.Writer, files []string, withTokens bool) error {
	images := make([]*pcddb.Decoded, 0, len(files))
	for _, path := range files {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		d, err := pcddb.Decode(b)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		images = append(images, d)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("PCD databases")
	t.AppendHeader(table.Row{"File", "Phase", "Size", "Tokens", "Token base", "Blob", "HII", "SKU"})
	for idx, d := range images {
		var hii, sku int
		for _, r := range d.Records {
			if r.Flags&pcddb.FlagHii != 0 {
				hii++
			}
			if r.Flags&pcddb.FlagSku != 0 {
				sku++
			}
		}
		t.AppendRow(table.Row{
			filepath.Base(files[idx]),
			d.Phase,
			humanize.IBytes(uint64(d.Length)),
			len(d.Records),
			d.Header.TokenBase,
			humanize.IBytes(uint64(d.Header.BlobSize)),
			hii,
			sku,
		})
	}
	t.Render()

	if !withTokens {
		return nil
	}
	for idx, d := range images {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("%s (%s)", filepath.Base(files[idx]), d.Phase)
		t.AppendHeader(table.Row{"Token", "Type", "Flags", "Size", "Value"})
		for _, r := range d.Records {
			t.AppendRow(table.Row{r.TokenNumber, r.DatumType, r.Flags, r.DatumSize, r.Text})
		}
		t.Render()
	}
	return nil
}
