// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcddb

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/fatih/camelcase"

	"github.com/linuxboot/pcdbuild/pkg/bytes"
)

const headerTemplate = `/* Generated by pcdtool. DO NOT EDIT. */

#ifndef _PCD_DATABASE_H_
#define _PCD_DATABASE_H_

#define PEI_PCD_DATABASE_SIZE {{len .Pei.Bytes}}U
#define DXE_PCD_DATABASE_SIZE {{len .Dxe.Bytes}}U

#define PEI_LOCAL_TOKEN_NUMBER {{len .Pei.Layout}}U
#define DXE_LOCAL_TOKEN_NUMBER {{len .Dxe.Layout}}U
#define PCD_TOTAL_TOKEN_NUMBER {{add (len .Pei.Layout) (len .Dxe.Layout)}}U
{{range $img := images .Pair}}
/* {{$img.Phase}} tokens */
{{- range $img.Layout}}
#define {{$.TokenMacro .}} {{.TokenNumber}}U
#define {{$.SizeMacro .}} {{.DatumSize}}U
{{- if .VariableGUID}}
#define {{$.VariableGUIDMacro .}} {{.VariableGUID.CInitializer}}
{{- end}}
{{- end}}
{{end}}
extern UINT8 mPeiPcdDbInit[PEI_PCD_DATABASE_SIZE];
extern UINT8 mDxePcdDbInit[DXE_PCD_DATABASE_SIZE];

#endif
`

const sourceTemplate = `/* Generated by pcdtool. DO NOT EDIT. */

#include "PcdDatabase.h"
{{range $img := images .}}
UINT8 m{{initName $img}}PcdDbInit[{{$img.Phase}}_PCD_DATABASE_SIZE] = {
{{- range sections $img}}
  /* {{.Comment}} */
{{- range .Lines}}
  {{.}}
{{- end}}
{{- end}}
};
{{end -}}
`

var templates = template.Must(template.New("pcddb").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"images": func(p *Pair) []*Image {
		return []*Image{p.Pei, p.Dxe}
	},
	"initName": func(img *Image) string {
		name := img.Phase.String()
		return name[:1] + strings.ToLower(name[1:])
	},
	"sections": sections,
}).Parse(`{{define "header"}}` + headerTemplate + `{{end}}{{define "source"}}` + sourceTemplate + `{{end}}`))

// SizeMacro returns the name of the size macro of a token, e.g.
// PCD_MAX_VAR_SIZE for PcdMaxVar.
func SizeMacro(cName string) string {
	words := camelcase.Split(cName)
	if len(words) > 1 && words[0] == "Pcd" {
		words = words[1:]
	}
	return "PCD_" + upperSnake(words) + "_SIZE"
}

func upperSnake(words []string) string {
	upper := make([]string, len(words))
	for idx, w := range words {
		upper[idx] = strings.ToUpper(w)
	}
	return strings.Join(upper, "_")
}

// header names the macros of a Pair. Tokens sharing a C name across token
// spaces get macros qualified by their token space.
type header struct {
	*Pair
	qualified map[string]bool
}

func newHeader(p *Pair) (*header, error) {
	spaces := make(map[string]map[string]bool)
	for _, img := range []*Image{p.Pei, p.Dxe} {
		for _, l := range img.Layout {
			if spaces[l.CName] == nil {
				spaces[l.CName] = make(map[string]bool)
			}
			spaces[l.CName][l.TokenSpace] = true
		}
	}
	h := &header{Pair: p, qualified: make(map[string]bool)}
	for cName, s := range spaces {
		if len(s) > 1 {
			h.qualified[cName] = true
		}
	}

	defined := make(map[string]string)
	for _, img := range []*Image{p.Pei, p.Dxe} {
		for _, l := range img.Layout {
			name := l.TokenSpace + "." + l.CName
			for _, macro := range []string{h.TokenMacro(l), h.SizeMacro(l)} {
				if prev, ok := defined[macro]; ok {
					return nil, &ErrDuplicateMacro{Macro: macro, A: prev, B: name}
				}
				defined[macro] = name
			}
		}
	}
	return h, nil
}

// TokenMacro returns the token number macro of l, e.g. _PCD_TOKEN_PcdMaxVar.
func (h *header) TokenMacro(l TokenLayout) string {
	return "_PCD_TOKEN_" + h.ident(l)
}

// SizeMacro returns the value size macro of l.
func (h *header) SizeMacro(l TokenLayout) string {
	if !h.qualified[l.CName] {
		return SizeMacro(l.CName)
	}
	return "PCD_" + upperSnake(camelcase.Split(l.TokenSpace)) + "_" + strings.TrimPrefix(SizeMacro(l.CName), "PCD_")
}

// VariableGUIDMacro returns the macro holding the HII variable GUID of l.
func (h *header) VariableGUIDMacro(l TokenLayout) string {
	return "_PCD_VARIABLE_GUID_" + h.ident(l)
}

func (h *header) ident(l TokenLayout) string {
	if h.qualified[l.CName] {
		return l.TokenSpace + "_" + l.CName
	}
	return l.CName
}

// WriteHeader writes the C header declaring the token numbers, value sizes,
// HII variable GUIDs and the two database arrays.
func WriteHeader(w io.Writer, p *Pair) error {
	h, err := newHeader(p)
	if err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(w, "header", h); err != nil {
		return fmt.Errorf("unable to render the header: %w", err)
	}
	return nil
}

// WriteSource writes the C source initializing the two database arrays.
func WriteSource(w io.Writer, p *Pair) error {
	if err := templates.ExecuteTemplate(w, "source", p); err != nil {
		return fmt.Errorf("unable to render the source: %w", err)
	}
	return nil
}

type section struct {
	Comment string
	Lines   []string
}

type labeledRange struct {
	bytes.Range
	label string
}

// sections splits an image into commented byte runs, in offset order.
func sections(img *Image) []section {
	parts := []labeledRange{{Range: bytes.Range{Length: HeaderSize}, label: "header"}}
	for _, l := range img.Layout {
		add := func(r bytes.Range, what string) {
			if r.Length > 0 {
				parts = append(parts, labeledRange{Range: r, label: l.CName + " " + what})
			}
		}
		add(l.Descriptor, "descriptor")
		add(l.Value, "value")
		add(l.VariableName, "variable name")
		for idx, r := range l.SkuValues {
			add(r, fmt.Sprintf("SKU value #%d", idx))
		}
		add(l.SkuTable, "SKU table")
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Offset < parts[j].Offset
	})

	var result []section
	var cur uint64
	for _, p := range parts {
		if p.Offset > cur {
			result = append(result, section{Comment: "padding", Lines: hexLines(img.Bytes[cur:p.Offset])})
		}
		result = append(result, section{Comment: p.label, Lines: hexLines(img.Bytes[p.Offset:p.End()])})
		cur = p.End()
	}
	if end := uint64(len(img.Bytes)); end > cur {
		result = append(result, section{Comment: "padding", Lines: hexLines(img.Bytes[cur:end])})
	}
	return result
}

func hexLines(b []byte) []string {
	const perLine = 16
	var lines []string
	for len(b) > 0 {
		n := perLine
		if len(b) < n {
			n = len(b)
		}
		var s strings.Builder
		for idx, v := range b[:n] {
			if idx > 0 {
				s.WriteByte(' ')
			}
			fmt.Fprintf(&s, "0x%02X,", v)
		}
		lines = append(lines, s.String())
		b = b[n:]
	}
	return lines
}
