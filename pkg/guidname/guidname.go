// Copyright 2019-2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package guidname provides a transform.Transformer which replaces the
// GUIDs of a text stream with their C names, e.g. the HII variable GUIDs
// printed for a PCD database.
package guidname

import (
	"bytes"
	"regexp"
	"text/template"

	"golang.org/x/text/transform"

	"github.com/linuxboot/pcdbuild/pkg/guid"
	"github.com/linuxboot/pcdbuild/pkg/log"
)

// Names maps GUIDs to C names.
type Names map[guid.GUID]string

// Known holds the GUIDs a PCD database commonly refers to.
var Known = Names{
	guid.MustParse("8BE4DF61-93CA-11D2-AA0D-00E098032B8C"): "gEfiGlobalVariableGuid",
	guid.MustParse("7739F24C-93D7-11D4-9A3A-0090273FC14D"): "gEfiHobListGuid",
	guid.MustParse("06E81C58-4AD7-44BC-8390-F10265F72480"): "gPcdPpiGuid",
	guid.MustParse("11B34006-D85B-4D0A-A290-D5A571310EF7"): "gPcdProtocolGuid",
}

// Merge returns the union of n and others. Later maps win.
func (n Names) Merge(others ...Names) Names {
	result := make(Names, len(n))
	for g, name := range n {
		result[g] = name
	}
	for _, o := range others {
		for g, name := range o {
			result[g] = name
		}
	}
	return result
}

// DefaultTemplate prints the C name of known GUIDs and leaves the others
// untouched.
var DefaultTemplate = template.Must(template.New("guidname").Parse(
	"{{if .IsKnown}}{{.Name}}{{else}}{{.GUID}}{{end}}"))

var guidRegex = regexp.MustCompile(
	"[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}",
)

// partialRegex matches a tail that may be the start of a GUID.
var partialRegex = regexp.MustCompile(
	"[-a-fA-F0-9]{1,36}$",
)

// Mapper renders a GUID.
type Mapper interface {
	Map(guid.GUID) []byte
}

// TemplateMapper renders GUIDs with a text/template. The template sees
//   - {{.GUID}}: the GUID
//   - {{.Name}}: its C name, or "UNKNOWN"
//   - {{.IsKnown}}: whether the name is known
type TemplateMapper struct {
	tmpl  *template.Template
	names Names
}

// NewTemplateMapper returns a mapper looking names up in names.
func NewTemplateMapper(tmpl *template.Template, names Names) *TemplateMapper {
	return &TemplateMapper{tmpl: tmpl, names: names}
}

// Map implements Mapper.
func (m *TemplateMapper) Map(g guid.GUID) []byte {
	name, isKnown := m.names[g]
	if !isKnown {
		name = "UNKNOWN"
	}
	var b bytes.Buffer
	err := m.tmpl.Execute(&b, struct {
		GUID    guid.GUID
		Name    string
		IsKnown bool
	}{g, name, isKnown})
	if err != nil {
		// The stream must not be interrupted.
		log.Errorf("unable to render GUID %s: %v", g, err)
	}
	return b.Bytes()
}

// Transformer replaces every GUID of the stream by its Mapper rendering.
type Transformer struct {
	mapper Mapper
}

var _ transform.Transformer = (*Transformer)(nil)

// New returns a Transformer using m.
func New(m Mapper) *Transformer {
	return &Transformer{mapper: m}
}

// Transformer returns a Transformer rendering the GUIDs of n with
// DefaultTemplate.
func (n Names) Transformer() *Transformer {
	return New(NewTemplateMapper(DefaultTemplate, n))
}

func (t *Transformer) replace(match []byte) []byte {
	g, err := guid.Parse(string(match))
	if err != nil {
		return match
	}
	return t.mapper.Map(*g)
}

// Transform implements transform.Transformer.
func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if atEOF {
		replaced := guidRegex.ReplaceAllFunc(src, t.replace)
		if len(replaced) <= len(dst) {
			copy(dst, replaced)
			return len(replaced), len(src), nil
		}
		// dst is too short for everything, make progress piecewise
		nDst, nSrc, err = t.Transform(dst, src, false)
		if err == transform.ErrShortSrc {
			err = transform.ErrShortDst
		}
		return nDst, nSrc, err
	}

	loc := guidRegex.FindIndex(src)
	if loc == nil {
		tail := partialRegex.FindIndex(src)
		if tail == nil {
			n := copy(dst, src)
			if n < len(src) {
				return n, n, transform.ErrShortDst
			}
			return n, n, nil
		}
		n := copy(dst, src[:tail[0]])
		if n < tail[0] {
			return n, n, transform.ErrShortDst
		}
		return n, n, transform.ErrShortSrc
	}

	start, end := loc[0], loc[1]
	if n := copy(dst, src[:start]); n < start {
		return n, n, transform.ErrShortDst
	}
	name := t.replace(src[start:end])
	if start+len(name) > len(dst) {
		return start, start, transform.ErrShortDst
	}
	copy(dst[start:], name)
	return start + len(name), end, transform.ErrShortSrc
}

// Reset implements transform.Transformer.
func (t *Transformer) Reset() {}
