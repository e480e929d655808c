// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcd

// Layer is what one source (platform FPD, module MSA, package SPD)
// contributes to a token. Nil pointers and DatumTypeUnknown mean "not
// specified by this source".
type Layer struct {
	Source      string
	DatumType   DatumType
	Datum       *string
	TokenNumber *uint32
}

// IsSet reports whether the layer contributes anything.
func (l Layer) IsSet() bool {
	return l.DatumType != DatumTypeUnknown || l.Datum != nil || l.TokenNumber != nil
}

// ResolutionStatus is the outcome of Resolve.
type ResolutionStatus int

// Resolution outcomes.
const (
	Resolved ResolutionStatus = iota
	MissingDatum
	TypeConflict
)

func (s ResolutionStatus) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case MissingDatum:
		return "missing datum"
	case TypeConflict:
		return "type conflict"
	}
	return "unknown"
}

// Resolution is the result of merging the three layers of a token.
type Resolution struct {
	Status ResolutionStatus

	DatumType      DatumType
	Datum          string
	DatumSource    string
	TokenNumber    uint32
	HasTokenNumber bool

	// Conflict holds the two disagreeing layers when Status is
	// TypeConflict.
	Conflict [2]Layer
}

// Resolve merges the platform, package and module layers of a token.
//
// The datum comes from the platform if it has one, else from the module
// layer, else from the package. The token number comes from the platform,
// else the package. Every layer that names a datum type must name the
// same one.
func Resolve(platform, pkg, module Layer) Resolution {
	var r Resolution

	var typed *Layer
	for _, l := range []*Layer{&platform, &module, &pkg} {
		if l.DatumType == DatumTypeUnknown {
			continue
		}
		if typed == nil {
			typed = l
			continue
		}
		if typed.DatumType != l.DatumType {
			r.Status = TypeConflict
			r.Conflict = [2]Layer{*typed, *l}
			return r
		}
	}
	if typed != nil {
		r.DatumType = typed.DatumType
	}

	for _, l := range []Layer{platform, pkg} {
		if l.TokenNumber != nil {
			r.TokenNumber = *l.TokenNumber
			r.HasTokenNumber = true
			break
		}
	}

	for _, l := range []Layer{platform, module, pkg} {
		if l.Datum != nil {
			r.Datum = *l.Datum
			r.DatumSource = l.Source
			r.Status = Resolved
			return r
		}
	}
	r.Status = MissingDatum
	return r
}

// Err converts an unsuccessful resolution into a typed error.
func (r Resolution) Err(cName string) error {
	switch r.Status {
	case MissingDatum:
		return &ErrMissingDatum{CName: cName}
	case TypeConflict:
		return &ErrTypeConflict{
			Context: Context{CName: cName},
			SourceA: r.Conflict[0].Source,
			TypeA:   r.Conflict[0].DatumType,
			SourceB: r.Conflict[1].Source,
			TypeB:   r.Conflict[1].DatumType,
		}
	}
	return nil
}
