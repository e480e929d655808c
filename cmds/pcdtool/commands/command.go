// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/jessevdk/go-flags"
)

// Command is a pcdtool verb. Its exported fields carry go-flags tags and
// are filled in before Execute runs.
type Command interface {
	flags.Commander

	// ShortDescription is listed next to the verb in `pcdtool --help`.
	ShortDescription() string

	// LongDescription is printed by `pcdtool VERB --help`.
	LongDescription() string
}
