// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pcdtool builds and inspects the Platform Configuration Database of an
// EDK II workspace.
//
// The workspace, platform and architecture default to $WORKSPACE and to
// ACTIVE_PLATFORM and TARGET_ARCH of Tools/Conf/target.txt.
//
// Synopsis:
//     pcdtool build -o OUT_DIR [-w WORKSPACE] [-p FPD] [-a ARCH] [--lenient]
//     pcdtool show -f DB_FILE [--format=json]
//     pcdtool module -m MODULE [-w WORKSPACE] [-p FPD] [-a ARCH]
//     pcdtool verify -t TYPE [-s SIZE] VALUE
//
// An example:
//     pcdtool build -w ~/edk -p EdkNt32Pkg/Nt32.fpd -a IA32 -o Build/Pcd
//     pcdtool show -f Build/Pcd/PeiPcdDb.bin
//     pcdtool module -m PeiMain
//     pcdtool verify -t VOID* -s 16 'L"Nt32"'
//
// Description:
//     build:  Collects, validates and writes PcdDatabase.h, PcdDatabase.c and both database images
//     show:   Prints the tokens of a PEI or DXE database image
//     module: Lists the PCD usages of a module
//     verify: Checks a value literal against a datum type
package main

import (
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands/build"
	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands/module"
	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands/show"
	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands/verify"
)

var (
	knownCommands = map[string]commands.Command{
		"build":  &build.Command{},
		"show":   &show.Command{},
		"module": &module.Command{},
		"verify": &verify.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	if _, err := flagsParser.Parse(); err != nil {
		if code := commands.ExitCode(err); code != commands.ExitOK {
			log.Print(err)
			os.Exit(code)
		}
	}
}
