// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/pcdbuild/cmds/pcdtool/commands"
	"github.com/linuxboot/pcdbuild/pkg/pcddb"
)

var fixture = filepath.Join("..", "..", "..", "..", "pkg", "surfacearea", "testdata", "workspace")

func copyWorkspace(t *testing.T) string {
	dst := t.TempDir()
	err := filepath.WalkDir(fixture, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fixture, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, b, 0644)
	})
	require.NoError(t, err)
	return dst
}

func command(workspace, out string) *Command {
	return &Command{
		WorkspaceFlags: commands.WorkspaceFlags{
			Workspace: workspace,
			LogLevel:  "error",
		},
		OutDir: out,
	}
}

func TestBuildWorkspace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pcd")
	require.NoError(t, command(fixture, out).Execute(nil))

	b, err := os.ReadFile(filepath.Join(out, PeiFile))
	require.NoError(t, err)
	pei, err := pcddb.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "PEI", pei.Phase)
	require.Len(t, pei.Records, 1)
	assert.Equal(t, uint32(1), pei.Records[0].TokenNumber)
	assert.Equal(t, "0x64", pei.Records[0].Text)
	require.Len(t, pei.Records[0].Skus, 2)
	assert.Equal(t, "0x200", pei.Records[0].Skus[1].Text)

	b, err = os.ReadFile(filepath.Join(out, DxeFile))
	require.NoError(t, err)
	dxe, err := pcddb.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "DXE", dxe.Phase)
	require.Len(t, dxe.Records, 2)
	assert.Equal(t, uint32(2), dxe.Records[0].TokenNumber)
	assert.Equal(t, uint32(16), dxe.Records[0].DatumSize)
	assert.Equal(t, uint32(3), dxe.Records[1].TokenNumber)
	assert.Equal(t, "FALSE", dxe.Records[1].Text)
	assert.Equal(t, "BootState", dxe.Records[1].VariableName)

	header, err := os.ReadFile(filepath.Join(out, HeaderFile))
	require.NoError(t, err)
	assert.Contains(t, string(header), "#define _PCD_TOKEN_PcdBootState 3U")
	assert.Contains(t, string(header), "#define PCD_TOTAL_TOKEN_NUMBER 3U")

	source, err := os.ReadFile(filepath.Join(out, SourceFile))
	require.NoError(t, err)
	assert.Contains(t, string(source), "UINT8 mPeiPcdDbInit[PEI_PCD_DATABASE_SIZE] = {")
	assert.Contains(t, string(source), "UINT8 mDxePcdDbInit[DXE_PCD_DATABASE_SIZE] = {")
}

func TestBuildMissingDynamicDefinition(t *testing.T) {
	ws := copyWorkspace(t)
	fpd := filepath.Join(ws, "EdkNt32Pkg", "Nt32.fpd")
	b, err := os.ReadFile(fpd)
	require.NoError(t, err)
	start := bytes.Index(b, []byte("<DynamicPcdBuildDefinitions>"))
	require.Positive(t, start)
	definition := regexp.MustCompile(`(?s)<PcdBuildData ItemType="DYNAMIC_EX">.*?</PcdBuildData>`)
	patched := append(append([]byte(nil), b[:start]...), definition.ReplaceAll(b[start:], nil)...)
	require.NotEqual(t, b, patched)
	require.NoError(t, os.WriteFile(fpd, patched, 0644))

	out := filepath.Join(t.TempDir(), "pcd")
	err = command(ws, out).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PcdPlatformString")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output may be written on failure")
}

func TestBuildExtraArguments(t *testing.T) {
	err := command(fixture, t.TempDir()).Execute([]string{"extra"})
	var argsErr commands.ErrArgs
	require.ErrorAs(t, err, &argsErr)
}

func TestBuildWorkspaceUnset(t *testing.T) {
	t.Setenv("WORKSPACE", "")
	err := command("", t.TempDir()).Execute(nil)
	var argsErr commands.ErrArgs
	require.ErrorAs(t, err, &argsErr)
}
