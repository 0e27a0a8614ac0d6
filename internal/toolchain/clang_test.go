package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAppleClang(t *testing.T) {
	assert.True(t, IsAppleClang("Apple clang version 15.0.0 (clang-1500.0.40.1)\nTarget: arm64-apple-darwin23.0.0\n", ""))
	assert.False(t, IsAppleClang("clang version 16.0.6\nTarget: x86_64-pc-linux-gnu\n", ""))
	assert.True(t, IsAppleClang("", "Apple clang version 14.0.3\n"))
}

func writeFakeClang(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake clang script is POSIX shell only")
	}
	path := filepath.Join(dir, "fakeclang")
	script := "#!/bin/sh\n" +
		"echo \"warning: invalid argument 'dummy' not allowed with 'C'\" 1>&2\n" +
		"echo \"note: use 'c11' or 'gnu11' or 'c17', 'gnu17' for 'C' standard\" 1>&2\n" +
		"exit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestClangStandardsRawParsesUseLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeClang(t, dir)

	groups, err := clangStandardsRaw(context.Background(), path, "c")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "c11", groups[0].Canonical())
	assert.Contains(t, groups[0], "gnu11")
	assert.Contains(t, groups[0], "c17")
	assert.Contains(t, groups[0], "gnu17")
}

func TestClangFilterGNUBucketsByGnuPrefix(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeClang(t, dir)

	result, err := clangFilterGNU(context.Background(), path, "c", GNUC, C)
	require.NoError(t, err)
	require.Len(t, result[GNUC], 1)
	assert.Equal(t, "c11", result[GNUC][0].Canonical())
	assert.Empty(t, result[C])
}
