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

func TestGCCPatternMatchesVersionedAndPlainNames(t *testing.T) {
	for _, name := range []string{"gcc", "gcc-13", "g++", "g++-13", "gcc.exe", "gcc-13.exe"} {
		assert.True(t, GCCPattern.MatchString(name), name)
	}
	for _, name := range []string{"gccfoo", "notgcc", "clang"} {
		assert.False(t, GCCPattern.MatchString(name), name)
	}
}

func TestClangPatternMatchesVersionedAndPlainNames(t *testing.T) {
	for _, name := range []string{"clang", "clang-17", "clang++", "clang++-17", "clang.exe"} {
		assert.True(t, ClangPattern.MatchString(name), name)
	}
	for _, name := range []string{"clang-format", "gcc"} {
		assert.False(t, ClangPattern.MatchString(name), name)
	}
}

func TestIsCppExecutable(t *testing.T) {
	assert.True(t, isCppExecutable("/usr/bin/g++-13"))
	assert.True(t, isCppExecutable("/usr/bin/clang++"))
	assert.False(t, isCppExecutable("/usr/bin/gcc-13"))
	assert.False(t, isCppExecutable("/usr/bin/clang"))
}

func TestPathLocatorDeduplicatesSymlinksAndFiltersByPattern(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on windows")
	}
	dir := t.TempDir()
	realPath := filepath.Join(dir, "gcc-13")
	require.NoError(t, os.WriteFile(realPath, []byte(""), 0o755))
	require.NoError(t, os.Symlink(realPath, filepath.Join(dir, "gcc")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notacompiler"), []byte(""), 0o755))

	t.Setenv("PATH", dir)

	locator := PathLocator{NamePattern: GCCPattern}
	found, err := locator.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{realPath}, found)
}
