package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Locator returns candidate executable paths for one compiler family.
type Locator interface {
	Locate(ctx context.Context) ([]string, error)
}

// PathLocator walks every directory in PATH and returns files whose name
// matches NamePattern, resolving symlinks to deduplicate (spec §4.C),
// ported from original_source's util.find_executables.
type PathLocator struct {
	NamePattern *regexp.Regexp
}

func (l PathLocator) Locate(ctx context.Context) ([]string, error) {
	pathEnv := os.Getenv("PATH")
	dirs := filepath.SplitList(pathEnv)

	seen := make(map[string]struct{})
	var out []string
	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			// An unreadable PATH entry is common (stale entries, permission
			// issues) and is not itself a discovery failure for any candidate.
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !l.NamePattern.MatchString(entry.Name()) {
				continue
			}
			full := filepath.Join(dir, entry.Name())
			resolved, err := filepath.EvalSymlinks(full)
			if err != nil {
				resolved = full
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			out = append(out, resolved)
		}
	}
	return out, nil
}

// GCCPattern and ClangPattern identify the standard GCC/Clang executable
// names, including versioned and Windows-suffixed variants.
var (
	GCCPattern   = regexp.MustCompile(`^(g\+\+|gcc)(-\d+)?(\.exe)?$`)
	ClangPattern = regexp.MustCompile(`^(clang\+\+|clang)(-\d+)?(\.exe)?$`)
)

func isCppExecutable(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "g++") || strings.HasPrefix(base, "clang++")
}
