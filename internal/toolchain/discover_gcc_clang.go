package toolchain

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"diagtest/internal/procexec"
)

// CppSibling returns the C++ front-end executable that sits alongside a
// discovered C front-end (gcc -> g++, clang -> clang++), in the same
// directory, matching how original_source's GCC/Clang __init__ pick their
// executable per language.
func CppSibling(executable string) string {
	dir, base := filepath.Split(executable)
	switch {
	case strings.HasPrefix(base, "gcc"):
		return filepath.Join(dir, "g++"+strings.TrimPrefix(base, "gcc"))
	case strings.HasPrefix(base, "clang") && !strings.HasPrefix(base, "clang++"):
		return filepath.Join(dir, "clang++"+strings.TrimPrefix(base, "clang"))
	default:
		return executable
	}
}

// Discover locates and probes every installed compiler of the given
// family, logging and excluding any candidate whose probe fails (spec §7
// DiscoveryWarning) rather than aborting. Results are served from cache on
// repeat calls for the same family within the process's lifetime.
func Discover(ctx context.Context, cache *Cache, logger *log.Logger, family Family) ([]*Descriptor, error) {
	switch family {
	case GCC:
		return discoverSimple(ctx, cache, logger, GCC, PathLocator{NamePattern: GCCPattern}, probeGCCVersion, gccStandards)
	case Clang:
		return discoverClangFamily(ctx, cache, logger)
	case MSVC:
		return discoverMSVC(ctx, cache, logger)
	default:
		return nil, nil
	}
}

type versionProbeFn func(ctx context.Context, path string) (Version, string, error)
type standardsProbeFn func(ctx context.Context, path string) (map[Dialect][]AliasGroup, error)

func discoverSimple(ctx context.Context, cache *Cache, logger *log.Logger, family Family, locator Locator, probeVer versionProbeFn, probeStd standardsProbeFn) ([]*Descriptor, error) {
	candidates, err := do(cache, probeEnumerate, string(family), func() ([]string, error) {
		return locator.Locate(ctx)
	})
	if err != nil {
		return nil, err
	}

	var descriptors []*Descriptor
	for _, path := range candidates {
		vt, err := do(cache, probeVersion, path, func() (versionAndTarget, error) {
			v, t, err := probeVer(ctx, path)
			return versionAndTarget{v, t}, err
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		standards, err := do(cache, probeStandards, path, func() (map[Dialect][]AliasGroup, error) {
			return probeStd(ctx, path)
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		descriptors = append(descriptors, &Descriptor{
			Family:         family,
			ExecutablePath: path,
			Version:        vt.version,
			Target:         vt.target,
			Standards:      standards,
		})
	}
	return descriptors, nil
}

type versionAndTarget struct {
	version Version
	target  string
}

func discoverClangFamily(ctx context.Context, cache *Cache, logger *log.Logger) ([]*Descriptor, error) {
	candidates, err := do(cache, probeEnumerate, "clang-enum", func() ([]string, error) {
		return PathLocator{NamePattern: ClangPattern}.Locate(ctx)
	})
	if err != nil {
		return nil, err
	}

	var descriptors []*Descriptor
	for _, path := range candidates {
		result, err := do(cache, probeVersion, path, func() (clangProbeResult, error) {
			version, target, verr := probeClangVersion(ctx, path)
			if verr != nil {
				return clangProbeResult{}, verr
			}
			rpt, rerr := procexec.Invoke(ctx, "apple-clang-probe", path, []string{"--version"})
			isApple := rerr == nil && IsAppleClang(rpt.Stdout, rpt.Stderr)
			return clangProbeResult{version: version, target: target, isApple: isApple}, nil
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		family := Clang
		if result.isApple {
			family = AppleClang
		}
		standards, err := do(cache, probeStandards, path, func() (map[Dialect][]AliasGroup, error) {
			return clangStandards(ctx, path)
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		descriptors = append(descriptors, &Descriptor{
			Family:         family,
			ExecutablePath: path,
			Version:        result.version,
			Target:         result.target,
			Standards:      standards,
		})
	}
	return descriptors, nil
}

type clangProbeResult struct {
	version Version
	target  string
	isApple bool
}

func discoverMSVC(ctx context.Context, cache *Cache, logger *log.Logger) ([]*Descriptor, error) {
	candidates, err := do(cache, probeEnumerate, "msvc-enum", func() ([]string, error) {
		return VSWhereLocator{}.Locate(ctx)
	})
	if err != nil || len(candidates) == 0 {
		return nil, err
	}

	var descriptors []*Descriptor
	for _, path := range candidates {
		vt, err := do(cache, probeVersion, path, func() (versionAndTarget, error) {
			v, t, err := probeMSVCVersion(ctx, path)
			return versionAndTarget{v, t}, err
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		standards, err := do(cache, probeStandards, path, func() (map[Dialect][]AliasGroup, error) {
			return msvcStandards(ctx, path)
		})
		if err != nil {
			logger.Warn("discovery probe failed", "executable", path, "error", err)
			continue
		}
		descriptors = append(descriptors, &Descriptor{
			Family:         MSVC,
			ExecutablePath: path,
			Version:        vt.version,
			Target:         vt.target,
			Standards:      standards,
		})
	}
	return descriptors, nil
}
