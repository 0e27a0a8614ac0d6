package toolchain

import (
	"context"
	"regexp"
	"strings"

	"diagtest/internal/procexec"
)

func probeClangVersion(ctx context.Context, path string) (Version, string, error) {
	return probeGCCLikeVersion(ctx, path, []string{"--version"}, func(r probeResult) string {
		return r.stdout
	})
}

func probeGCCVersion(ctx context.Context, path string) (Version, string, error) {
	return probeGCCLikeVersion(ctx, path, []string{"-v", "--version"}, func(r probeResult) string {
		return r.stderr
	})
}

// appleClangPattern identifies Apple's Clang build, which must be checked
// before the vendor-agnostic Clang version text since Apple's identification
// line is a strict subset of what the generic pattern also matches
// (cctool's matcher table documents this ordering requirement).
var appleClangPattern = regexp.MustCompile(`Apple clang version ([0-9.]+)`)

// IsAppleClang reports whether stdout/stderr from a "--version" invocation
// identifies the Clang build as Apple's.
func IsAppleClang(stdout, stderr string) bool {
	return appleClangPattern.MatchString(stdout) || appleClangPattern.MatchString(stderr)
}

var (
	clangStandardPattern      = regexp.MustCompile(`use '(?P<standard>[^']+)'`)
	clangStandardAliasPattern = regexp.MustCompile(`(?: or| ,) '(?P<alias>[^']+)'|, '(?P<alias2>[^']+)'`)
)

func clangStandardsRaw(ctx context.Context, path, lang string) ([]AliasGroup, error) {
	rpt, err := procexec.Invoke(ctx, "standards-probe", path, []string{"-x" + lang, "-std=dummy", "-"})
	if err != nil {
		return nil, err
	}
	var groups []AliasGroup
	for _, line := range strings.Split(rpt.Stderr, "\n") {
		m := clangStandardPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		group := AliasGroup{m[1]}
		for _, am := range clangStandardAliasPattern.FindAllStringSubmatch(line, -1) {
			alias := am[1]
			if alias == "" {
				alias = am[2]
			}
			if alias != "" {
				group = append(group, alias)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func clangFilterGNU(ctx context.Context, path, lang string, gnuDialect, dialect Dialect) (map[Dialect][]AliasGroup, error) {
	raw, err := clangStandardsRaw(ctx, path, lang)
	if err != nil {
		return nil, err
	}
	result := map[Dialect][]AliasGroup{gnuDialect: {}, dialect: {}}
	for _, group := range raw {
		isGNU := false
		for _, name := range group {
			if strings.HasPrefix(name, "gnu") {
				isGNU = true
				break
			}
		}
		if isGNU {
			result[gnuDialect] = append(result[gnuDialect], group)
		} else {
			result[dialect] = append(result[dialect], group)
		}
	}
	return result, nil
}

func clangStandards(ctx context.Context, path string) (map[Dialect][]AliasGroup, error) {
	cResult, err := clangFilterGNU(ctx, path, "c", GNUC, C)
	if err != nil {
		return nil, err
	}
	cppResult, err := clangFilterGNU(ctx, path, "c++", GNUCPP, CPP)
	if err != nil {
		return nil, err
	}
	return map[Dialect][]AliasGroup{
		C:      cResult[C],
		GNUC:   cResult[GNUC],
		CPP:    cppResult[CPP],
		GNUCPP: cppResult[GNUCPP],
	}, nil
}
