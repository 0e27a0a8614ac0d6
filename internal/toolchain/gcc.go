package toolchain

import (
	"context"
	"regexp"
	"strings"

	"diagtest/internal/procexec"
)

// gccVersionPattern merges Target:, Thread model: and "gcc|clang version <ver>"
// captures from a single invocation's output (stderr for GCC, stdout for
// Clang), ported from original_source
// GCC.version_pattern.
var gccVersionPattern = regexp.MustCompile(
	`(?:Target: (?P<target>.*))|(?:Thread model: (?P<thread_model>.*))|(?:(?:gcc|clang) version (?P<version>[0-9.]+))`,
)

func probeGCCLikeVersion(ctx context.Context, path string, invokeArgs []string, stream func(r probeResult) string) (Version, string, error) {
	rpt, err := procexec.Invoke(ctx, "version-probe", path, invokeArgs)
	if err != nil {
		return nil, "", err
	}
	merged := map[string]string{}
	text := stream(probeResult{stdout: rpt.Stdout, stderr: rpt.Stderr})
	for _, match := range gccVersionPattern.FindAllStringSubmatch(text, -1) {
		for i, name := range gccVersionPattern.SubexpNames() {
			if i == 0 || name == "" || match[i] == "" {
				continue
			}
			merged[name] = match[i]
		}
	}
	if merged["version"] == "" || merged["target"] == "" {
		return nil, "", &errInvalidVersion{raw: text}
	}
	version, err := ParseVersion(merged["version"])
	if err != nil {
		return nil, "", err
	}
	return version, merged["target"], nil
}

type probeResult struct {
	stdout, stderr string
}

// gccStandardPattern matches GCC's "-v --help" lines enumerating -std=
// values, e.g. "  -std=c++17              Conform to the ISO 2017 C++ standard
// ... same as -std=gnu++17".
var gccStandardPattern = regexp.MustCompile(
	`^\s+-std=(?P<standard>\S+)\s*(?:Conform.*?(?:C\+\+|C)(?: draft)? standard).*?(?:-std=(?P<alias>[^\s.]+)|\.$)`,
)

func gccStandardsRaw(ctx context.Context, path string) ([]AliasGroup, error) {
	rpt, err := procexec.Invoke(ctx, "standards-probe", path, []string{"-v", "--help"})
	if err != nil {
		return nil, err
	}
	order := ordered{}
	for _, line := range strings.Split(rpt.Stdout, "\n") {
		match := gccStandardPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		standard, alias := "", ""
		for i, name := range gccStandardPattern.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			switch name {
			case "standard":
				standard = match[i]
			case "alias":
				alias = match[i]
			}
		}
		key := standard
		if alias != "" {
			key = alias
		}
		order.add(key, standard)
	}

	groups := make([]AliasGroup, 0, len(order.keys))
	for _, key := range order.keys {
		names := order.values[key]
		group := AliasGroup{}
		seen := map[string]bool{}
		add := func(n string) {
			if !seen[n] {
				seen[n] = true
				group = append(group, n)
			}
		}
		for _, n := range names {
			if n != key {
				add(n)
			}
		}
		// canonical name first: if any alias equals the alias-group key, that
		// was already the alias used to bucket by; otherwise the raw standard
		// name is canonical.
		canonical := key
		full := AliasGroup{canonical}
		for _, n := range group {
			full = append(full, n)
		}
		groups = append(groups, full)
	}
	return groups, nil
}

type ordered struct {
	keys   []string
	values map[string][]string
}

func (o *ordered) add(key, value string) {
	if o.values == nil {
		o.values = make(map[string][]string)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = append(o.values[key], value)
}

// gccStandards groups the raw alias list into {c, gnu, c++, gnu++} and
// applies the documented iso9899:199409/c99 reorder fix for both the C and
// GNU-C dialects (spec §4.D).
func gccStandards(ctx context.Context, path string) (map[Dialect][]AliasGroup, error) {
	raw, err := gccStandardsRaw(ctx, path)
	if err != nil {
		return nil, err
	}

	result := map[Dialect][]AliasGroup{C: {}, GNUC: {}, CPP: {}, GNUCPP: {}}
	for _, group := range raw {
		isGNU := false
		isCPP := false
		for _, name := range group {
			if strings.HasPrefix(name, "gnu") {
				isGNU = true
			}
			if strings.Contains(name, "++") {
				isCPP = true
			}
		}
		dialect := C
		switch {
		case isGNU && isCPP:
			dialect = GNUCPP
		case isGNU:
			dialect = GNUC
		case isCPP:
			dialect = CPP
		}
		result[dialect] = append(result[dialect], group)
	}

	for _, dialect := range []Dialect{C, GNUC} {
		if err := fixGCCCenturyOrder(result, dialect); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// fixGCCCenturyOrder undoes GCC's one documented quirk: iso9899:199409 is
// printed by "-v --help" after c99, even though 1994 precedes 1999. Locate
// the first standard whose canonical name contains a "9" (the start of the
// 20th-century tail of standards), then swap iso9899:199409 to precede c99
// within that tail (spec §4.D, §9).
func fixGCCCenturyOrder(result map[Dialect][]AliasGroup, dialect Dialect) error {
	standards := result[dialect]
	idx := -1
	for i, group := range standards {
		if strings.Contains(group.Canonical(), "9") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	tail := standards[idx:]

	iso94, c99 := -1, -1
	for i, group := range tail {
		if group.Contains("iso9899:199409") {
			iso94 = i
		}
		if group.Contains("c99") {
			c99 = i
		}
	}
	if iso94 < 0 || c99 < 0 {
		return nil
	}
	if iso94 <= c99 {
		return &ErrUnexpectedStandardOrder{Language: string(dialect)}
	}
	tail[c99], tail[iso94] = tail[iso94], tail[c99]
	// The 20th-century tail is moved ahead of the 21st-century head so the
	// whole list ends up chronological, matching the original's
	// `[*last_century, *standards[:idx]]` rotation.
	result[dialect] = append(append([]AliasGroup{}, tail...), standards[:idx]...)
	return nil
}
