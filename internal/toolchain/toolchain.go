// Package toolchain models installed C/C++ compilers: their identity,
// supported language standards, and the discovery process that locates and
// probes them.
package toolchain

import "sort"

// Family is the closed set of compiler vendors this package can identify.
type Family string

const (
	GCC        Family = "gcc"
	Clang      Family = "clang"
	AppleClang Family = "aclang"
	MSVC       Family = "msvc"
)

// Dialect is a language x GNU-extensions selector. The core treats it as
// an opaque map key; callers that need dialect-specific behavior (such as
// standard-name prefixing in stdselect) switch on it explicitly.
type Dialect string

const (
	C      Dialect = "c"
	GNUC   Dialect = "gnu"
	CPP    Dialect = "c++"
	GNUCPP Dialect = "gnu++"
)

// AliasGroup is an ordered tuple of names referring to the same standard
// (e.g. ("c++17", "gnu++17")). The first element is canonical.
type AliasGroup []string

// Canonical returns the group's canonical name.
func (g AliasGroup) Canonical() string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}

// Contains reports whether name appears anywhere in the group.
func (g AliasGroup) Contains(name string) bool {
	for _, alias := range g {
		if alias == name {
			return true
		}
	}
	return false
}

// Descriptor is the immutable identity of one installed compiler.
type Descriptor struct {
	Family         Family
	ExecutablePath string
	Version        Version
	Target         string
	Standards      map[Dialect][]AliasGroup
}

// HasDialect reports whether d supports the given dialect at all.
func (d *Descriptor) HasDialect(dialect Dialect) bool {
	groups, ok := d.Standards[dialect]
	return ok && len(groups) > 0
}

// Instance binds a Descriptor to user-supplied options and a selected,
// ordered list of standard names.
type Instance struct {
	Descriptor *Descriptor
	Dialect    Dialect
	Options    []string
	Selected   []string
}

// Available reports whether the instance's descriptor was actually
// discovered. An Instance with a nil Descriptor represents a bound
// toolchain (e.g. MSVC) that is absent on this host; its assertions are
// skipped rather than failed (spec §4.H, §7).
func (i Instance) Available() bool {
	return i.Descriptor != nil
}

// InstanceKey is a comparable projection of an Instance suitable for use as
// a map key. Instance itself holds slices and is not comparable, which the
// spec's data model otherwise assumes when it says "two instances with
// equal fields hash equal" (spec §3) — InstanceKey resolves that gap.
type InstanceKey struct {
	Family         Family
	ExecutablePath string
	Dialect        Dialect
	Options        string
	Selected       string
}

// Key computes i's InstanceKey. Options and Selected are joined with a
// separator unlikely to appear in either (NUL), after sorting, so that
// equal sets in different orders still key equal.
func (i Instance) Key() InstanceKey {
	family := Family("")
	path := ""
	if i.Descriptor != nil {
		family = i.Descriptor.Family
		path = i.Descriptor.ExecutablePath
	}
	return InstanceKey{
		Family:         family,
		ExecutablePath: path,
		Dialect:        i.Dialect,
		Options:        joinSorted(i.Options),
		Selected:       joinSorted(i.Selected),
	}
}

func joinSorted(items []string) string {
	if len(items) == 0 {
		return ""
	}
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	out := sorted[0]
	for _, s := range sorted[1:] {
		out += "\x00" + s
	}
	return out
}

// String names the instance as "<family> <version>", or by its dialect
// alone when no descriptor is bound. It does not include a standard.
func (i Instance) String() string {
	if i.Descriptor == nil {
		return string(i.Dialect)
	}
	return string(i.Descriptor.Family) + " " + i.Descriptor.Version.String()
}
