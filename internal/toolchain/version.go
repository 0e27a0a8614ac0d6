package toolchain

import (
	"strconv"
	"strings"
)

// Version represents a version number in dot-decimal notation, e.g.
// "13.2.0". Ported from please_cc's cctool.Version, which this module's
// toolchain descriptors and the optexpr expression language both rely on.
type Version []int64

// ParseVersion parses a dot-decimal version string. It returns an error
// rather than panicking (unlike its teacher ancestor) because a malformed
// version string here originates from untrusted compiler output, not from
// a hard-coded literal in calling code.
func ParseVersion(version string) (Version, error) {
	if version == "" {
		return nil, errEmptyVersion
	}
	parts := strings.Split(version, ".")
	ver := make(Version, 0, len(parts))
	for _, num := range parts {
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return nil, &errInvalidVersion{version}
		}
		ver = append(ver, n)
	}
	return ver, nil
}

// MustParseVersion is ParseVersion, panicking on error. Reserved for
// literals known at compile time (tests, defaults), never for compiler
// output.
func MustParseVersion(version string) Version {
	v, err := ParseVersion(version)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than
// to. Missing trailing components are treated as zero, so 1.2 == 1.2.0 and
// 1.2 > 1.1.3.
func (v Version) Compare(to Version) int {
	end := len(v)
	if len(to) > end {
		end = len(to)
	}
	for i := 0; i < end; i++ {
		var vel, toel int64
		if i < len(v) {
			vel = v[i]
		}
		if i < len(to) {
			toel = to[i]
		}
		if vel < toel {
			return -1
		}
		if vel > toel {
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	var s strings.Builder
	for i, el := range v {
		if i != 0 {
			s.WriteByte('.')
		}
		s.WriteString(strconv.FormatInt(el, 10))
	}
	return s.String()
}
