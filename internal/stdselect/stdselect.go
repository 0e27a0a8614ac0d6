// Package stdselect implements the standard-selection algebra: resolving a
// user query against a dialect's ordered alias-group list into a concrete,
// deduplicated list of standard names to compile against.
package stdselect

import (
	"fmt"
	"strconv"
	"strings"

	"diagtest/internal/toolchain"
)

// Op is an open-comparison operator.
type Op string

const (
	GT Op = ">"
	GE Op = ">="
	LT Op = "<"
	LE Op = "<="
)

// Term is a query term: either an integer (e.g. 17) or a string (e.g. "gnu++17").
type Term struct {
	Int    *int64
	String *string
}

// IntTerm builds an integer Term.
func IntTerm(v int64) Term { return Term{Int: &v} }

// StringTerm builds a string Term.
func StringTerm(v string) Term { return Term{String: &v} }

func (t Term) raw() string {
	if t.Int != nil {
		return strconv.FormatInt(*t.Int, 10)
	}
	if t.String != nil {
		return *t.String
	}
	return ""
}

// Query is the closed sum type of standard-selection query shapes.
type Query struct {
	none  bool
	single *Term
	list   []Term
	open   *openBound
	lo, hi *openBound
}

type openBound struct {
	op   Op
	term Term
}

// None yields each group's canonical name in descriptor order.
func None() Query { return Query{none: true} }

// Single yields one standard, expanded per the dialect's alias rules.
func Single(t Term) Query { return Query{single: &t} }

// List expands each element independently, preserving order and
// deduplicating by first occurrence.
func List(terms ...Term) Query { return Query{list: terms} }

// OpenRange is an open-ended comparison: ">N", ">=N", "<N", "<=N".
func OpenRange(op Op, t Term) Query { return Query{open: &openBound{op: op, term: t}} }

// ClosedRange combines a lower and upper open bound, e.g. (">11", "<17").
func ClosedRange(lo, hi Query) (Query, error) {
	if lo.open == nil || hi.open == nil {
		return Query{}, fmt.Errorf("stdselect: ClosedRange requires two OpenRange queries")
	}
	return Query{lo: lo.open, hi: hi.open}, nil
}

// ErrUnknownStandard reports a query term that could not be expanded against
// any alias in the dialect's group list.
type ErrUnknownStandard struct {
	Term      string
	Available []string
}

func (e *ErrUnknownStandard) Error() string {
	return fmt.Sprintf("stdselect: unknown standard %q (available: %s)", e.Term, strings.Join(e.Available, ", "))
}

// Resolve implements the standard-selection algebra against groups, an
// ordered alias-group list for one dialect.
func Resolve(dialectKey string, groups []toolchain.AliasGroup, query Query) ([]string, error) {
	switch {
	case query.none:
		names := make([]string, len(groups))
		for i, g := range groups {
			names[i] = g.Canonical()
		}
		return names, nil
	case query.single != nil:
		name, err := expand(dialectKey, groups, *query.single)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	case query.list != nil:
		return resolveList(dialectKey, groups, query.list)
	case query.open != nil:
		idx, err := indexOf(dialectKey, groups, *query.open)
		if err != nil {
			return nil, err
		}
		return canonicalNames(sliceOpen(groups, *query.open, idx)), nil
	case query.lo != nil && query.hi != nil:
		hiIdx, err := indexOf(dialectKey, groups, *query.hi)
		if err != nil {
			return nil, err
		}
		afterHi := sliceOpen(groups, *query.hi, hiIdx)
		loIdx, err := indexOf(dialectKey, afterHi, *query.lo)
		if err != nil {
			return nil, err
		}
		return canonicalNames(sliceOpen(afterHi, *query.lo, loIdx)), nil
	default:
		return nil, fmt.Errorf("stdselect: empty query")
	}
}

func resolveList(dialectKey string, groups []toolchain.AliasGroup, terms []Term) ([]string, error) {
	var result []string
	seen := map[string]bool{}
	for _, t := range terms {
		name, err := expand(dialectKey, groups, t)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result, nil
}

// expand implements the expansion rule: a verbatim alias match first, else
// the dialect-key-prefixed re-check (integer 17 under "c++" becomes "c++17").
func expand(dialectKey string, groups []toolchain.AliasGroup, t Term) (string, error) {
	raw := t.raw()
	if findGroup(groups, raw) != nil {
		return raw, nil
	}
	prefixed := dialectKey + raw
	if findGroup(groups, prefixed) != nil {
		return prefixed, nil
	}
	return "", &ErrUnknownStandard{Term: raw, Available: allNames(groups)}
}

func findGroup(groups []toolchain.AliasGroup, name string) *toolchain.AliasGroup {
	for i := range groups {
		if groups[i].Contains(name) {
			return &groups[i]
		}
	}
	return nil
}

func allNames(groups []toolchain.AliasGroup) []string {
	var names []string
	for _, g := range groups {
		names = append(names, g.Canonical())
	}
	return names
}

func canonicalNames(groups []toolchain.AliasGroup) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Canonical()
	}
	return names
}

// ParseTerms interprets a script's raw `std=` argument list into a Query,
// so callers never have to build Query values by hand: no terms selects
// None(); one open-comparison string (">17", ">=17", "<23", "<=23")
// selects OpenRange; exactly two open-comparison strings combine into a
// ClosedRange regardless of which order they're given (the GT/GE one
// always becomes the lower bound); anything else — including a single
// plain name or integer — is an explicit Single/List of standard names.
func ParseTerms(raw []string) (Query, error) {
	if len(raw) == 0 {
		return None(), nil
	}
	if len(raw) <= 2 {
		bounds := make([]openBound, 0, len(raw))
		allOpen := true
		for _, r := range raw {
			b, ok := parseOpenBound(r)
			if !ok {
				allOpen = false
				break
			}
			bounds = append(bounds, b)
		}
		if allOpen {
			switch len(bounds) {
			case 1:
				return OpenRange(bounds[0].op, bounds[0].term), nil
			case 2:
				lo, hi := bounds[0], bounds[1]
				if lo.op == LT || lo.op == LE {
					lo, hi = hi, lo
				}
				return ClosedRange(OpenRange(lo.op, lo.term), OpenRange(hi.op, hi.term))
			}
		}
	}

	terms := make([]Term, len(raw))
	for i, r := range raw {
		terms[i] = StringTerm(r)
	}
	if len(terms) == 1 {
		return Single(terms[0]), nil
	}
	return List(terms...), nil
}

// parseOpenBound recognizes a leading ">=", "<=", ">" or "<" operator,
// longest-prefix first so ">=" isn't mistaken for ">".
func parseOpenBound(raw string) (openBound, bool) {
	for _, op := range []Op{GE, LE, GT, LT} {
		if strings.HasPrefix(raw, string(op)) {
			rest := strings.TrimPrefix(raw, string(op))
			return openBound{op: op, term: StringTerm(rest)}, true
		}
	}
	return openBound{}, false
}

// indexOf finds the index of the group containing the expanded bound term.
func indexOf(dialectKey string, groups []toolchain.AliasGroup, b openBound) (int, error) {
	name, err := expand(dialectKey, groups, b.term)
	if err != nil {
		return -1, err
	}
	for i, g := range groups {
		if g.Contains(name) {
			return i, nil
		}
	}
	return -1, &ErrUnknownStandard{Term: name, Available: allNames(groups)}
}

// sliceOpen applies one open bound to groups given the pre-resolved index of
// the bound's term, inclusive comparisons shifting the cut by one position.
func sliceOpen(groups []toolchain.AliasGroup, b openBound, idx int) []toolchain.AliasGroup {
	switch b.op {
	case GT:
		return groups[idx+1:]
	case GE:
		return groups[idx:]
	case LT:
		return groups[:idx]
	case LE:
		return groups[:idx+1]
	default:
		return nil
	}
}
