// Package planner builds and runs the test plan: one compilation per
// (test, bound toolchain instance, selected standard), parsing each
// invocation's output and evaluating the assertions bound to it.
package planner

import (
	"diagtest/internal/assertion"
	"diagtest/internal/toolchain"
)

// Binding pairs one bound ToolchainInstance with the Assertions declared
// against it.
type Binding struct {
	Instance   toolchain.Instance
	Assertions []assertion.Assertion
}

// Test is one `test(name) { ... }` block: a preprocessor-gated region of
// source plus the assertions declared against each toolchain instance
// bound within it.
type Test struct {
	Identifier  string
	DisplayName string
	Assertions  map[toolchain.InstanceKey]*Binding
}

// NewTest constructs an empty Test for name, deriving Identifier per
// spec §8 property 2.
func NewTest(name string) *Test {
	return &Test{
		Identifier:  Identifier(name),
		DisplayName: name,
		Assertions:  make(map[toolchain.InstanceKey]*Binding),
	}
}

// Bind returns the Binding for inst, creating it (with inst recorded) on
// first reference.
func (t *Test) Bind(inst toolchain.Instance) *Binding {
	key := inst.Key()
	b, ok := t.Assertions[key]
	if !ok {
		b = &Binding{Instance: inst}
		t.Assertions[key] = b
	}
	return b
}

// Extend appends a to the Binding for inst, preserving declaration order.
func (t *Test) Extend(inst toolchain.Instance, a assertion.Assertion) {
	b := t.Bind(inst)
	b.Assertions = append(b.Assertions, a)
}

// Plan is the complete, read-only-after-construction set of Tests a
// template file expands to.
type Plan struct {
	Tests []*Test
}
