package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagtest/internal/assertion"
	"diagtest/internal/toolchain"
)

func TestIdentifierDerivation(t *testing.T) {
	assert.Equal(t, "BASIC_ARITHMETIC", Identifier("basic arithmetic"))
	assert.Equal(t, "ALREADY_UPPER", Identifier("ALREADY_UPPER"))
	assert.Equal(t, "SINGLE", Identifier("single"))
}

func TestGateWrapsIdentifier(t *testing.T) {
	gated := Gate("MY_TEST", "int x;")
	assert.Equal(t, "#ifdef MY_TEST\nint x;\n#endif\n", gated)
}

func TestNewTestDerivesIdentifier(t *testing.T) {
	test := NewTest("basic arithmetic")
	assert.Equal(t, "BASIC_ARITHMETIC", test.Identifier)
	assert.Equal(t, "basic arithmetic", test.DisplayName)
	assert.Empty(t, test.Assertions)
}

func TestBindCreatesOnFirstReference(t *testing.T) {
	test := NewTest("t")
	inst := toolchain.Instance{Descriptor: &toolchain.Descriptor{Family: toolchain.GCC}}

	b1 := test.Bind(inst)
	b2 := test.Bind(inst)
	assert.Same(t, b1, b2, "binding the same instance twice returns the same Binding")
}

func TestExtendPreservesDeclarationOrder(t *testing.T) {
	test := NewTest("t")
	inst := toolchain.Instance{Descriptor: &toolchain.Descriptor{Family: toolchain.GCC}}

	test.Extend(inst, assertion.ReturnCode(0))
	test.Extend(inst, assertion.ErrorCode("C1234"))

	binding := test.Assertions[inst.Key()]
	require.Len(t, binding.Assertions, 2)
	assert.Equal(t, assertion.KindReturnCode, binding.Assertions[0].Kind)
	assert.Equal(t, assertion.KindErrorCode, binding.Assertions[1].Kind)
}
