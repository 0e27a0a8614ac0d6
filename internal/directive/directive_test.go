package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagtest/internal/toolchain"
)

func newTable() *Table {
	return &Table{
		Registry: NewRegistry(),
		Descriptors: map[toolchain.Family]*toolchain.Descriptor{
			toolchain.GCC: {
				Family:  toolchain.GCC,
				Version: toolchain.Version{13, 2},
				Standards: map[toolchain.Dialect][]toolchain.AliasGroup{
					toolchain.CPP: {{"c++14"}, {"c++17"}, {"c++20"}, {"c++23"}},
				},
			},
		},
	}
}

func TestLoadDefaultsRegistersConstructorsAndDefaultInstance(t *testing.T) {
	table := newTable()
	require.NoError(t, table.LoadDefaults("c++"))

	canonicalVal, ok := table.Registry.Globals.Get("GCC")
	require.True(t, ok)
	_, hasCanonical := canonicalVal.(Constructor)
	assert.True(t, hasCanonical)

	defVal, ok := table.Registry.Globals.Get("gcc")
	require.True(t, ok)
	def, ok := defVal.(toolchain.Instance)
	require.True(t, ok)
	assert.Equal(t, []string{"c++14", "c++17", "c++20", "c++23"}, def.Selected)
	assert.True(t, def.Available())
}

func TestLoadDefaultsConstructorResolvesStdRangeQuery(t *testing.T) {
	table := newTable()
	require.NoError(t, table.LoadDefaults("c++"))

	ctorVal, ok := table.Registry.Globals.Get("GCC")
	require.True(t, ok)
	ctor, ok := ctorVal.(Constructor)
	require.True(t, ok)

	// S4: a closed range must resolve to exactly the standards within it,
	// in ascending order, regardless of bound order in the call.
	inst, err := ctor(nil, []string{">=17", "<23"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c++17", "c++20"}, inst.Selected)
}

func TestLoadDefaultsConstructorResolvesBareIntegerAgainstDialect(t *testing.T) {
	table := newTable()
	require.NoError(t, table.LoadDefaults("c++"))

	ctorVal, _ := table.Registry.Globals.Get("GCC")
	ctor := ctorVal.(Constructor)

	inst, err := ctor(nil, []string{"17"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c++17"}, inst.Selected)
}

func TestLoadDefaultsConstructorRejectsUnknownStandard(t *testing.T) {
	table := newTable()
	require.NoError(t, table.LoadDefaults("c++"))

	ctorVal, _ := table.Registry.Globals.Get("GCC")
	ctor := ctorVal.(Constructor)

	_, err := ctor(nil, []string{"99"})
	require.Error(t, err)
}

func TestLoadDefaultsMergesAcrossCalls(t *testing.T) {
	table := newTable()
	table.Descriptors[toolchain.Clang] = &toolchain.Descriptor{
		Family: toolchain.Clang,
		Standards: map[toolchain.Dialect][]toolchain.AliasGroup{
			toolchain.C: {{"c17"}},
		},
	}
	require.NoError(t, table.LoadDefaults("c++"))
	require.NoError(t, table.LoadDefaults("c"))

	// "GCC"/"gcc" survive the second call even though it was for language "c".
	_, stillHasGCC := table.Registry.Globals.Get("GCC")
	assert.True(t, stillHasGCC)

	clangVal, ok := table.Registry.Globals.Get("clang")
	require.True(t, ok)
	clangDefault, ok := clangVal.(toolchain.Instance)
	require.True(t, ok)
	assert.Equal(t, toolchain.C, clangDefault.Dialect)

	// insertion order is preserved and stable across the merge.
	assert.Equal(t, []string{"GCC", "gcc", "Clang", "clang", "MSVC", "msvc"}, table.Registry.Globals.Keys())
}

func TestTestRejectsDuplicateNames(t *testing.T) {
	table := newTable()
	_, err := table.Test("basic arithmetic")
	require.NoError(t, err)

	_, err = table.Test("basic arithmetic")
	require.Error(t, err)
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
}

func TestTestGateWrapsIdentifier(t *testing.T) {
	table := newTable()
	gate, err := table.Test("basic arithmetic")
	require.NoError(t, err)
	wrapped := gate("int x = 1;")
	assert.Contains(t, wrapped, "#ifdef BASIC_ARITHMETIC")
	assert.Contains(t, wrapped, "int x = 1;")
	assert.Contains(t, wrapped, "#endif")
}

func TestErrorRequiresExactlyOneOfTextOrPattern(t *testing.T) {
	table := newTable()
	_, err := table.Test("basic arithmetic")
	require.NoError(t, err)

	inst := toolchain.Instance{Descriptor: table.Descriptors[toolchain.GCC]}

	err = table.Error(inst, nil, nil)
	require.Error(t, err)

	text, pattern := "boom", "boo.*"
	err = table.Error(inst, &text, &pattern)
	require.Error(t, err)

	err = table.Error(inst, &text, nil)
	require.NoError(t, err)
}

func TestAssertionDirectivesRequireOpenTest(t *testing.T) {
	table := newTable()
	inst := toolchain.Instance{Descriptor: table.Descriptors[toolchain.GCC]}
	err := table.ReturnCode(inst, 1)
	require.Error(t, err)
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
}

func TestReturnCodeAndErrorCodeBindToCurrentTest(t *testing.T) {
	table := newTable()
	_, err := table.Test("exit behavior")
	require.NoError(t, err)

	inst := toolchain.Instance{Descriptor: table.Descriptors[toolchain.GCC]}
	require.NoError(t, table.ReturnCode(inst, 1))
	require.NoError(t, table.ErrorCode(inst, "C1234"))

	current := table.Registry.Tests[len(table.Registry.Tests)-1]
	binding := current.Assertions[inst.Key()]
	require.NotNil(t, binding)
	assert.Len(t, binding.Assertions, 2)
}
