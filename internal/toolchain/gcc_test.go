package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixGCCCenturyOrderSwapsIso94BeforeC99(t *testing.T) {
	result := map[Dialect][]AliasGroup{
		C: {
			{"c90"},
			{"c99", "c9x"},
			{"iso9899:199409"},
			{"c11"},
		},
	}
	require.NoError(t, fixGCCCenturyOrder(result, C))
	assert.Equal(t, "iso9899:199409", result[C][1].Canonical())
	assert.Equal(t, "c99", result[C][2].Canonical())
}

func TestFixGCCCenturyOrderRotatesTwentiethCenturyTailToFront(t *testing.T) {
	// GCC lists the 21st-century standards first here (c11, c17) with the
	// 20th-century tail (c99, iso9899:199409) following out of order; the
	// fix must both swap iso94 before c99 and move the whole tail ahead of
	// the head so the result reads chronologically.
	result := map[Dialect][]AliasGroup{
		C: {
			{"c11"},
			{"c17"},
			{"c99"},
			{"iso9899:199409"},
		},
	}
	require.NoError(t, fixGCCCenturyOrder(result, C))
	assert.Equal(t, []AliasGroup{
		{"iso9899:199409"},
		{"c99"},
		{"c11"},
		{"c17"},
	}, result[C])
}

func TestFixGCCCenturyOrderErrorsWhenPreconditionFails(t *testing.T) {
	// iso9899:199409 already precedes c99 in this (synthetic) raw order,
	// contradicting the one documented GCC quirk this fix assumes.
	result := map[Dialect][]AliasGroup{
		C: {
			{"c90"},
			{"iso9899:199409"},
			{"c99"},
		},
	}
	err := fixGCCCenturyOrder(result, C)
	require.Error(t, err)
	var unexpected *ErrUnexpectedStandardOrder
	require.ErrorAs(t, err, &unexpected)
}

func TestFixGCCCenturyOrderNoOpWhenNeitherStandardPresent(t *testing.T) {
	result := map[Dialect][]AliasGroup{
		CPP: {{"c++17"}, {"c++20"}},
	}
	require.NoError(t, fixGCCCenturyOrder(result, CPP))
	assert.Equal(t, []AliasGroup{{"c++17"}, {"c++20"}}, result[CPP])
}

func TestOrderedAddPreservesInsertionOrder(t *testing.T) {
	o := ordered{}
	o.add("c99", "c99")
	o.add("c99", "c9x")
	o.add("c11", "c11")
	assert.Equal(t, []string{"c99", "c11"}, o.keys)
	assert.Equal(t, []string{"c99", "c9x"}, o.values["c99"])
}
