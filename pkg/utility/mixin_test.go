package utility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classmod/pkg/util"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := LoadFromBytes([]byte(`
framework: tailwind
variables:
  - {group: Colors, name: blue-500, value: "#3b82f6"}
  - {group: Colors, name: gray-600, value: "#4b5563"}
  - {group: Spacing, name: spacing-4, value: 1rem}
utilities:
  bg-blue-500: "background-color: #3b82f6"
  text-gray-600: "color: #4b5563"
  p-4: "padding: 1rem"
  m-4: "margin: 1rem"
  mt-4: "margin-top: 1rem"
  gap-4: "gap: 1rem"
  px-4: "padding-left: 1rem; padding-right: 1rem"
  shadow-md: "box-shadow: 0 4px 6px -1px rgba(0, 0, 0, 0.1)"
  card: "display: flex; box-shadow: none"
  flex: "display: flex"
colors:
  bg-blue-500: "$blue-500"
  text-gray-600: "$gray-600"
spacing:
  p-4: "$spacing-4"
  m-4: "$spacing-4"
  mt-4: "$spacing-4"
  gap-4: "$spacing-4"
  px-4: "$spacing-4"
`))
	require.NoError(t, err)
	return table
}

func TestMapperMap(t *testing.T) {
	m := NewMapper(testTable(t), util.NopLogger())

	testCases := []struct {
		base string
		want []string
	}{
		{"bg-blue-500", []string{"@include bg($blue-500);"}},
		{"text-gray-600", []string{"@include text($gray-600);"}},
		{"p-4", []string{"@include p($spacing-4);"}},
		{"m-4", []string{"@include m($spacing-4);"}},
		{"mt-4", []string{"@include m($spacing-4);"}},
		{"gap-4", []string{"@include gap($spacing-4);"}},
		// px is not a spacing prefix, so the declarations pass through
		{"px-4", []string{"padding-left: 1rem;", "padding-right: 1rem;"}},
		{"shadow-md", []string{"@include shadow-xl;"}},
		{"card", []string{"@include shadow-xl;"}},
		{"flex", []string{"display: flex;"}},
	}

	for _, tc := range testCases {
		t.Run(tc.base, func(t *testing.T) {
			got, ok := m.Resolve(tc.base)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMapperMap_Empty(t *testing.T) {
	m := NewMapper(testTable(t), nil)
	assert.Empty(t, m.Map("flex", "  "))

	_, ok := m.Resolve("does-not-exist")
	assert.False(t, ok)
}

func TestParseDeclarations(t *testing.T) {
	decls, err := ParseDeclarations("grid-template-columns: repeat(3, minmax(0, 1fr)); color: #ffffff")
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, Declaration{Property: "grid-template-columns", Value: "repeat(3, minmax(0, 1fr))"}, decls[0])
	assert.Equal(t, "color: #ffffff", decls[1].String())
}
