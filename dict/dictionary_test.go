package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4lang/a4/vm"
)

func TestDictionary_DefineAndLookup(t *testing.T) {
	d := New()
	ref := d.Define("star", []vm.Word{vm.Lit(42)})

	got, ok := d.Lookup("star")
	require.True(t, ok)
	assert.Equal(t, ref, got)

	def := d.Get(ref)
	require.NotNil(t, def)
	assert.Equal(t, "star", def.Name)
	assert.Equal(t, []vm.Word{vm.Lit(42)}, def.Words)
}

func TestDictionary_RedefinitionKeepsDefRef(t *testing.T) {
	d := New()
	first := d.Define("star", []vm.Word{vm.Lit(42)})
	second := d.Define("star", []vm.Word{vm.Lit(43)})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, []vm.Word{vm.Lit(43)}, d.Get(first).Words)
}

func TestDictionary_AnonymousNamesAreDistinct(t *testing.T) {
	d := New()
	a := d.AnonymousName()
	b := d.AnonymousName()
	assert.NotEqual(t, a, b)
	assert.Equal(t, "__0", a)
	assert.Equal(t, "__1", b)
}

func TestDictionary_PruneKeepsStableIndices(t *testing.T) {
	d := New()
	starRef := d.Define("star", []vm.Word{vm.Lit(42)})
	anonRef := d.Define(d.AnonymousName(), []vm.Word{vm.CallWord(starRef)})

	d.Prune()

	assert.NotNil(t, d.Get(starRef))
	assert.Nil(t, d.Get(anonRef))
	_, ok := d.Lookup("__0")
	assert.False(t, ok)
}

func TestDictionary_NamesSkipsPrunedHoles(t *testing.T) {
	d := New()
	d.Define("star", []vm.Word{vm.Lit(42)})
	d.Define(d.AnonymousName(), []vm.Word{vm.Lit(1)})
	d.Define("square", []vm.Word{vm.Lit(43)})

	d.Prune()

	assert.Equal(t, []string{"star", "square"}, d.Names())
}
