package intern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

func TestInternIdempotent(t *testing.T) {
	in := intern.New()
	a := in.Intern("x")
	b := in.Intern("x")
	assert.Equal(t, a, b)

	c := in.Intern("y")
	assert.NotEqual(t, a, c)
}

func TestResolveRoundTrip(t *testing.T) {
	in := intern.New()
	sym := in.Intern("hello")
	name, ok := in.Resolve(sym)
	require.True(t, ok)
	assert.Equal(t, "hello", name)
}

func TestResolveUnknownSymbol(t *testing.T) {
	in := intern.New()
	_, ok := in.Resolve(intern.Symbol(999))
	assert.False(t, ok)
	assert.Equal(t, "<unknown>", in.MustResolve(intern.Symbol(999)))
}

func TestLenCountsDistinctStrings(t *testing.T) {
	in := intern.New()
	in.Intern("a")
	in.Intern("b")
	in.Intern("a")
	assert.Equal(t, 2, in.Len())
}
