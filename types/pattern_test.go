package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternLiteralMatch(t *testing.T) {
	p := NewPattern("foo")

	assert.True(t, p.Match("foo bar"))
	assert.True(t, p.Match("a foo"))
	assert.False(t, p.Match("baz"))
	assert.False(t, p.Match("Foo bar"), "literal matching is case-sensitive")
	assert.False(t, p.IsRegexp())
	assert.Equal(t, "foo", p.String())
}

func TestPatternRegexpMatch(t *testing.T) {
	p, err := NewRegexpPattern("^foo( bar)?$")
	require.NoError(t, err)

	assert.True(t, p.Match("foo"))
	assert.True(t, p.Match("foo bar"))
	assert.False(t, p.Match("foo baz"))
	assert.True(t, p.IsRegexp())
	assert.Equal(t, "^foo( bar)?$", p.String())
}

func TestPatternRegexpInvalid(t *testing.T) {
	_, err := NewRegexpPattern("foo[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid name pattern")
}
