package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

func noop(context.Context, domain.Task, string) (KindReport, error) { return KindReport{}, nil }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))
	require.NoError(t, r.Register("b", noop))

	assert.Error(t, r.Register("a", noop), "duplicate")
	assert.Error(t, r.Register("", noop), "empty name")
	assert.Error(t, r.Register("c", nil), "nil handler")

	assert.Equal(t, []string{"a", "b"}, r.Kinds())
	_, ok := r.Lookup("b")
	assert.True(t, ok)
	_, ok = r.Lookup("c")
	assert.False(t, ok)
}

func TestRegistry_Split(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))
	require.NoError(t, r.Register("b", noop))

	known, unknown := r.Split([]string{"b", "x", "a", "b", "x"})
	assert.Equal(t, []string{"b", "a"}, known)
	assert.Equal(t, []string{"x"}, unknown)
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))

	require.NoError(t, r.Validate([]string{"a"}))
	err := r.Validate([]string{"a", "zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zz")
}
