package principal

import (
	"testing"

	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerActivateAndRestore(t *testing.T) {
	rt := runtime.New()
	m := New(rt)

	p := &Principal{UserID: "u-1", Claims: jwt.RegisteredClaims{Issuer: "ctxprop"}}
	h := m.Activate(p)

	active, ok := m.Active()
	require.True(t, ok)
	assert.Same(t, p, active)
	assert.Equal(t, "u-1", active.UserID)

	require.NoError(t, h.Close())
	_, ok = m.Active()
	assert.False(t, ok)
}

func TestManagerNestedActivationRestoresOuter(t *testing.T) {
	rt := runtime.New()
	m := New(rt)

	outer := &Principal{UserID: "outer"}
	inner := &Principal{UserID: "inner"}

	h1 := m.Activate(outer)
	h2 := m.Activate(inner)

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "inner", active.UserID)

	require.NoError(t, h2.Close())
	active, ok = m.Active()
	require.True(t, ok)
	assert.Equal(t, "outer", active.UserID)

	require.NoError(t, h1.Close())
	_, ok = m.Active()
	assert.False(t, ok)
}
