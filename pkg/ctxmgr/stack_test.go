package ctxmgr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeValue(t *testing.T, s *Stack) (any, bool) {
	t.Helper()
	h, ok := s.Active()
	if !ok {
		return nil, false
	}
	return h.Value(), true
}

func TestStackPushAndActive(t *testing.T) {
	s := NewStack("test")
	_, ok := s.Active()
	assert.False(t, ok)

	h := s.Push("a", nil)
	v, ok := activeValue(t, s)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.False(t, h.Closed())
}

func TestStackRestorationOnClose(t *testing.T) {
	s := NewStack("test")
	h1 := s.Push("a", nil)
	h2 := s.Push("b", nil)

	require.NoError(t, h2.Close())
	v, ok := activeValue(t, s)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	require.NoError(t, h1.Close())
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestStackIdempotentClose(t *testing.T) {
	s := NewStack("test")
	h1 := s.Push("a", nil)
	h2 := s.Push("b", nil)

	require.NoError(t, h2.Close())
	require.NoError(t, h2.Close())
	require.NoError(t, h2.Close())

	v, ok := activeValue(t, s)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	require.NoError(t, h1.Close())
}

// TestStackOutOfOrderClose exercises E4: h1=A, h2=B, h3=C opened in order;
// closing h1 then h2 then h3 must never change the active value until the
// real head (h3) closes.
func TestStackOutOfOrderClose(t *testing.T) {
	s := NewStack("test")
	h1 := s.Push("A", nil)
	h2 := s.Push("B", nil)
	h3 := s.Push("C", nil)

	require.NoError(t, h1.Close())
	v, ok := activeValue(t, s)
	require.True(t, ok)
	assert.Equal(t, "C", v)

	require.NoError(t, h2.Close())
	v, ok = activeValue(t, s)
	require.True(t, ok)
	assert.Equal(t, "C", v)

	require.NoError(t, h3.Close())
	_, ok = s.Active()
	assert.False(t, ok)
}

// TestStackOutOfOrderClosePermutations is the property-style test spec §8
// invariant 3 calls for: nested opens h1,h2,h3 closed in any permutation end
// up with the pre-h1 active value restored.
func TestStackOutOfOrderClosePermutations(t *testing.T) {
	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, perm := range perms {
		s := NewStack("test")
		base := s.Push("base", nil)
		handles := []Handle{s.Push("A", nil), s.Push("B", nil), s.Push("C", nil)}

		for _, i := range perm {
			require.NoError(t, handles[i].Close())
		}

		v, ok := activeValue(t, s)
		require.True(t, ok)
		assert.Equal(t, "base", v)
		require.NoError(t, base.Close())
	}
}

func TestStackClearClosesEveryNode(t *testing.T) {
	s := NewStack("test")
	h1 := s.Push("a", nil)
	h2 := s.Push("b", nil)

	var closed []any
	s.Clear(func(v any) { closed = append(closed, v) })

	_, ok := s.Active()
	assert.False(t, ok)
	assert.True(t, h1.Closed())
	assert.True(t, h2.Closed())
	assert.ElementsMatch(t, []any{"a", "b"}, closed)
}

func TestStackPerGoroutineIsolation(t *testing.T) {
	s := NewStack("test")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h := s.Push(n, nil)
			v, ok := activeValue(t, s)
			require.True(t, ok)
			assert.Equal(t, n, v)
			require.NoError(t, h.Close())
			_, ok = s.Active()
			assert.False(t, ok)
		}(i)
	}
	wg.Wait()
}
