package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	m := New(64)

	ok := m.StoreInt(0x1122334455667788, 8, 8)
	require.True(t, ok)

	v, ok := m.LoadInt(8, 8)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1122334455667788), v)
}

func TestStoreLoadTruncatedLength(t *testing.T) {
	m := New(64)
	require.True(t, m.StoreInt(0x1122334455667788, 0, 3))

	v, ok := m.LoadInt(0, 3)
	require.True(t, ok)
	assert.Equal(t, uint64(0x667788), v)
}

func TestOutOfBoundsFails(t *testing.T) {
	m := New(8)
	assert.False(t, m.StoreInt(1, 4, 8))
	assert.False(t, m.StoreInt(1, -1, 1))
	_, ok := m.LoadInt(100, 8)
	assert.False(t, ok)
}

func TestCString(t *testing.T) {
	m := New(32)
	require.True(t, m.StoreBytes([]byte("hi\x00"), 0))
	s, ok := m.LoadCString(0)
	require.True(t, ok)
	assert.Equal(t, "hi", string(s))
}
