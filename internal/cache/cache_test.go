package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchComputesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	calls := 0
	compute := func() (string, error) {
		calls++
		return "pae:PA0001", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, m, "lookup:kegg:x", compute)
		require.NoError(t, err)
		assert.Equal(t, "pae:PA0001", v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.Len())
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	m := NewMemory()
	_, err := Fetch(context.Background(), m, "k", func() (string, error) { return "", errors.New("503") })
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestFetchCachesEmptyAnswers(t *testing.T) {
	m := NewMemory()
	_, err := Fetch(context.Background(), m, "k", func() (string, error) { return "", nil })
	require.NoError(t, err)

	_, ok, _ := m.Get(context.Background(), "k")
	assert.True(t, ok)
}

func TestFetchWithoutStore(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "k", func() (string, error) { return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
