package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselane/go-session"
)

func TestMemoryTokenStore(t *testing.T) {
	store := session.NewMemoryTokenStore()

	token, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, token, "new slot starts empty")

	require.NoError(t, store.Set("first-token"))
	token, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "first-token", token)

	require.NoError(t, store.Set("second-token"))
	token, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "second-token", token, "the slot holds at most one token")

	require.NoError(t, store.Clear())
	token, err = store.Get()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryTokenStoreConcurrentAccess(t *testing.T) {
	store := session.NewMemoryTokenStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("token")
			_, _ = store.Get()
			_ = store.Clear()
		}()
	}
	wg.Wait()
}
