package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionalRWMutex(t *testing.T) {
	locked := OptionalRWMutex{UseMutex: true}
	locked.Lock()
	require.False(t, locked.Mutex.TryRLock())
	locked.Unlock()

	locked.RLock()
	require.True(t, locked.Mutex.TryRLock())
	require.False(t, locked.Mutex.TryLock())
	locked.Mutex.RUnlock()
	locked.RUnlock()

	unlocked := OptionalRWMutex{}
	unlocked.Lock()
	unlocked.Lock()
	require.True(t, unlocked.Mutex.TryLock())
	unlocked.Mutex.Unlock()
	unlocked.Unlock()
	unlocked.RLock()
	unlocked.RUnlock()
}
