package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionState struct {
	Bit    string `json:"bit"`
	Status string `json:"status"`
}

func TestLockAndState(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 15)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	lock, err := client.AcquireLock(ctx, "s1:orders:complete:o1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	second, err := client.AcquireLock(ctx, "s1:orders:complete:o1", time.Second)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, client.ReleaseLock(ctx, lock))

	require.NoError(t, client.SaveState(ctx, "s1", sessionState{Bit: "Bit 2"}, time.Minute))
	var got sessionState
	found, err := client.LoadState(ctx, "s1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Bit 2", got.Bit)

	first, err := client.ClaimIdempotencyKey(ctx, "plan-1", time.Minute)
	require.NoError(t, err)
	again, err := client.ClaimIdempotencyKey(ctx, "plan-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, again)
}

func TestStateKey(t *testing.T) {
	assert.Equal(t, "session:abc:state", stateKey("abc"))
}
