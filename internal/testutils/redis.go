package testutils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/redis"
)

// CreateTestRedisClient creates an in-memory Redis client for testing. The
// returned server lets tests fast-forward TTLs; both are closed when the test
// ends.
func CreateTestRedisClient(t testing.TB) (redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to create miniredis")

	client, err := redis.NewClient(mr.Addr(), nil)
	require.NoError(t, err, "failed to create redis client")

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}
