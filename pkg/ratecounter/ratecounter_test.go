package ratecounter_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/log"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/ratecounter"
)

func TestNopCounter(t *testing.T) {
	t.Parallel()

	counter := ratecounter.NopCounter{}

	count, err := counter.Hit(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, counter.Close())
}

// Needs a reachable Redis. Point TEST_REDIS_ADDR at one to run; skipped
// otherwise.
func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	counter, err := ratecounter.NewRedisCounter(context.Background(), log.WithModule("test"), addr, time.Minute)
	require.NoError(t, err)

	t.Cleanup(func() { _ = counter.Close() })

	userID := time.Now().UnixNano()

	first, err := counter.Hit(context.Background(), 1, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := counter.Hit(context.Background(), 1, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)
}
