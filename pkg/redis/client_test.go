package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = New(context.Background(), Config{Addr: mr.Addr(), MaxRetries: -1})
	assert.Error(t, err)
}

func TestClient_AppendCapped(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c", "d"} {
		require.NoError(t, client.AppendCapped(ctx, "journal", v, 3, time.Minute))
	}

	values, err := client.Range(ctx, "journal", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, values)
	assert.Equal(t, time.Minute, mr.TTL("journal"))

	require.NoError(t, client.Delete(ctx, "journal"))
	assert.False(t, mr.Exists("journal"))
}

func TestMetricsClient_CountsRequests(t *testing.T) {
	_, client := setupTestRedis(t)
	instrumented := NewMetricsClient(client)
	ctx := context.Background()

	before := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("append_capped"))
	require.NoError(t, instrumented.AppendCapped(ctx, "k", "v", 10, 0))
	assert.Equal(t, before+1, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("append_capped")))

	values, err := instrumented.Range(ctx, "k", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, values)

	require.NoError(t, instrumented.Ping(ctx).Err())
	require.NoError(t, instrumented.Delete(ctx, "k"))
}

func TestMetricsClient_CountsErrors(t *testing.T) {
	mr, client := setupTestRedis(t)
	instrumented := NewMetricsClient(client)
	ctx := context.Background()

	require.NoError(t, mr.Set("plain", "string"))

	before := testutil.ToFloat64(redisErrorsTotal.WithLabelValues("range"))
	_, err := instrumented.Range(ctx, "plain", 0, -1)
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(redisErrorsTotal.WithLabelValues("range")))
}
