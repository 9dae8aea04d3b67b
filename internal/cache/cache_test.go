package cache

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := CollectionIdeasKey("01HZX")

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`[{"id":"a"}]`)))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, c.Delete(ctx, CollectionIdeasKey("missing")))
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(time.Minute))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(context.Background(), "k", []byte("v")))
	now = now.Add(30 * time.Second)
	_, ok, _ := m.Get(context.Background(), "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestCollectionIdeasKey(t *testing.T) {
	assert.Equal(t, "ideas:collection:c1", CollectionIdeasKey("c1"))
	assert.Equal(t, "ideas.collection.c1", kvKey(CollectionIdeasKey("c1")))
}

func runJetStream(t *testing.T) *nats.Conn {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestKV(t *testing.T) {
	nc := runJetStream(t)
	c := New(context.Background(), nc, "ideas-cache", time.Minute, zaptest.NewLogger(t))
	require.IsType(t, &KV{}, c)
	exerciseCache(t, c)
}

func TestNew_FallsBackToMemory(t *testing.T) {
	logger := zaptest.NewLogger(t)
	assert.IsType(t, &Memory{}, New(context.Background(), nil, "bucket", 0, logger))

	nc := runJetStream(t)
	assert.IsType(t, &Memory{}, New(context.Background(), nc, "", 0, logger))
}
