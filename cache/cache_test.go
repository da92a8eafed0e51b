package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StableAndDistinct(t *testing.T) {
	type req struct {
		Model string             `json:"model"`
		Base  map[string]float64 `json:"base"`
	}
	a, err := Key("grid", req{Model: "dcf", Base: map[string]float64{"growth": 0.03, "discount": 0.08}})
	require.NoError(t, err)
	b, err := Key("grid", req{Model: "dcf", Base: map[string]float64{"discount": 0.08, "growth": 0.03}})
	require.NoError(t, err)
	c, err := Key("grid", req{Model: "dcf", Base: map[string]float64{"discount": 0.09, "growth": 0.03}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^grid:[0-9a-f]{16}$`, a)

	_, err = Key("grid", func() {})
	assert.Error(t, err)
}

func TestMemory_GetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"cells":[]}`)
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'X' // stored copy is independent

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"cells":[]}`, string(got))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestRedis_UnreachableServerReportsError(t *testing.T) {
	r := NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer r.Close()

	_, ok, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, r.Ping(context.Background()))
}
