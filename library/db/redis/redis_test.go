package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	tests := []struct {
		name string
		conf *Config
		addr string
		pool int
	}{
		{"nil", nil, "127.0.0.1:6379", 10},
		{"zero", &Config{}, "127.0.0.1:6379", 10},
		{"override", &Config{Addr: "10.0.0.1:6380", PoolSize: 32}, "10.0.0.1:6380", 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.conf)
			require.NoError(t, err)
			defer c.Close()
			o := c.Options()
			assert.Equal(t, tt.addr, o.Addr)
			assert.Equal(t, tt.pool, o.PoolSize)
			assert.Equal(t, 5, o.MinIdleConns)
		})
	}
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client, cleanup, err := Open(context.Background(), &Config{Addr: mr.Addr(), DB: 0, SlowThreshold: time.Nanosecond})
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	_, err = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Get(ctx, "k")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", client.Get(ctx, "k").Val())
}

func TestOpen_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// 端口 1 上没有 redis
	_, _, err := Open(ctx, &Config{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
}
