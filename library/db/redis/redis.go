package redis

import (
	"context"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Config 零值字段取 DefaultConfig 中的值
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SlowThreshold 超过该耗时的命令打印警告
	SlowThreshold time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:          "127.0.0.1:6379",
		PoolSize:      10,
		MinIdleConns:  5,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func (c *Config) merge() (Config, error) {
	merged := DefaultConfig()
	if c == nil {
		return merged, nil
	}
	merged = *c
	err := mergo.Merge(&merged, DefaultConfig())
	return merged, err
}

func toOptions(c Config) *redis.Options {
	return &redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxIdleConns:    c.PoolSize,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ConnMaxLifetime: 2 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewClient 不做连通性检查
func NewClient(c *Config) (*redis.Client, error) {
	merged, err := c.merge()
	if err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	client := redis.NewClient(toOptions(merged))
	client.AddHook(slowLog{threshold: merged.SlowThreshold})
	return client, nil
}

// Open 创建客户端并 ping, 返回 cleanup
func Open(ctx context.Context, c *Config) (*redis.Client, func(), error) {
	client, err := NewClient(c)
	if err != nil {
		return nil, nil, err
	}
	opts := client.Options()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	log.Infof("redis connected. addr=%s db=%d pool=%d", opts.Addr, opts.DB, opts.PoolSize)

	return client, func() {
		if err := client.Close(); err != nil {
			log.Errorf("redis close: %v", err)
		}
	}, nil
}

// slowLog 慢命令日志
type slowLog struct {
	threshold time.Duration
}

func (h slowLog) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h slowLog) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		if cost := time.Since(start); cost > h.threshold {
			log.Warnf("redis slow command. cmd=%q cost=%v", cmd.Name(), cost)
		}
		return err
	}
}

func (h slowLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if cost := time.Since(start); cost > h.threshold {
			log.Warnf("redis slow pipeline. cmds=%d cost=%v", len(cmds), cost)
		}
		return err
	}
}
