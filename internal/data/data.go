package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/yola1107/herostory/internal/conf"
	xredis "github.com/yola1107/herostory/library/db/redis"
	"github.com/yola1107/herostory/library/mq/rabbitmq"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewRedis, NewPublisher, NewData, NewUserRepo, NewRankRepo, NewVictoryPublisher)

// Data 外部存储客户端
type Data struct {
	redis     redis.UniversalClient
	publisher *rabbitmq.Publisher
	log       *log.Helper
}

// NewData publisher 可为 nil (排行榜消费进程不发布消息)
func NewData(rdb *redis.Client, pub *rabbitmq.Publisher, logger log.Logger) (*Data, error) {
	if rdb == nil {
		return nil, errors.New("data: nil redis client")
	}
	return &Data{
		redis:     rdb,
		publisher: pub,
		log:       log.NewHelper(log.With(logger, "module", "data")),
	}, nil
}

// NewRedis 连接 redis 并 ping
func NewRedis(c *conf.Data) (*redis.Client, func(), error) {
	if c == nil || c.Redis == nil {
		return nil, nil, errors.New("data: redis config missing")
	}
	return xredis.Open(context.Background(), RedisConfig(c.Redis))
}

// NewPublisher 连接 rabbitmq 并声明交换机与队列
func NewPublisher(c *conf.Data) (*rabbitmq.Publisher, func(), error) {
	if c == nil || c.Rabbitmq == nil {
		return nil, nil, errors.New("data: rabbitmq config missing")
	}
	pub, err := rabbitmq.NewPublisher(MQOptions(c.Rabbitmq), PublisherOptions(c.Rabbitmq))
	if err != nil {
		return nil, nil, err
	}
	log.Infof("rabbitmq publisher connected. host=%s exchange=%s", c.Rabbitmq.Host, c.Rabbitmq.Exchange)
	return pub, pub.Close, nil
}

func RedisConfig(c *conf.Redis) *xredis.Config {
	return &xredis.Config{
		Addr:          c.Addr,
		Password:      c.Password,
		DB:            c.DB,
		PoolSize:      c.PoolSize,
		MinIdleConns:  c.MinIdleConns,
		DialTimeout:   c.DialTimeout.Std(),
		ReadTimeout:   c.ReadTimeout.Std(),
		WriteTimeout:  c.WriteTimeout.Std(),
		SlowThreshold: c.SlowThreshold.Std(),
	}
}

func MQOptions(c *conf.Rabbitmq) rabbitmq.Options {
	return rabbitmq.Options{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		VHost:    c.VHost,
	}
}

func PublisherOptions(c *conf.Rabbitmq) rabbitmq.PublisherOptions {
	opts := rabbitmq.DefaultPublisherOptions()
	opts.Exchange = c.Exchange
	if c.ExchangeType != "" {
		opts.ExchangeType = c.ExchangeType
	}
	opts.RoutingKey = c.RoutingKey
	opts.Queue = c.Queue
	return opts
}

func ConsumerOptions(c *conf.Rabbitmq, rc *conf.RankConsumer) rabbitmq.ConsumerOptions {
	opts := rabbitmq.DefaultConsumerOptions()
	opts.Queue = c.Queue
	opts.Exchange = c.Exchange
	if c.ExchangeType != "" {
		opts.ExchangeType = c.ExchangeType
	}
	opts.RoutingKey = c.RoutingKey
	if rc != nil {
		opts.Workers = rc.Workers
		opts.PrefetchCount = rc.Prefetch
	}
	return opts
}
