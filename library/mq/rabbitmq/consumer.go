package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/panjf2000/ants/v2"
	"github.com/streadway/amqp"

	"github.com/yola1107/herostory/library/xgo"
)

const (
	defaultRetryInterval = 3 * time.Second
)

// MessageHandler 处理一条消息, 返回错误时 Nack 并重新入队
type MessageHandler func(ctx context.Context, body []byte) error

type Consumer struct {
	opts    Options
	copts   ConsumerOptions
	handler MessageHandler
	pool    *ants.Pool
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	started atomic.Bool
	stopped chan struct{}
}

func NewConsumer(opts Options, copts ConsumerOptions, handler MessageHandler) (*Consumer, error) {
	copts = copts.withDefaults()
	// 阻塞模式: 所有 worker 忙时投递循环等待, 与 Qos 一起形成背压
	pool, err := ants.NewPool(copts.Workers, ants.WithPanicHandler(func(e any) {
		log.Errorf("rabbitmq consumer worker panic: %v", e)
	}))
	if err != nil {
		return nil, fmt.Errorf("rabbitmq worker pool: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		opts:    opts,
		copts:   copts,
		handler: handler,
		pool:    pool,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}, nil
}

/*
Start
- 启动一个后台 goroutine
- 自动重连
- Close 后不会再重连
*/
func (c *Consumer) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.stopped)
		defer xgo.RecoverFromError(nil)

		for c.ctx.Err() == nil {
			err := c.connectAndConsume()
			if err == nil || c.ctx.Err() != nil {
				continue
			}
			log.Warnf("[Consumer] disconnected, retrying in %s: %v", defaultRetryInterval, err)
			select {
			case <-c.ctx.Done():
			case <-time.After(defaultRetryInterval):
			}
		}
	}()
}

func (c *Consumer) connectAndConsume() error {
	conn, err := amqp.Dial(c.opts.BuildURL())
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel failed: %w", err)
	}
	closeAll := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	msgs, err := c.setup(ch)
	if err != nil {
		closeAll()
		return err
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()
	log.Infof("[Consumer] consuming queue=%s tag=%s workers=%d", c.copts.Queue, c.copts.ConsumerTag, c.copts.Workers)

	notifyClose := ch.NotifyClose(make(chan *amqp.Error, 1))
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-c.ctx.Done():
			// 主动关闭，不重连
			closeAll()
			return nil
		case amqpErr := <-notifyClose:
			closeAll()
			if amqpErr == nil {
				return fmt.Errorf("channel closed")
			}
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				closeAll()
				return fmt.Errorf("delivery channel closed")
			}
			inflight.Add(1)
			if err = c.pool.Submit(func() {
				defer inflight.Done()
				c.handle(d)
			}); err != nil {
				inflight.Done()
				log.Errorf("[Consumer] submit failed: %v", err)
				c.nack(d)
			}
		}
	}
}

func (c *Consumer) setup(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(c.copts.PrefetchCount, 0, false); err != nil {
		return nil, err
	}
	if c.copts.Exchange != "" {
		if err := ch.ExchangeDeclare(c.copts.Exchange, c.copts.ExchangeType, true, false, false, false, nil); err != nil {
			return nil, err
		}
	}
	if _, err := ch.QueueDeclare(c.copts.Queue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	if c.copts.Exchange != "" {
		if err := ch.QueueBind(c.copts.Queue, c.copts.RoutingKey, c.copts.Exchange, false, nil); err != nil {
			return nil, err
		}
	}
	return ch.Consume(c.copts.Queue, c.copts.ConsumerTag, c.copts.AutoAck, false, false, false, nil)
}

func (c *Consumer) handle(d amqp.Delivery) {
	if err := c.handler(c.ctx, d.Body); err != nil {
		log.Errorf("[Consumer] handle message %s: %v", d.MessageId, err)
		c.nack(d)
		return
	}
	if !c.copts.AutoAck {
		if err := d.Ack(false); err != nil {
			log.Warnf("[Consumer] ack %s: %v", d.MessageId, err)
		}
	}
}

func (c *Consumer) nack(d amqp.Delivery) {
	if c.copts.AutoAck {
		return
	}
	// 已经重投过的消息不再入队, 避免毒消息无限循环
	if err := d.Nack(false, !d.Redelivered); err != nil {
		log.Warnf("[Consumer] nack %s: %v", d.MessageId, err)
	}
}

// Running 正在处理的消息数
func (c *Consumer) Running() int {
	return c.pool.Running()
}

func (c *Consumer) Close() {
	c.once.Do(func() {
		c.cancel()

		c.mu.Lock()
		if c.ch != nil {
			_ = c.ch.Close()
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()

		if c.started.Load() {
			<-c.stopped
		}
		c.pool.Release()
	})
}
