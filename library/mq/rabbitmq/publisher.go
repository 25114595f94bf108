package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/streadway/amqp"
)

var ErrPublisherClosed = errors.New("rabbitmq: publisher closed")

// Publisher 生产者, 线程安全. 连接断开后下一次 Publish 时重连
type Publisher struct {
	opts    Options
	pubOpts PublisherOptions
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	closed  bool
}

func NewPublisher(opts Options, pubOpts PublisherOptions) (*Publisher, error) {
	p := &Publisher{opts: opts, pubOpts: pubOpts}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.opts.BuildURL())
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel failed: %w", err)
	}
	if err = p.declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) declare(ch *amqp.Channel) error {
	if p.pubOpts.Exchange != "" {
		if err := ch.ExchangeDeclare(
			p.pubOpts.Exchange,
			p.pubOpts.ExchangeType,
			true, false, false, false, nil,
		); err != nil {
			return err
		}
	}
	if p.pubOpts.Queue != "" {
		if _, err := ch.QueueDeclare(p.pubOpts.Queue, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// Publish 发送一条持久化消息, 返回消息ID
func (p *Publisher) Publish(ctx context.Context, contentType string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	msg := amqp.Publishing{
		ContentType:  contentType,
		MessageId:    id,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPublisherClosed
	}
	if p.ch == nil {
		if err = p.connect(); err != nil {
			return "", err
		}
	}
	err = p.ch.Publish(p.pubOpts.Exchange, p.pubOpts.RoutingKey, p.pubOpts.Mandatory, p.pubOpts.Immediate, msg)
	if errors.Is(err, amqp.ErrClosed) {
		log.Warnf("rabbitmq publisher reconnecting: %v", err)
		p.release()
		if err = p.connect(); err != nil {
			return "", err
		}
		err = p.ch.Publish(p.pubOpts.Exchange, p.pubOpts.RoutingKey, p.pubOpts.Mandatory, p.pubOpts.Immediate, msg)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Publisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.release()
}
