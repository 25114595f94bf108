package websocket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"

	"github.com/yola1107/herostory/library/xgo"
)

var (
	errClosedRequest = errors.New("client: session not established")
	errMaxRetries    = errors.New("client: max retries reached")
	errInvalidURL    = errors.New("client: invalid URL")
)

// MessageHandler 收到服务端的一个二进制帧
type MessageHandler func(data []byte)

type ClientOption func(*clientOptions)

func WithTLSConf(c *tls.Config) ClientOption {
	return func(o *clientOptions) { o.tlsConf = c }
}

// WithHeartbeat 读超时, ping 间隔, 写超时
func WithHeartbeat(readDeadline, pingInterval, writeTimeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.session.ReadDeadline = readDeadline
		o.session.PingInterval = pingInterval
		o.session.WriteTimeout = writeTimeout
	}
}

// WithEndpoint 没有 scheme 时按是否配置 TLS 补 ws:// 或 wss://
func WithEndpoint(endpoint string) ClientOption {
	return func(o *clientOptions) { o.endpoint = endpoint }
}

func WithConnectFunc(fn func(*Session)) ClientOption {
	return func(o *clientOptions) { o.onConnect = fn }
}

func WithDisconnectFunc(fn func(*Session)) ClientOption {
	return func(o *clientOptions) { o.onDisconnect = fn }
}

func WithMessageHandler(fn MessageHandler) ClientOption {
	return func(o *clientOptions) { o.onMessage = fn }
}

// WithRetryPolicy 指数退避重连. maxAttempt <0 无限重试, 0 不重试
func WithRetryPolicy(baseDelay, maxDelay time.Duration, maxAttempt int32) ClientOption {
	return func(o *clientOptions) {
		o.baseDelay, o.maxDelay, o.maxAttempt = baseDelay, maxDelay, maxAttempt
	}
}

type clientOptions struct {
	tlsConf      *tls.Config
	endpoint     string
	onConnect    func(*Session)
	onDisconnect func(*Session)
	onMessage    MessageHandler
	session      SessionConfig
	baseDelay    time.Duration
	maxDelay     time.Duration
	maxAttempt   int32
}

// Client 二进制帧客户端, 压测机器人和集成测试使用
type Client struct {
	ctx     context.Context
	opts    clientOptions
	url     *url.URL
	mu      sync.Mutex
	session *Session
	closing atomic.Bool
}

// NewClient 同步建立第一条连接, 断线后在后台按重试策略重连
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		endpoint:  "ws://127.0.0.1:12345/",
		session:   defaultSessionConfig(),
		baseDelay: 3 * time.Second,
		maxDelay:  15 * time.Second,
	}
	o.session.PingInterval = 10 * time.Second
	o.session.MaxMessageSize = 0
	for _, opt := range opts {
		opt(&o)
	}

	u, err := parseURL(o.endpoint, o.tlsConf == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidURL, err)
	}
	c := &Client{ctx: ctx, opts: o, url: u}
	if err = c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseURL(endpoint string, insecure bool) (*url.URL, error) {
	if !strings.Contains(endpoint, "://") {
		scheme := "wss://"
		if insecure {
			scheme = "ws://"
		}
		endpoint = scheme + endpoint
	}
	return url.Parse(endpoint)
}

func (c *Client) IsAlive() bool {
	sess := c.Session()
	return sess != nil && !sess.Closed()
}

func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.baseDelay
	b.MaxInterval = c.opts.maxDelay
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.1
	return b
}

// dial 连接成功返回 nil, 否则重试到次数用完或 ctx 结束
func (c *Client) dial() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.session.WriteTimeout,
		TLSClientConfig:  c.opts.tlsConf,
	}
	bo := c.newBackOff()

	for attempt := int32(1); ; attempt++ {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		conn, _, err := dialer.DialContext(c.ctx, c.url.String(), nil)
		if err == nil {
			NewSession(c, conn, c.opts.session)
			return nil
		}
		if c.opts.maxAttempt >= 0 && attempt > c.opts.maxAttempt {
			return fmt.Errorf("%w: %v", errMaxRetries, err)
		}

		delay := bo.NextBackOff()
		log.Warnf("reconnecting to %q. attempt=%d retrying in %v: %v", c.url, attempt, delay, err)
		select {
		case <-time.After(delay):
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

// OnSessionOpen 先记录新会话, 回调里即可发送
func (c *Client) OnSessionOpen(sess *Session) {
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	if c.opts.onConnect != nil {
		c.opts.onConnect(sess)
	}
}

func (c *Client) OnSessionClose(sess *Session) {
	if c.opts.onDisconnect != nil {
		c.opts.onDisconnect(sess)
	}
	if c.closing.Load() || c.opts.maxAttempt == 0 {
		return
	}
	go func() {
		if err := c.dial(); err != nil {
			log.Warnf("client reconnect to %q failed: %v", c.url, err)
		}
	}()
}

func (c *Client) OnMessage(_ *Session, data []byte) {
	if c.opts.onMessage == nil {
		return
	}
	defer xgo.RecoverFromError(nil)
	c.opts.onMessage(data)
}

// Send 发送一个已编码的帧
func (c *Client) Send(data []byte) error {
	sess := c.Session()
	if sess == nil || sess.Closed() {
		return errClosedRequest
	}
	return sess.Send(data)
}

func (c *Client) Close() {
	c.closing.Store(true)
	if sess := c.Session(); sess != nil {
		sess.Close(false)
	}
}
