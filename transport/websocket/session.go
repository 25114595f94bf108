package websocket

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yola1107/herostory/library/xgo"
)

var (
	ErrSessionClosed  = errors.New("session: closed")
	ErrSendBufferFull = errors.New("session: send buffer full, message dropped")
	errSendNil        = errors.New("session: send nil message")
)

// Handler 连接事件回调, 在会话的读协程中调用, 不能阻塞
type Handler interface {
	// OnSessionOpen 会话建立后回调
	OnSessionOpen(sess *Session)
	// OnSessionClose 会话断开时回调, 每个会话只调用一次
	OnSessionClose(sess *Session)
	// OnMessage 收到一个二进制帧
	OnMessage(sess *Session, data []byte)
}

type SessionConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	// ReadDeadline 超过该时间没有任何入站数据(含 pong)即断开
	ReadDeadline time.Duration
	SendChanSize int
	// RateLimit 每秒允许的入站帧数, <=0 不限制
	RateLimit float64
	RateBurst int
	// MaxMessageSize 单帧最大字节数, <=0 不限制
	MaxMessageSize int64
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		WriteTimeout:   10 * time.Second,
		PingInterval:   15 * time.Second,
		ReadDeadline:   60 * time.Second,
		SendChanSize:   128,
		MaxMessageSize: 0xFFFF + 2,
	}
}

// Session 一条 websocket 连接.
// 读协程负责回调 Handler, 写协程独占数据帧与 ping 的写入.
type Session struct {
	id         string
	uid        atomic.Int64
	h          Handler
	conn       *websocket.Conn
	conf       SessionConfig
	limiter    *rate.Limiter
	sendChan   chan []byte
	closed     atomic.Bool
	lastActive atomic.Int64 // unix nano
	dropped    atomic.Int64
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewSession(h Handler, conn *websocket.Conn, c SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		h:        h,
		conn:     conn,
		conf:     c,
		sendChan: make(chan []byte, max(c.SendChanSize, 1)),
		ctx:      ctx,
		cancel:   cancel,
	}
	if c.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(c.RateLimit), max(c.RateBurst, 1))
	}
	if c.MaxMessageSize > 0 {
		conn.SetReadLimit(c.MaxMessageSize)
	}
	conn.SetPongHandler(func(string) error {
		s.touch()
		return s.extendReadDeadline()
	})
	s.touch()
	s.h.OnSessionOpen(s)
	go s.readLoop()
	go s.writeLoop()
	return s
}

func (s *Session) ID() string         { return s.id }
func (s *Session) UID() int64         { return s.uid.Load() }
func (s *Session) SetUID(uid int64)   { s.uid.Store(uid) }
func (s *Session) Closed() bool       { return s.closed.Load() }
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr().String() }

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Dropped 因发送缓冲区满而丢弃的消息数
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// Context 会话关闭时取消
func (s *Session) Context() context.Context {
	return s.ctx
}

// Send 写入发送队列, 不阻塞. 队列满时丢弃并返回 ErrSendBufferFull
func (s *Session) Send(message []byte) error {
	if message == nil {
		return errSendNil
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	default:
		s.dropped.Add(1)
		return ErrSendBufferFull
	}
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) extendReadDeadline() error {
	if s.conf.ReadDeadline <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(s.conf.ReadDeadline))
}

func (s *Session) readLoop() {
	reason := "Normal Closure"
	defer func() { s.shutdown(reason) }()
	defer xgo.RecoverFromError(nil)

	for {
		if err := s.extendReadDeadline(); err != nil {
			return
		}
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				reason = "Heartbeat timeout"
				log.Warnf("sessionID=%q uid=%d heartbeat timeout", s.id, s.UID())
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure):
				log.Warnf("sessionID=%q unexpected close: %v", s.id, err)
			}
			return
		}
		s.touch()

		if msgType != websocket.BinaryMessage {
			log.Warnf("sessionID=%q unsupported message type: %d", s.id, msgType)
			continue
		}
		if s.limiter != nil && !s.limiter.Allow() {
			log.Warnf("sessionID=%q uid=%d rate limited, frame dropped", s.id, s.UID())
			continue
		}
		s.h.OnMessage(s, data)
	}
}

func (s *Session) writeLoop() {
	var ping <-chan time.Time
	if s.conf.PingInterval > 0 {
		ticker := time.NewTicker(s.conf.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.sendChan:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.conf.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				if !s.Closed() {
					log.Errorf("sessionID=%q write error: %v", s.id, err)
				}
				s.shutdown("Write failed")
				return
			}
		case <-ping:
			if err := s.control(websocket.PingMessage, nil); err != nil {
				s.shutdown("Ping failed")
				return
			}
		}
	}
}

// Close 关闭会话, 只有第一次调用返回 true
func (s *Session) Close(force bool) bool {
	if force {
		return s.shutdown("Force Closure")
	}
	return s.shutdown("Normal Closure")
}

func (s *Session) shutdown(reason string) bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	_ = s.control(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	s.cancel()
	_ = s.conn.Close()
	s.h.OnSessionClose(s)
	return true
}

// control 可与写协程并发调用
func (s *Session) control(msgType int, data []byte) error {
	return s.conn.WriteControl(msgType, data, time.Now().Add(s.conf.WriteTimeout))
}
