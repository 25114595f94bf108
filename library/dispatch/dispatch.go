package dispatch

import (
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/library/xgo"
)

var (
	// ErrHandlerNotFound 消息类型没有绑定处理器
	ErrHandlerNotFound = errors.New("dispatch: handler not found")
	// ErrHandlerExecution 处理器执行时 panic
	ErrHandlerExecution = errors.New("dispatch: handler execution failed")
)

// Session 处理器可见的连接
type Session interface {
	ID() string
	// UID 登录用户ID, 未登录为 0
	UID() int64
	SetUID(uid int64)
	// Send 发送一个已编码的帧, 不阻塞
	Send(data []byte) error
	// Closed 连接已断开. 关闭之后才投递断开任务
	Closed() bool
}

// Handler 某一消息类型的处理器, 只在 loop 中调用
type Handler interface {
	MsgName() string
	Handle(s Session, msg codec.Message)
}

type typedHandler[M any, PM interface {
	*M
	codec.Message
}] struct {
	name string
	fn   func(Session, PM)
}

func (h *typedHandler[M, PM]) MsgName() string { return h.name }

func (h *typedHandler[M, PM]) Handle(s Session, msg codec.Message) {
	m, ok := msg.(PM)
	if !ok {
		log.Errorf("handler %s: unexpected message %T", h.name, msg)
		return
	}
	h.fn(s, m)
}

// Bind 绑定消息类型与处理函数, 消息类型由函数签名决定
//
//	dispatch.Bind(func(s dispatch.Session, cmd *v1.UserAttkCmd) { ... })
func Bind[M any, PM interface {
	*M
	codec.Message
}](fn func(Session, PM)) Handler {
	return &typedHandler[M, PM]{name: PM(new(M)).MsgName(), fn: fn}
}

// HandlerFunc 以名字绑定的处理函数, 供动态场景使用
type HandlerFunc struct {
	Name string
	Fn   func(Session, codec.Message)
}

func (h HandlerFunc) MsgName() string                     { return h.Name }
func (h HandlerFunc) Handle(s Session, msg codec.Message) { h.Fn(s, msg) }

// Dispatcher 消息类型 -> 处理器, 构造后只读
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher 由处理器表构造, 类型重复或未在注册表中登记时报错
func NewDispatcher(reg *codec.Registry, handlers ...Handler) (*Dispatcher, error) {
	d := &Dispatcher{handlers: make(map[string]Handler, len(handlers))}
	var errs []error
	for _, h := range handlers {
		if h == nil {
			errs = append(errs, errors.New("nil handler"))
			continue
		}
		name := h.MsgName()
		if _, ok := d.handlers[name]; ok {
			errs = append(errs, fmt.Errorf("duplicate handler for %s", name))
			continue
		}
		if reg != nil {
			if _, ok := reg.Code(name); !ok {
				errs = append(errs, fmt.Errorf("handler for unregistered message %s", name))
				continue
			}
		}
		d.handlers[name] = h
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("dispatch: invalid handler table: %w", errors.Join(errs...))
	}
	return d, nil
}

// Has 是否存在处理器
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Dispatch 调用消息对应的处理器. 处理器 panic 会被恢复并记录, 不会传播给调用方
func (d *Dispatcher) Dispatch(s Session, msg codec.Message) (err error) {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrHandlerNotFound)
	}
	h, ok := d.handlers[msg.MsgName()]
	if !ok {
		log.Warnf("no handler for %s, session=%s", msg.MsgName(), sessionID(s))
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, msg.MsgName())
	}

	defer xgo.RecoverFromError(func(e any) {
		err = fmt.Errorf("%w: %s: %v", ErrHandlerExecution, msg.MsgName(), e)
		log.Errorf("session=%s uid=%d %v", sessionID(s), sessionUID(s), err)
	})
	h.Handle(s, msg)
	return nil
}

func sessionID(s Session) string {
	if s == nil {
		return ""
	}
	return s.ID()
}

func sessionUID(s Session) int64 {
	if s == nil {
		return 0
	}
	return s.UID()
}
