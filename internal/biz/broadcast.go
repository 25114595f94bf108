package biz

import (
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/library/dispatch"
)

// Broadcaster 在线会话集合. 消息只编码一次, 发送不阻塞调用方
type Broadcaster struct {
	codec    *codec.Codec
	mu       sync.RWMutex
	sessions map[string]dispatch.Session
}

func NewBroadcaster(c *codec.Codec) *Broadcaster {
	return &Broadcaster{codec: c, sessions: make(map[string]dispatch.Session)}
}

func (b *Broadcaster) Add(s dispatch.Session) {
	b.mu.Lock()
	b.sessions[s.ID()] = s
	b.mu.Unlock()
}

func (b *Broadcaster) Remove(s dispatch.Session) {
	b.mu.Lock()
	delete(b.sessions, s.ID())
	b.mu.Unlock()
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Broadcast 发送给所有会话, 单个会话发送失败只记录日志
func (b *Broadcaster) Broadcast(msg codec.Message) {
	data, err := b.codec.Encode(msg)
	if err != nil {
		log.Errorf("broadcast %s: %v", msg.MsgName(), err)
		return
	}

	b.mu.RLock()
	sessions := lo.Values(b.sessions)
	b.mu.RUnlock()

	for _, s := range sessions {
		if err = s.Send(data); err != nil {
			log.Warnf("broadcast %s to session=%s uid=%d: %v", msg.MsgName(), s.ID(), s.UID(), err)
		}
	}
}

// Send 发送给单个会话
func (b *Broadcaster) Send(s dispatch.Session, msg codec.Message) {
	data, err := b.codec.Encode(msg)
	if err != nil {
		log.Errorf("send %s: %v", msg.MsgName(), err)
		return
	}
	if err = s.Send(data); err != nil {
		log.Warnf("send %s to session=%s uid=%d: %v", msg.MsgName(), s.ID(), s.UID(), err)
	}
}
