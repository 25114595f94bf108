package dispatch

import (
	"github.com/yola1107/herostory/library/codec"
)

// Inbound 一条已解码的入站消息, 作为任务投递到 loop
type Inbound struct {
	d       *Dispatcher
	session Session
	msg     codec.Message
}

func NewInbound(d *Dispatcher, s Session, msg codec.Message) *Inbound {
	return &Inbound{d: d, session: s, msg: msg}
}

func (in *Inbound) Session() Session       { return in.session }
func (in *Inbound) Message() codec.Message { return in.msg }

// Execute 实现 work.Task. 会话已关闭时丢弃, 断开清理之后不再改动房间状态
func (in *Inbound) Execute() {
	if in.session.Closed() {
		return
	}
	_ = in.d.Dispatch(in.session, in.msg)
}
