package codec

import (
	"fmt"
)

// Codec 二进制帧与消息之间的转换, 无状态, 可并发使用
type Codec struct {
	reg *Registry
}

func New(reg *Registry) *Codec {
	return &Codec{reg: reg}
}

func (c *Codec) Registry() *Registry {
	return c.reg
}

// Decode 解码一个完整帧
func (c *Codec) Decode(data []byte) (Message, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	d, ok := c.reg.Descriptor(f.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageCode, f.Code)
	}
	msg := d.New()
	if err = msg.Unmarshal(f.Payload); err != nil {
		return nil, fmt.Errorf("%w: code=%d %s: %v", ErrMalformedPayload, f.Code, d.Name, err)
	}
	return msg, nil
}

// Encode 编码消息为 [length][code][payload]
func (c *Codec) Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnregisteredType)
	}
	code, ok := c.reg.CodeOf(msg)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, msg.MsgName())
	}
	body, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("codec: marshal %s: %w", msg.MsgName(), err)
	}
	return AppendFrame(make([]byte, 0, HeaderSize+len(body)), code, body)
}
