package codec

import (
	"errors"
)

var (
	// ErrUnknownMessageCode 帧中的消息编号未注册
	ErrUnknownMessageCode = errors.New("codec: unknown message code")
	// ErrMalformedPayload 帧过短或消息体无法解析
	ErrMalformedPayload = errors.New("codec: malformed payload")
	// ErrUnregisteredType 编码时消息类型未注册, 属于编程错误
	ErrUnregisteredType = errors.New("codec: unregistered message type")
	// ErrFrameTooLarge 消息体超过 uint16 长度上限
	ErrFrameTooLarge = errors.New("codec: frame too large")
)
