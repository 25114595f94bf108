package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

/*
	帧格式 (大端):
	| uint16 length | uint16 code | payload |
	length = codeSize + len(payload), 不包含 length 字段自身
*/

const (
	_lengthSize = 2
	_codeSize   = 2
	HeaderSize  = _lengthSize + _codeSize

	_lengthOffset = 0
	_codeOffset   = _lengthOffset + _lengthSize
	_bodyOffset   = _codeOffset + _codeSize

	// MaxPayloadSize payload 最大长度
	MaxPayloadSize = 0xFFFF - _codeSize
)

// Frame 原始帧
type Frame struct {
	Length  uint16
	Code    uint16
	Payload []byte
}

// ParseFrame 解析单个完整帧, length 只用于上游分帧, 这里不做校验
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: frame too short (%d bytes)", ErrMalformedPayload, len(data))
	}
	return Frame{
		Length:  binary.BigEndian.Uint16(data[_lengthOffset:_codeOffset]), // [0:2]
		Code:    binary.BigEndian.Uint16(data[_codeOffset:_bodyOffset]),   // [2:4]
		Payload: data[_bodyOffset:],                                       // [4:]
	}, nil
}

// AppendFrame 追加一个帧到 dst
func AppendFrame(dst []byte, code uint16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: payload %d bytes", ErrFrameTooLarge, len(payload))
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(_codeSize+len(payload)))
	dst = binary.BigEndian.AppendUint16(dst, code)
	return append(dst, payload...), nil
}

// ReadFrame 从流中读取一个完整帧 (流式传输或测试客户端使用)
func ReadFrame(r io.Reader) ([]byte, error) {
	var head [_lengthSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(head[:])
	if length < _codeSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedPayload, length)
	}
	buf := make([]byte, _lengthSize+int(length))
	copy(buf, head[:])
	if _, err := io.ReadFull(r, buf[_lengthSize:]); err != nil {
		return nil, err
	}
	return buf, nil
}
