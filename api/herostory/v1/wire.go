package v1

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// 按 protobuf wire format 编解码, 字段号与 GameMsgProtocol 保持一致.
// 零值字段不输出 (proto3 语义).

type encoder struct {
	b []byte
}

func (e *encoder) uint32(num protowire.Number, v uint32) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(v))
}

func (e *encoder) uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) float(num protowire.Number, v float32) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed32Type)
	e.b = protowire.AppendFixed32(e.b, math.Float32bits(v))
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

// message 嵌套消息, 用于 repeated 字段时每个元素都要输出
func (e *encoder) message(num protowire.Number, m interface{ Marshal() ([]byte, error) }) error {
	body, err := m.Marshal()
	if err != nil {
		return err
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, body)
	return nil
}

// fieldFunc 返回消费的字节数, 返回 0 表示未识别, 由调用方跳过
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func decode(b []byte, visit fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeUint32(typ protowire.Type, b []byte, v *uint32) (int, error) {
	if typ != protowire.VarintType {
		return 0, nil
	}
	x, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*v = uint32(x)
	return n, nil
}

func consumeUint64(typ protowire.Type, b []byte, v *uint64) (int, error) {
	if typ != protowire.VarintType {
		return 0, nil
	}
	x, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*v = x
	return n, nil
}

func consumeFloat(typ protowire.Type, b []byte, v *float32) (int, error) {
	if typ != protowire.Fixed32Type {
		return 0, nil
	}
	x, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*v = math.Float32frombits(x)
	return n, nil
}

func consumeString(typ protowire.Type, b []byte, v *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	x, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*v = x
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, m interface{ Unmarshal([]byte) error }) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	x, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, m.Unmarshal(x)
}
