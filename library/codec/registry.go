package codec

import (
	"errors"
	"fmt"
	"sort"
)

// Message 帧中承载的消息体
type Message interface {
	// MsgName 消息类型标识, 与注册表中的 Name 对应
	MsgName() string
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// Descriptor 消息描述: 编号, 类型标识, 空实例工厂
type Descriptor struct {
	Code uint16
	Name string
	New  func() Message
}

// Registry 消息编号 <-> 消息类型的双向映射, 构造后只读, 可并发读取
type Registry struct {
	byCode map[uint16]*Descriptor
	byName map[string]uint16
}

// NewRegistry 由静态目录构造注册表, 编号或类型重复时报错
func NewRegistry(catalog ...Descriptor) (*Registry, error) {
	r := &Registry{
		byCode: make(map[uint16]*Descriptor, len(catalog)),
		byName: make(map[string]uint16, len(catalog)),
	}
	var errs []error
	for i := range catalog {
		d := catalog[i]
		switch {
		case d.Name == "":
			errs = append(errs, fmt.Errorf("code %d: empty message name", d.Code))
			continue
		case d.New == nil:
			errs = append(errs, fmt.Errorf("code %d (%s): nil factory", d.Code, d.Name))
			continue
		}
		if prev, ok := r.byCode[d.Code]; ok {
			errs = append(errs, fmt.Errorf("duplicate code %d: %s and %s", d.Code, prev.Name, d.Name))
			continue
		}
		if code, ok := r.byName[d.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate message %s: codes %d and %d", d.Name, code, d.Code))
			continue
		}
		if name := d.New().MsgName(); name != d.Name {
			errs = append(errs, fmt.Errorf("code %d: factory builds %s, want %s", d.Code, name, d.Name))
			continue
		}
		r.byCode[d.Code] = &d
		r.byName[d.Name] = d.Code
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("codec: invalid catalog: %w", errors.Join(errs...))
	}
	return r, nil
}

// MustRegistry 同 NewRegistry, 失败时 panic, 用于进程启动
func MustRegistry(catalog ...Descriptor) *Registry {
	r, err := NewRegistry(catalog...)
	if err != nil {
		panic(err)
	}
	return r
}

// Descriptor 根据编号查找描述
func (r *Registry) Descriptor(code uint16) (*Descriptor, bool) {
	d, ok := r.byCode[code]
	return d, ok
}

// Code 根据类型标识查找编号
func (r *Registry) Code(name string) (uint16, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// CodeOf 查找消息实例对应的编号
func (r *Registry) CodeOf(msg Message) (uint16, bool) {
	if msg == nil {
		return 0, false
	}
	return r.Code(msg.MsgName())
}

// Len 注册数量
func (r *Registry) Len() int {
	return len(r.byCode)
}

// Descriptors 按编号排序的所有描述
func (r *Registry) Descriptors() []Descriptor {
	list := make([]Descriptor, 0, len(r.byCode))
	for _, d := range r.byCode {
		list = append(list, *d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
