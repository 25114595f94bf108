package work

import (
	"sync"
)

// fifo 多生产者/单消费者队列, capacity<=0 时无界
type fifo[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int
	capacity int
	closed   bool
	signal   chan struct{}
}

func newFIFO[T any](capacity int) *fifo[T] {
	return &fifo[T]{
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

// push 入队, 不阻塞调用方
func (q *fifo[T]) push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errQueueClosed
	}
	if q.capacity > 0 && len(q.items)-q.head >= q.capacity {
		q.mu.Unlock()
		return errQueueFull
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// pop 非阻塞出队
func (q *fifo[T]) pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++

	// 消费过半时整理底层数组
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// close 拒绝后续入队, 已入队的元素仍可 pop
func (q *fifo[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *fifo[T]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// drain 丢弃剩余元素并返回数量
func (q *fifo[T]) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items) - q.head
	q.items = nil
	q.head = 0
	return n
}
