package work

import (
	"errors"
)

var (
	// ErrLoopStopped loop 已停止, 任务被拒绝
	ErrLoopStopped = errors.New("work: loop stopped")
	// ErrLoopFull loop 队列已满 (仅在设置容量时出现)
	ErrLoopFull = errors.New("work: loop queue full")
	// ErrAsyncStopped 异步处理器已停止
	ErrAsyncStopped = errors.New("work: async processor stopped")
	// ErrAsyncOperation 异步操作执行失败, DoFinish 不会被调用
	ErrAsyncOperation = errors.New("work: async operation failed")
	// ErrNilTask 提交了空任务
	ErrNilTask = errors.New("work: nil task")

	errQueueClosed = errors.New("queue closed")
	errQueueFull   = errors.New("queue full")
)
