package work

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/xgo"
)

/*
	单写者顺序处理器

	所有共享状态只在 loop 协程中修改, 任务按入队顺序逐个执行,
	上一个任务完全结束后才会开始下一个任务, 因此状态本身无需加锁.
*/

// Task loop 中执行的任务
type Task interface {
	Execute()
}

// Callback 函数任务
type Callback func()

func (f Callback) Execute() { f() }

// Poster 任务投递接口, loop 与 shard 完成回调通过它回到主协程
type Poster interface {
	Post(task Task) error
}

// LoopState loop 状态
type LoopState int32

const (
	StateIdle LoopState = iota
	StateExecuting
	StateStopped
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExecuting:
		return "Executing"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// LoopStatus loop 当前状态
type LoopStatus struct {
	State    LoopState
	Pending  int   // 队列中等待的任务数
	Executed int64 // 已执行任务数
	Failed   int64 // 执行中 panic 的任务数
}

type LoopOption func(*Loop)

// WithCapacity 限制队列深度, 超出时 Post 返回 ErrLoopFull. 默认无界
func WithCapacity(n int) LoopOption {
	return func(l *Loop) { l.capacity = n }
}

// WithName loop 名称, 用于日志和指标
func WithName(name string) LoopOption {
	return func(l *Loop) { l.name = name }
}

// Loop 顺序处理器
type Loop struct {
	name     string
	capacity int
	queue    *fifo[Task]
	state    atomic.Int32
	executed atomic.Int64
	failed   atomic.Int64
	started  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	metrics  *metrics
}

// NewLoop 创建顺序处理器, Start 之前投递的任务会在启动后按顺序执行
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		name: "main",
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queue = newFIFO[Task](l.capacity)
	l.metrics = newMetrics(l.name)
	return l
}

func (l *Loop) Name() string {
	return l.name
}

// Start 启动 loop 协程, 多次调用无副作用
func (l *Loop) Start() error {
	if l.queue.isClosed() {
		return ErrLoopStopped
	}
	if !l.started.CompareAndSwap(false, true) {
		log.Warnf("loop(%s) already started.", l.name)
		return nil
	}
	go l.run()
	log.Infof("loop(%s) start... [capacity:%d]", l.name, l.capacity)
	return nil
}

// Stop 拒绝新任务, 等待已入队任务执行完毕后退出.
// 不能在 loop 任务内部调用.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.queue.close()
		if l.started.Load() {
			<-l.done
		} else {
			close(l.done)
		}
		l.state.Store(int32(StateStopped))
		log.Infof("loop(%s) stopped [executed:%d failed:%d]", l.name, l.executed.Load(), l.failed.Load())
	})
}

// Post 入队任务, 线程安全, 不会阻塞调用方
func (l *Loop) Post(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	switch err := l.queue.push(task); err {
	case nil:
		return nil
	case errQueueFull:
		l.metrics.rejected(context.Background())
		return ErrLoopFull
	default:
		return ErrLoopStopped
	}
}

// PostFunc 入队函数任务
func (l *Loop) PostFunc(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	return l.Post(Callback(fn))
}

// PostAndWait 在 loop 中执行 job 并等待结果, ctx 结束时立即返回 (job 仍会在 loop 中执行)
func (l *Loop) PostAndWait(ctx context.Context, job func() error) error {
	ch := make(chan error, 1)
	err := l.PostFunc(func() {
		defer xgo.RecoverFromError(func(e any) {
			ch <- fmt.Errorf("panic: %v", e)
		})
		ch <- job()
	})
	if err != nil {
		return err
	}
	select {
	case err = <-ch:
		return err
	case <-ctx.Done():
		return fmt.Errorf("canceled: %w", ctx.Err())
	}
}

// Status 获取 loop 状态
func (l *Loop) Status() LoopStatus {
	return LoopStatus{
		State:    LoopState(l.state.Load()),
		Pending:  l.queue.len(),
		Executed: l.executed.Load(),
		Failed:   l.failed.Load(),
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		task, ok := l.queue.pop()
		if !ok {
			if l.queue.isClosed() && l.queue.len() == 0 {
				return
			}
			<-l.queue.signal
			continue
		}
		l.execute(task)
	}
}

func (l *Loop) execute(task Task) {
	l.state.Store(int32(StateExecuting))
	defer l.state.Store(int32(StateIdle))

	ok := false
	defer func() {
		l.executed.Add(1)
		if !ok {
			l.failed.Add(1)
		}
		l.metrics.executed(context.Background(), ok)
	}()
	defer xgo.RecoverFromError(func(e any) {
		log.Errorf("loop(%s) task panic: %v", l.name, e)
	})

	task.Execute()
	ok = true
}
