package work

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/xgo"
)

/*
	定时器: 最小堆 + 单协程等待, 到期任务投递到 Poster (通常是 loop),
	因此定时回调与其他 loop 任务一样串行执行, 可直接修改共享状态.
*/

// Scheduler 定时任务调度器
type Scheduler interface {
	Len() int                                       // 当前注册任务数量
	Once(delay time.Duration, f func()) int64       // 注册一次性任务
	Forever(interval time.Duration, f func()) int64 // 注册周期任务
	Cancel(taskID int64)                            // 取消指定任务
	CancelAll()                                     // 取消所有任务
	Stop()                                          // 停止调度器
}

type timerEntry struct {
	id        int64
	execAt    time.Time
	interval  time.Duration
	repeated  bool
	cancelled atomic.Bool
	task      func()
	index     int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].execAt.Before(h[j].execAt) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timerEntry)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

type heapScheduler struct {
	executor Poster
	mu       sync.Mutex
	heap     timerHeap
	tasks    map[int64]*timerEntry
	nextID   atomic.Int64
	shutdown atomic.Bool
	wakeup   chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler 创建调度器, 到期任务投递到 executor
func NewScheduler(executor Poster) Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &heapScheduler{
		executor: executor,
		tasks:    make(map[int64]*timerEntry),
		wakeup:   make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *heapScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *heapScheduler) Once(delay time.Duration, f func()) int64 {
	return s.schedule(delay, false, f)
}

func (s *heapScheduler) Forever(interval time.Duration, f func()) int64 {
	return s.schedule(interval, true, f)
}

func (s *heapScheduler) Cancel(taskID int64) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if ok {
		t.cancelled.Store(true)
		delete(s.tasks, taskID)
		if t.index >= 0 && t.index < len(s.heap) {
			heap.Remove(&s.heap, t.index)
		}
	}
	s.mu.Unlock()
	s.signal()
}

func (s *heapScheduler) CancelAll() {
	s.mu.Lock()
	for _, t := range s.tasks {
		t.cancelled.Store(true)
	}
	s.heap = nil
	s.tasks = make(map[int64]*timerEntry)
	s.mu.Unlock()
	s.signal()
}

func (s *heapScheduler) Stop() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	s.CancelAll()
	s.cancel()
	<-s.done
}

func (s *heapScheduler) schedule(delay time.Duration, repeated bool, f func()) int64 {
	if s.shutdown.Load() || f == nil {
		log.Warn("scheduler is shut down; task rejected")
		return -1
	}
	if repeated && delay <= 0 {
		log.Warnf("scheduler rejects repeated task with interval %v", delay)
		return -1
	}
	t := &timerEntry{
		id:       s.nextID.Add(1),
		execAt:   time.Now().Add(delay),
		interval: delay,
		repeated: repeated,
		task:     f,
	}

	s.mu.Lock()
	s.tasks[t.id] = t
	heap.Push(&s.heap, t)
	earliest := s.heap[0] == t
	s.mu.Unlock()

	if earliest {
		s.signal()
	}
	return t.id
}

func (s *heapScheduler) loop() {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		for _, t := range s.popExpired(time.Now()) {
			s.dispatch(t)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.nextWait(time.Now()))

		select {
		case <-timer.C:
		case <-s.wakeup:
		case <-s.ctx.Done():
			return
		}
	}
}

// popExpired 弹出到期任务, 周期任务重新入堆
func (s *heapScheduler) popExpired(now time.Time) []*timerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*timerEntry
	for len(s.heap) > 0 && !s.heap[0].execAt.After(now) {
		t := heap.Pop(&s.heap).(*timerEntry)
		if t.cancelled.Load() {
			continue
		}
		expired = append(expired, t)
		if t.repeated {
			t.execAt = t.execAt.Add(t.interval)
			heap.Push(&s.heap, t)
		} else {
			delete(s.tasks, t.id)
		}
	}
	return expired
}

func (s *heapScheduler) nextWait(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return time.Hour
	}
	if d := s.heap[0].execAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (s *heapScheduler) dispatch(t *timerEntry) {
	run := func() {
		defer xgo.RecoverFromError(nil)
		if !t.cancelled.Load() {
			t.task()
		}
	}
	if s.executor == nil {
		go run()
		return
	}
	if err := s.executor.Post(Callback(run)); err != nil {
		log.Warnf("scheduler post task(%d) failed: %v", t.id, err)
	}
}

func (s *heapScheduler) signal() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}
