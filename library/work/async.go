package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/xgo"
)

/*
	分片异步处理器

	N 个分片, 每个分片一个协程 + 一个 FIFO 队列.
	同一个 bindID 的操作总是落在同一分片并按提交顺序执行,
	不同 bindID 之间没有顺序保证.
	DoAsync 在分片协程执行(可阻塞), 成功后 DoFinish 投递回 loop 执行.
*/

const DefaultShards = 8

// AsyncOp 异步操作
type AsyncOp interface {
	// BindID 操作关联的实体ID(例如 userID), 决定分片
	BindID() int64
	// DoAsync 在分片协程中执行, 可以阻塞
	DoAsync(ctx context.Context) error
	// DoFinish 在 loop 中执行, DoAsync 失败时不会调用
	DoFinish()
}

type asyncFunc[R any] struct {
	bindID int64
	run    func(ctx context.Context) (R, error)
	finish func(R)
	result R
}

// NewAsyncOp 以函数构造异步操作, finish 可为 nil
func NewAsyncOp[R any](bindID int64, run func(ctx context.Context) (R, error), finish func(R)) AsyncOp {
	return &asyncFunc[R]{bindID: bindID, run: run, finish: finish}
}

func (op *asyncFunc[R]) BindID() int64 { return op.bindID }

func (op *asyncFunc[R]) DoAsync(ctx context.Context) (err error) {
	op.result, err = op.run(ctx)
	return err
}

func (op *asyncFunc[R]) DoFinish() {
	if op.finish != nil {
		op.finish(op.result)
	}
}

// ShardIndex abs(bindID) mod n
func ShardIndex(bindID int64, n int) int {
	if n <= 0 {
		return 0
	}
	return int(xgo.Abs(bindID) % int64(n))
}

// ShardStatus 分片状态
type ShardStatus struct {
	Index    int
	Pending  int
	Executed int64
	Failed   int64
}

type shard struct {
	index    int
	queue    *fifo[AsyncOp]
	executed atomic.Int64
	failed   atomic.Int64
}

// AsyncProcessor 分片异步处理器
type AsyncProcessor struct {
	loop    Poster
	shards  []*shard
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool
	metrics *metrics
}

// NewAsyncProcessor 创建分片处理器, 完成回调投递到 loop
func NewAsyncProcessor(loop Poster, shards int) *AsyncProcessor {
	if shards <= 0 {
		shards = DefaultShards
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &AsyncProcessor{
		loop:    loop,
		shards:  make([]*shard, shards),
		ctx:     ctx,
		cancel:  cancel,
		metrics: newMetrics("async"),
	}
	for i := range p.shards {
		p.shards[i] = &shard{index: i, queue: newFIFO[AsyncOp](0)}
	}
	return p
}

// Shards 分片数量
func (p *AsyncProcessor) Shards() int {
	return len(p.shards)
}

// Start 为每个分片启动一个协程
func (p *AsyncProcessor) Start() error {
	if p.stopped.Load() {
		return ErrAsyncStopped
	}
	if !p.started.CompareAndSwap(false, true) {
		log.Warnf("async processor already started.")
		return nil
	}
	for _, s := range p.shards {
		p.wg.Add(1)
		go p.runShard(s)
	}
	log.Infof("async processor start... [shards:%d]", len(p.shards))
	return nil
}

// Stop 拒绝新操作并取消分片 ctx, 当前操作结束后分片退出, 未执行的操作被丢弃
func (p *AsyncProcessor) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	for _, s := range p.shards {
		s.queue.close()
	}
	p.cancel()
	p.wg.Wait()

	dropped := 0
	for _, s := range p.shards {
		dropped += s.queue.drain()
	}
	log.Infof("async processor stopped [dropped:%d]", dropped)
}

// Submit 提交异步操作, 线程安全
func (p *AsyncProcessor) Submit(op AsyncOp) error {
	if op == nil {
		return ErrNilTask
	}
	s := p.shards[ShardIndex(op.BindID(), len(p.shards))]
	if err := s.queue.push(op); err != nil {
		return ErrAsyncStopped
	}
	return nil
}

// Status 各分片状态
func (p *AsyncProcessor) Status() []ShardStatus {
	list := make([]ShardStatus, 0, len(p.shards))
	for _, s := range p.shards {
		list = append(list, ShardStatus{
			Index:    s.index,
			Pending:  s.queue.len(),
			Executed: s.executed.Load(),
			Failed:   s.failed.Load(),
		})
	}
	return list
}

func (p *AsyncProcessor) runShard(s *shard) {
	defer p.wg.Done()
	for {
		if p.ctx.Err() != nil {
			return
		}
		op, ok := s.queue.pop()
		if !ok {
			select {
			case <-s.queue.signal:
			case <-p.ctx.Done():
				return
			}
			continue
		}
		p.execute(s, op)
	}
}

func (p *AsyncProcessor) execute(s *shard, op AsyncOp) {
	err := p.doAsync(op)
	s.executed.Add(1)
	p.metrics.async(context.Background(), s.index, err == nil)
	if err != nil {
		s.failed.Add(1)
		log.Errorf("shard[%d] bindID=%d %v", s.index, op.BindID(), err)
		return
	}

	// 完成逻辑回到 loop 执行
	if err = p.loop.Post(Callback(op.DoFinish)); err != nil {
		log.Errorf("shard[%d] bindID=%d post finish failed: %v", s.index, op.BindID(), err)
	}
}

func (p *AsyncProcessor) doAsync(op AsyncOp) (err error) {
	defer xgo.RecoverFromError(func(e any) {
		err = fmt.Errorf("%w: panic: %v", ErrAsyncOperation, e)
	})
	if err = op.DoAsync(p.ctx); err != nil && !errors.Is(err, ErrAsyncOperation) {
		err = fmt.Errorf("%w: %w", ErrAsyncOperation, err)
	}
	return err
}
