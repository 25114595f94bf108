package press

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/library/work"
)

// Runner 分批启动机器人, 所有机器人状态只在 loop 中修改
type Runner struct {
	conf  atomic.Pointer[Press]
	codec *codec.Codec

	loop   *work.Loop     // 任务循环
	timer  work.Scheduler // 定时任务
	ctx    context.Context
	cancel context.CancelFunc

	robots sync.Map // name -> *Robot
	count  atomic.Int32
}

func NewRunner(c *Press, cd *codec.Codec) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	loop := work.NewLoop(work.WithName("press"))
	r := &Runner{
		codec:  cd,
		loop:   loop,
		timer:  work.NewScheduler(loop),
		ctx:    ctx,
		cancel: cancel,
	}
	r.conf.Store(c)
	return r
}

func (r *Runner) Start() error {
	if err := r.loop.Start(); err != nil {
		return err
	}
	c := r.conf.Load()
	r.timer.Forever(c.Spawn.Std(), r.spawnBatch)
	r.timer.Forever(c.Interval.Std(), r.tick)
	log.Infof("start press runner. url=%s num=%d batch=%d", c.URL, c.Num, c.Batch)
	return nil
}

func (r *Runner) Stop() {
	r.cancel()
	r.timer.Stop()
	r.robots.Range(func(_, v any) bool {
		v.(*Robot).Close()
		return true
	})
	r.loop.Stop()
	log.Infof("stop press runner. robots=%d", r.count.Load())
}

// UpdateConfig 热更新, 已启动的机器人不会减少
func (r *Runner) UpdateConfig(c *Press) {
	r.conf.Store(c)
}

func (r *Runner) Count() int32 {
	return r.count.Load()
}

func (r *Runner) spawnBatch() {
	c := r.conf.Load()
	for i := int32(0); i < c.Batch; i++ {
		n := r.count.Load()
		if n >= c.Num {
			return
		}
		name := fmt.Sprintf("%s%d", c.NamePrefix, n+1)
		robot, err := NewRobot(r, name)
		if err != nil {
			log.Errorf("robot %s: %v", name, err)
			return
		}
		r.robots.Store(name, robot)
		r.count.Add(1)
	}
}

func (r *Runner) tick() {
	r.robots.Range(func(_, v any) bool {
		v.(*Robot).Act()
		return true
	})
}
