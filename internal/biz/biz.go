package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/library/dispatch"
	"github.com/yola1107/herostory/library/log/file"
	"github.com/yola1107/herostory/library/work"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewCodec, NewBroadcaster, NewUsecase)

// NewCodec 以协议目录构建编解码器
func NewCodec() (*codec.Codec, error) {
	reg, err := v1.NewRegistry()
	if err != nil {
		return nil, err
	}
	return codec.New(reg), nil
}

// Usecase 房间逻辑.
// 在场用户, 会话绑定与房间配置只在 loop 中读写; 阻塞的存储和消息队列操作交给异步分片.
type Usecase struct {
	log *log.Helper

	rc         *conf.Room
	codec      *codec.Codec
	dispatcher *dispatch.Dispatcher
	loop       *work.Loop
	async      *work.AsyncProcessor
	timer      work.Scheduler

	users    *UserManager
	owners   map[int64]dispatch.Session // 用户ID 当前绑定的会话
	profiles map[int64]*UserEntity      // 登录成功的用户资料, 不含密码
	bc       *Broadcaster
	events   *file.Log // 房间事件日志, 可为 nil

	userRepo  UserRepo
	rankRepo  RankRepo
	publisher VictoryPublisher
}

// NewUsecase 创建并启动 loop, 异步分片与定时器
func NewUsecase(c *conf.Room, cd *codec.Codec, bc *Broadcaster, userRepo UserRepo, rankRepo RankRepo,
	publisher VictoryPublisher, logger log.Logger) (*Usecase, func(), error) {
	if c == nil {
		return nil, nil, errors.New("biz: nil room config")
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	uc := &Usecase{
		log:       log.NewHelper(log.With(logger, "module", "biz")),
		rc:        c,
		codec:     cd,
		users:     NewUserManager(),
		owners:    make(map[int64]dispatch.Session),
		profiles:  make(map[int64]*UserEntity),
		bc:        bc,
		userRepo:  userRepo,
		rankRepo:  rankRepo,
		publisher: publisher,
	}

	d, err := dispatch.NewDispatcher(cd.Registry(), uc.handlers()...)
	if err != nil {
		return nil, nil, err
	}
	uc.dispatcher = d
	uc.loop = work.NewLoop(work.WithName("room"), work.WithCapacity(c.LoopCapacity))
	uc.async = work.NewAsyncProcessor(uc.loop, c.AsyncShards)
	uc.timer = work.NewScheduler(uc.loop)
	if c.EventLog != "" {
		uc.events = file.New(c.EventLog)
	}

	cleanup := func() {
		uc.log.Info("closing the room resources")
		uc.async.Stop()
		uc.timer.Stop()
		uc.loop.Stop()
		if err := uc.events.Close(); err != nil {
			uc.log.Errorf("close event log: %v", err)
		}
	}
	if err = errors.Join(uc.loop.Start(), uc.async.Start()); err != nil {
		cleanup()
		return nil, nil, err
	}
	return uc, cleanup, nil
}

func (uc *Usecase) handlers() []dispatch.Handler {
	return []dispatch.Handler{
		dispatch.Bind(uc.onUserLogin),
		dispatch.Bind(uc.onUserEntry),
		dispatch.Bind(uc.onWhoElseIsHere),
		dispatch.Bind(uc.onUserMoveTo),
		dispatch.Bind(uc.onUserStop),
		dispatch.Bind(uc.onUserAttk),
		dispatch.Bind(uc.onGetRank),
	}
}

func (uc *Usecase) Codec() *codec.Codec {
	return uc.codec
}

// Receive 将解码后的消息投递到 loop
func (uc *Usecase) Receive(s dispatch.Session, msg codec.Message) error {
	return uc.loop.Post(dispatch.NewInbound(uc.dispatcher, s, msg))
}

// OnSessionOpen 会话加入广播
func (uc *Usecase) OnSessionOpen(s dispatch.Session) error {
	return uc.loop.PostFunc(func() {
		uc.bc.Add(s)
	})
}

// OnSessionClose 移出广播, 会话绑定的用户离开房间
func (uc *Usecase) OnSessionClose(s dispatch.Session) error {
	return uc.loop.PostFunc(func() {
		uc.bc.Remove(s)
		uid := s.UID()
		if uid <= 0 || uc.owners[uid] != s {
			return
		}
		delete(uc.owners, uid)
		delete(uc.profiles, uid)
		if uc.users.Remove(uid) == nil {
			return
		}
		uc.events.Printf("<离开> 用户[%d] 在场[%d]", uid, uc.users.Len())
		uc.bc.Broadcast(&v1.UserQuitResult{QuitUserID: uint32(uid)})
	})
}

// UpdateRoom 热更新房间参数. 分片数和队列容量启动后不可变
func (uc *Usecase) UpdateRoom(c *conf.Room) error {
	if c == nil {
		return nil
	}
	return uc.loop.PostFunc(func() {
		rc := *uc.rc
		rc.MaxHp = c.MaxHp
		rc.Damage = c.Damage
		rc.RankSize = c.RankSize
		rc.HeroAvatar = c.HeroAvatar
		rc.RespawnDelay = c.RespawnDelay
		rc.StoreTimeout = c.StoreTimeout
		uc.rc = &rc
		uc.log.Infof("room config updated: %+v", rc)
	})
}

// bind 把用户ID 绑定到会话. 会话已绑定, 或该用户属于另一个在线会话时失败
func (uc *Usecase) bind(s dispatch.Session, uid int64) bool {
	if uid <= 0 || s.Closed() || s.UID() > 0 {
		return false
	}
	if owner, ok := uc.owners[uid]; ok && owner != s && !owner.Closed() {
		return false
	}
	uc.owners[uid] = s
	s.SetUID(uid)
	return true
}

// submit 提交异步操作, 超时在提交时从配置读取
func (uc *Usecase) submit(op work.AsyncOp) {
	if err := uc.async.Submit(op); err != nil {
		uc.log.Errorf("submit async op bindID=%d: %v", op.BindID(), err)
	}
}

func (uc *Usecase) storeTimeout() time.Duration {
	if d := uc.rc.StoreTimeout.Std(); d > 0 {
		return d
	}
	return 3 * time.Second
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func wrapStore(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}
