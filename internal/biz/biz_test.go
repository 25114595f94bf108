package biz

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/library/codec"
)

type fakeSession struct {
	id     string
	uid    atomic.Int64
	closed atomic.Bool
	codec  *codec.Codec

	mu   sync.Mutex
	msgs []codec.Message
}

func (s *fakeSession) ID() string       { return s.id }
func (s *fakeSession) UID() int64       { return s.uid.Load() }
func (s *fakeSession) SetUID(uid int64) { s.uid.Store(uid) }
func (s *fakeSession) Closed() bool     { return s.closed.Load() }
func (s *fakeSession) Send(b []byte) error {
	msg, err := s.codec.Decode(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) received() []codec.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]codec.Message(nil), s.msgs...)
}

func (s *fakeSession) reset() {
	s.mu.Lock()
	s.msgs = nil
	s.mu.Unlock()
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*UserEntity
	gate  chan struct{} // 非 nil 时登录查询阻塞到 gate 关闭
}

func (r *fakeUserRepo) Login(_ context.Context, name, pwd, avatar string) (*UserEntity, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[name]; ok {
		if u.Password != pwd {
			return nil, ErrWrongPassword
		}
		return u, nil
	}
	u := &UserEntity{UserID: int64(len(r.users) + 1), UserName: name, Password: pwd, HeroAvatar: avatar}
	r.users[name] = u
	return u, nil
}

type fakeRankRepo struct {
	items []*RankItem
	err   error
}

func (r *fakeRankRepo) TopRank(_ context.Context, n int) ([]*RankItem, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.items[:min(n, len(r.items))], nil
}

func (r *fakeRankRepo) RefreshRank(context.Context, *VictorMsg) error { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	msgs []VictorMsg
}

func (p *fakePublisher) PublishVictory(_ context.Context, msg *VictorMsg) error {
	p.mu.Lock()
	p.msgs = append(p.msgs, *msg)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) published() []VictorMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]VictorMsg(nil), p.msgs...)
}

type fixture struct {
	uc    *Usecase
	users *fakeUserRepo
	rank  *fakeRankRepo
	pub   *fakePublisher
}

func newFixture(t *testing.T, rc *conf.Room) *fixture {
	t.Helper()
	if rc == nil {
		rc = &conf.Room{AsyncShards: 4, MaxHp: 100, Damage: 10, RankSize: 10, HeroAvatar: "Hero_Shaman"}
	}
	cd, err := NewCodec()
	require.NoError(t, err)

	f := &fixture{users: &fakeUserRepo{users: map[string]*UserEntity{}}, rank: &fakeRankRepo{}, pub: &fakePublisher{}}
	uc, cleanup, err := NewUsecase(rc, cd, NewBroadcaster(cd), f.users, f.rank, f.pub, log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	f.uc = uc
	return f
}

// sync 等待 loop 处理完之前投递的任务
func (f *fixture) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, f.uc.loop.PostAndWait(context.Background(), func() error { return nil }))
}

func (f *fixture) open(t *testing.T, id string) *fakeSession {
	t.Helper()
	s := &fakeSession{id: id, codec: f.uc.Codec()}
	require.NoError(t, f.uc.OnSessionOpen(s))
	return s
}

func (f *fixture) send(t *testing.T, s *fakeSession, msg codec.Message) {
	t.Helper()
	require.NoError(t, f.uc.Receive(s, msg))
	f.sync(t)
}

// close 与连接断开一致: 先标记关闭, 再投递断开任务
func (f *fixture) close(t *testing.T, s *fakeSession) {
	t.Helper()
	s.closed.Store(true)
	require.NoError(t, f.uc.OnSessionClose(s))
	f.sync(t)
}

// enter 入场两个用户并清空已收消息
func (f *fixture) enterTwo(t *testing.T) (*fakeSession, *fakeSession) {
	t.Helper()
	a, b := f.open(t, "a"), f.open(t, "b")
	f.send(t, a, &v1.UserEntryCmd{UserID: 1, HeroAvatar: "Hero_Hammer"})
	f.send(t, b, &v1.UserEntryCmd{UserID: 2})
	a.reset()
	b.reset()
	return a, b
}

func TestUsecase_Entry(t *testing.T) {
	f := newFixture(t, nil)
	a, b := f.open(t, "a"), f.open(t, "b")

	f.send(t, a, &v1.UserEntryCmd{UserID: 1, HeroAvatar: "Hero_Hammer"})
	assert.Equal(t, []codec.Message{&v1.UserEntryResult{UserID: 1, HeroAvatar: "Hero_Hammer"}}, b.received())
	assert.Equal(t, int64(1), a.UID())

	f.send(t, b, &v1.UserEntryCmd{UserID: 2})
	f.send(t, b, &v1.WhoElseIsHereCmd{})
	got := b.received()
	require.Len(t, got, 3)
	who, ok := got[2].(*v1.WhoElseIsHereResult)
	require.True(t, ok)
	require.Len(t, who.UserInfo, 2)
	assert.Equal(t, uint32(1), who.UserInfo[0].UserID)
	assert.Equal(t, uint32(2), who.UserInfo[1].UserID)
	assert.Equal(t, "Hero_Shaman", who.UserInfo[1].HeroAvatar)

	// 未登录且没有用户ID的入场被忽略
	c := f.open(t, "c")
	f.send(t, c, &v1.UserEntryCmd{})
	assert.Equal(t, 2, f.uc.users.Len())
}

func TestUsecase_EntryOwnership(t *testing.T) {
	t.Run("cannot take over a bound user", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)
		evil := f.open(t, "evil")

		f.send(t, evil, &v1.UserEntryCmd{UserID: 1})
		assert.Zero(t, evil.UID())
		assert.Empty(t, b.received())

		// 冒充者断开不影响原用户
		f.close(t, evil)
		assert.NotNil(t, f.uc.users.Get(1))
		assert.Empty(t, a.received())
		assert.Empty(t, b.received())
	})

	t.Run("cannot take over a logged in user", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.open(t, "s")
		f.send(t, s, &v1.UserLoginCmd{UserName: "alice", Password: "pwd"})
		require.Eventually(t, func() bool { return s.UID() == 1 }, time.Second, 5*time.Millisecond)

		evil := f.open(t, "evil")
		f.send(t, evil, &v1.UserEntryCmd{UserID: 1})
		assert.Zero(t, evil.UID())
		assert.Nil(t, f.uc.users.Get(1))
		f.close(t, evil)
		assert.Contains(t, f.uc.profiles, int64(1))
	})

	t.Run("user id is free again after close", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)
		f.close(t, a)
		b.reset()

		c := f.open(t, "c")
		f.send(t, c, &v1.UserEntryCmd{UserID: 1})
		assert.Equal(t, int64(1), c.UID())
		assert.Equal(t, []codec.Message{&v1.UserEntryResult{UserID: 1, HeroAvatar: "Hero_Shaman"}}, b.received())
	})
}

func TestUsecase_ClosedSession(t *testing.T) {
	t.Run("frames after close are dropped", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)
		f.close(t, b)
		a.reset()

		f.send(t, b, &v1.UserEntryCmd{UserID: 2})
		assert.Nil(t, f.uc.users.Get(2))
		assert.Equal(t, 1, f.uc.users.Len())
		assert.Empty(t, a.received())
	})

	t.Run("login finishing after close", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.gate = make(chan struct{})
		s := f.open(t, "s")

		f.send(t, s, &v1.UserLoginCmd{UserName: "alice", Password: "pwd"})
		f.close(t, s)
		close(f.users.gate)

		require.Eventually(t, func() bool {
			f.users.mu.Lock()
			defer f.users.mu.Unlock()
			return len(f.users.users) == 1
		}, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		f.sync(t)
		assert.Zero(t, s.UID())
		assert.Empty(t, f.uc.profiles)
		assert.Empty(t, f.uc.owners)
		assert.Empty(t, s.received())
	})
}

func TestUsecase_Attack(t *testing.T) {
	t.Run("hit broadcasts attack then subtract hp", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)

		f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
		want := []codec.Message{
			&v1.UserAttkResult{AttkUserID: 1, TargetUserID: 2},
			&v1.UserSubtractHpResult{TargetUserID: 2, SubtractHp: 10},
		}
		assert.Equal(t, want, a.received())
		assert.Equal(t, want, b.received())
		assert.Equal(t, int32(90), f.uc.users.Get(2).CurrHp)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)

		f.send(t, a, &v1.UserAttkCmd{TargetUserID: 99})
		assert.Equal(t, []codec.Message{&v1.UserAttkResult{AttkUserID: 1, TargetUserID: math.MaxUint32}}, b.received())
	})

	t.Run("not logged in", func(t *testing.T) {
		f := newFixture(t, nil)
		f.enterTwo(t)
		c := f.open(t, "c")
		f.send(t, c, &v1.UserAttkCmd{TargetUserID: 2})
		assert.Empty(t, c.received())
	})

	t.Run("kill publishes victory once", func(t *testing.T) {
		f := newFixture(t, nil)
		a, b := f.enterTwo(t)
		require.NoError(t, f.uc.loop.PostAndWait(context.Background(), func() error {
			f.uc.users.Get(2).CurrHp = 10
			return nil
		}))

		f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
		assert.Equal(t, []codec.Message{
			&v1.UserAttkResult{AttkUserID: 1, TargetUserID: 2},
			&v1.UserSubtractHpResult{TargetUserID: 2, SubtractHp: 10},
			&v1.UserDieResult{TargetUserID: 2},
		}, b.received())

		// 攻击已死亡的用户只广播攻击结果
		b.reset()
		f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
		assert.Equal(t, []codec.Message{&v1.UserAttkResult{AttkUserID: 1, TargetUserID: 2}}, b.received())

		require.Eventually(t, func() bool { return len(f.pub.published()) > 0 }, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, []VictorMsg{{WinnerID: 1, LoserID: 2}}, f.pub.published())
		assert.Equal(t, int32(0), f.uc.users.Get(2).CurrHp)
	})
}

func TestUsecase_Respawn(t *testing.T) {
	f := newFixture(t, &conf.Room{MaxHp: 10, Damage: 10, RankSize: 10,
		RespawnDelay: conf.Duration(20 * time.Millisecond)})
	a, b := f.enterTwo(t)

	f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
	require.Eventually(t, func() bool {
		got := b.received()
		if len(got) == 0 {
			return false
		}
		_, ok := got[len(got)-1].(*v1.UserEntryResult)
		return ok
	}, time.Second, 5*time.Millisecond)

	f.sync(t)
	assert.Equal(t, int32(10), f.uc.users.Get(2).CurrHp)
}

func TestUsecase_MoveAndStop(t *testing.T) {
	f := newFixture(t, nil)
	a, b := f.enterTwo(t)

	f.send(t, a, &v1.UserMoveToCmd{MoveFromPosX: 1, MoveFromPosY: 2, MoveToPosX: 30, MoveToPosY: 40})
	got := b.received()
	require.Len(t, got, 1)
	mv, ok := got[0].(*v1.UserMoveToResult)
	require.True(t, ok)
	assert.Equal(t, uint32(1), mv.MoveUserID)
	assert.Equal(t, float32(30), mv.MoveToPosX)
	assert.NotZero(t, mv.MoveStartTime)

	f.send(t, a, &v1.UserStopCmd{})
	got = b.received()
	require.Len(t, got, 2)
	assert.Equal(t, &v1.UserStopResult{StopUserID: 1, StopAtPosX: 30, StopAtPosY: 40}, got[1])
}

func TestUsecase_Login(t *testing.T) {
	f := newFixture(t, nil)
	s := f.open(t, "s")

	f.send(t, s, &v1.UserLoginCmd{UserName: "alice", Password: "pwd"})
	require.Eventually(t, func() bool { return len(s.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, &v1.UserLoginResult{UserID: 1, UserName: "alice", HeroAvatar: "Hero_Shaman"}, s.received()[0])
	assert.Equal(t, int64(1), s.UID())

	// 入场使用登录资料
	f.send(t, s, &v1.UserEntryCmd{})
	require.Len(t, s.received(), 2)
	assert.Equal(t, &v1.UserEntryResult{UserID: 1, UserName: "alice", HeroAvatar: "Hero_Shaman"}, s.received()[1])

	// 密码错误没有回复
	other := f.open(t, "other")
	f.send(t, other, &v1.UserLoginCmd{UserName: "alice", Password: "bad"})
	time.Sleep(50 * time.Millisecond)
	f.sync(t)
	assert.Empty(t, other.received())
	assert.Zero(t, other.UID())
}

func TestUsecase_LoginOnBoundSession(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.enterTwo(t)

	// 已入场的会话不能再登录成另一个用户
	f.send(t, a, &v1.UserLoginCmd{UserName: "bob", Password: "pwd"})
	time.Sleep(50 * time.Millisecond)
	f.sync(t)
	assert.Empty(t, a.received())
	assert.Equal(t, int64(1), a.UID())
	assert.Empty(t, f.users.users)

	f.close(t, a)
	assert.Nil(t, f.uc.users.Get(1))
	assert.Empty(t, f.uc.owners)
}

func TestUsecase_GetRank(t *testing.T) {
	t.Run("reply to requester", func(t *testing.T) {
		f := newFixture(t, nil)
		f.rank.items = []*RankItem{{RankID: 1, UserID: 7, UserName: "bob", HeroAvatar: "Hero_Shaman", Win: 3}}
		a, b := f.enterTwo(t)

		f.send(t, a, &v1.GetRankCmd{})
		require.Eventually(t, func() bool { return len(a.received()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, &v1.GetRankResult{RankItem: []*v1.RankItem{
			{RankID: 1, UserID: 7, UserName: "bob", HeroAvatar: "Hero_Shaman", Win: 3},
		}}, a.received()[0])
		assert.Empty(t, b.received())
	})

	t.Run("store failure sends nothing and room keeps working", func(t *testing.T) {
		f := newFixture(t, nil)
		f.rank.err = errors.New("redis down")
		a, b := f.enterTwo(t)

		f.send(t, a, &v1.GetRankCmd{})
		time.Sleep(50 * time.Millisecond)
		f.sync(t)
		assert.Empty(t, a.received())

		f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
		assert.Len(t, b.received(), 2)
	})
}

func TestUsecase_Quit(t *testing.T) {
	f := newFixture(t, nil)
	a, b := f.enterTwo(t)

	require.NoError(t, f.uc.OnSessionClose(b))
	f.sync(t)
	assert.Equal(t, []codec.Message{&v1.UserQuitResult{QuitUserID: 2}}, a.received())
	assert.Nil(t, f.uc.users.Get(2))
	assert.Equal(t, 1, f.uc.bc.Len())

	// 未入场的会话关闭不广播
	c := f.open(t, "c")
	a.reset()
	require.NoError(t, f.uc.OnSessionClose(c))
	f.sync(t)
	assert.Empty(t, a.received())
}

func TestUsecase_UpdateRoom(t *testing.T) {
	f := newFixture(t, nil)
	a, b := f.enterTwo(t)

	require.NoError(t, f.uc.UpdateRoom(&conf.Room{MaxHp: 100, Damage: 25, RankSize: 10}))
	f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
	assert.Contains(t, b.received(), codec.Message(&v1.UserSubtractHpResult{TargetUserID: 2, SubtractHp: 25}))
}

func TestUserManager(t *testing.T) {
	m := NewUserManager()
	assert.True(t, m.Add(&User{UserID: 3}))
	assert.True(t, m.Add(&User{UserID: 1}))
	assert.False(t, m.Add(&User{UserID: 1}))
	assert.False(t, m.Add(nil))

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].UserID)
	assert.Equal(t, int64(3), list[1].UserID)

	assert.NotNil(t, m.Remove(1))
	assert.Nil(t, m.Remove(1))
	assert.Equal(t, 1, m.Len())
}

func TestLoginBindID(t *testing.T) {
	assert.Equal(t, loginBindID("alice"), loginBindID("alice"))
	assert.GreaterOrEqual(t, loginBindID("bob"), int64(0))
}

func TestUsecase_EventLog(t *testing.T) {
	name := filepath.Join(t.TempDir(), "room_event.log")
	f := newFixture(t, &conf.Room{MaxHp: 10, Damage: 10, RankSize: 10, EventLog: name})
	a, b := f.enterTwo(t)

	f.send(t, a, &v1.UserAttkCmd{TargetUserID: 2})
	require.NoError(t, f.uc.OnSessionClose(b))
	f.sync(t)
	require.NoError(t, f.uc.events.Sync())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "<入场> 用户[1 ]")
	assert.Contains(t, out, "<击杀> 用户[1] 击杀 用户[2]")
	assert.Contains(t, out, "<离开> 用户[2] 在场[1]")
}
