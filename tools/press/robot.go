package press

import (
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/library/xgo"
	"github.com/yola1107/herostory/transport/websocket"
)

// Robot 模拟一个客户端: 登录, 入场, 随机移动与攻击
type Robot struct {
	r      *Runner
	name   string
	uid    atomic.Int64
	client *websocket.Client
	sess   atomic.Pointer[websocket.Session]

	// 以下只在 loop 中访问
	entered bool
	peers   map[int64]struct{}
	x, y    float32
}

func NewRobot(r *Runner, name string) (*Robot, error) {
	u := &Robot{r: r, name: name, peers: make(map[int64]struct{})}
	c, err := websocket.NewClient(r.ctx,
		websocket.WithEndpoint(r.conf.Load().URL),
		websocket.WithConnectFunc(u.OnConnect),
		websocket.WithDisconnectFunc(u.OnDisconnect),
		websocket.WithMessageHandler(u.OnMessage),
	)
	if err != nil {
		return nil, err
	}
	u.client = c
	return u, nil
}

func (u *Robot) Close() {
	u.client.Close()
}

func (u *Robot) OnConnect(session *websocket.Session) {
	log.Infof("connect called. %q name=%s", session.ID(), u.name)
	u.sess.Store(session)
	u.send(session, &v1.UserLoginCmd{UserName: u.name, Password: u.r.conf.Load().Password})
}

func (u *Robot) OnDisconnect(session *websocket.Session) {
	log.Infof("disconnect called. %q name=%s uid=%d", session.ID(), u.name, u.uid.Load())
}

// OnMessage 在连接读协程中调用, 状态变更投递到 loop
func (u *Robot) OnMessage(data []byte) {
	msg, err := u.r.codec.Decode(data)
	if err != nil {
		log.Warnf("robot %s decode: %v", u.name, err)
		return
	}
	if err = u.r.loop.PostFunc(func() { u.handle(msg) }); err != nil {
		log.Warnf("robot %s post: %v", u.name, err)
	}
}

func (u *Robot) handle(msg codec.Message) {
	switch m := msg.(type) {
	case *v1.UserLoginResult:
		if m.UserID == 0 {
			return
		}
		u.uid.Store(int64(m.UserID))
		u.Request(&v1.UserEntryCmd{UserID: m.UserID, HeroAvatar: m.HeroAvatar})
		u.Request(&v1.WhoElseIsHereCmd{})
	case *v1.UserEntryResult:
		if int64(m.UserID) == u.uid.Load() {
			u.entered = true
			return
		}
		u.peers[int64(m.UserID)] = struct{}{}
	case *v1.WhoElseIsHereResult:
		for _, info := range m.UserInfo {
			if int64(info.UserID) != u.uid.Load() {
				u.peers[int64(info.UserID)] = struct{}{}
			}
		}
	case *v1.UserQuitResult:
		delete(u.peers, int64(m.QuitUserID))
	case *v1.UserDieResult:
		if int64(m.TargetUserID) == u.uid.Load() {
			u.entered = false
		}
	}
}

// Act 定时动作, 在 loop 中执行
func (u *Robot) Act() {
	if !u.entered || !u.client.IsAlive() {
		return
	}
	c := u.r.conf.Load()
	switch {
	case len(u.peers) > 0 && xgo.IsHit(30):
		ids := lo.Keys(u.peers)
		u.Request(&v1.UserAttkCmd{TargetUserID: uint32(ids[xgo.RandInt(0, len(ids))])})
	case xgo.IsHit(10):
		u.Request(&v1.GetRankCmd{})
	case xgo.IsHit(20):
		u.Request(&v1.UserStopCmd{})
	default:
		toX, toY := xgo.RandFloat(0, c.MapWidth), xgo.RandFloat(0, c.MapHeight)
		u.Request(&v1.UserMoveToCmd{MoveFromPosX: u.x, MoveFromPosY: u.y, MoveToPosX: toX, MoveToPosY: toY})
		u.x, u.y = toX, toY
	}
}

// Request 发往最近一次建立的会话, NewClient 返回前也可用
func (u *Robot) Request(msg codec.Message) {
	if sess := u.sess.Load(); sess != nil {
		u.send(sess, msg)
	}
}

func (u *Robot) send(to interface{ Send([]byte) error }, msg codec.Message) {
	data, err := u.r.codec.Encode(msg)
	if err != nil {
		log.Errorf("robot %s encode %s: %v", u.name, msg.MsgName(), err)
		return
	}
	if err = to.Send(data); err != nil {
		log.Warnf("robot %s send %s: %v", u.name, msg.MsgName(), err)
	}
}
