package biz

import (
	"context"
	"time"

	"github.com/jinzhu/copier"
	"github.com/samber/lo"
	"github.com/zhenjl/cityhash"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/library/dispatch"
	"github.com/yola1107/herostory/library/work"
)

// loginBindID 同一用户名的登录落在同一分片, 避免并发创建
func loginBindID(userName string) int64 {
	h := cityhash.CityHash64([]byte(userName), uint32(len(userName)))
	return int64(h >> 1)
}

func nowMilli() uint64 {
	return uint64(time.Now().UnixMilli())
}

func (uc *Usecase) onUserLogin(s dispatch.Session, cmd *v1.UserLoginCmd) {
	name, pwd := cmd.UserName, cmd.Password
	if name == "" {
		uc.log.Warnf("login: empty user name. session=%s", s.ID())
		return
	}
	if uid := s.UID(); uid > 0 {
		uc.log.Warnf("login: session already bound. session=%s uid=%d", s.ID(), uid)
		return
	}
	avatar := uc.rc.HeroAvatar
	timeout := uc.storeTimeout()

	uc.submit(work.NewAsyncOp(loginBindID(name), func(ctx context.Context) (*UserEntity, error) {
		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		u, err := uc.userRepo.Login(ctx, name, pwd, avatar)
		return u, wrapStore("login "+name, err)
	}, func(u *UserEntity) {
		if u == nil || s.Closed() {
			return
		}
		profile := &UserEntity{}
		if err := copier.Copy(profile, u); err != nil {
			uc.log.Errorf("copy user entity: %v", err)
			return
		}
		profile.Password = ""

		if !uc.bind(s, profile.UserID) {
			uc.log.Warnf("login rejected. uid=%d session=%s bound=%d", profile.UserID, s.ID(), s.UID())
			return
		}
		uc.profiles[profile.UserID] = profile
		uc.log.Infof("user login. uid=%d name=%s session=%s", profile.UserID, profile.UserName, s.ID())
		uc.bc.Send(s, &v1.UserLoginResult{
			UserID:     uint32(profile.UserID),
			UserName:   profile.UserName,
			HeroAvatar: profile.HeroAvatar,
		})
	}))
}

func (uc *Usecase) onUserEntry(s dispatch.Session, cmd *v1.UserEntryCmd) {
	uid := s.UID()
	if uid <= 0 {
		// 未登录时沿用客户端上报的用户ID, 该用户不能属于其他在线会话
		uid = int64(cmd.UserID)
		if !uc.bind(s, uid) {
			uc.log.Warnf("entry rejected. uid=%d session=%s", uid, s.ID())
			return
		}
	}

	u := uc.users.Get(uid)
	if u == nil {
		u = &User{UserID: uid, HeroAvatar: cmd.HeroAvatar, CurrHp: uc.rc.MaxHp}
		if p, ok := uc.profiles[uid]; ok {
			if err := copier.Copy(u, p); err != nil {
				uc.log.Errorf("copy profile uid=%d: %v", uid, err)
			}
		}
		if u.HeroAvatar == "" {
			u.HeroAvatar = uc.rc.HeroAvatar
		}
		uc.users.Add(u)
		uc.events.Printf("<入场> 用户[%d %s] 头像[%s] 血量[%d] 在场[%d]", uid, u.UserName, u.HeroAvatar, u.CurrHp, uc.users.Len())
	}

	uc.bc.Broadcast(&v1.UserEntryResult{
		UserID:     uint32(u.UserID),
		UserName:   u.UserName,
		HeroAvatar: u.HeroAvatar,
	})
}

func (uc *Usecase) onWhoElseIsHere(s dispatch.Session, _ *v1.WhoElseIsHereCmd) {
	uc.bc.Send(s, &v1.WhoElseIsHereResult{
		UserInfo: lo.Map(uc.users.List(), func(u *User, _ int) *v1.UserInfo {
			return &v1.UserInfo{
				UserID:     uint32(u.UserID),
				UserName:   u.UserName,
				HeroAvatar: u.HeroAvatar,
				MoveState: &v1.MoveState{
					FromPosX:  u.Move.FromX,
					FromPosY:  u.Move.FromY,
					ToPosX:    u.Move.ToX,
					ToPosY:    u.Move.ToY,
					StartTime: uint64(u.Move.StartTime),
				},
			}
		}),
	})
}

func (uc *Usecase) onUserMoveTo(s dispatch.Session, cmd *v1.UserMoveToCmd) {
	u := uc.users.Get(s.UID())
	if u == nil {
		return
	}
	now := nowMilli()
	u.Move = MoveState{
		FromX:     cmd.MoveFromPosX,
		FromY:     cmd.MoveFromPosY,
		ToX:       cmd.MoveToPosX,
		ToY:       cmd.MoveToPosY,
		StartTime: int64(now),
	}
	uc.bc.Broadcast(&v1.UserMoveToResult{
		MoveUserID:    uint32(u.UserID),
		MoveFromPosX:  cmd.MoveFromPosX,
		MoveFromPosY:  cmd.MoveFromPosY,
		MoveToPosX:    cmd.MoveToPosX,
		MoveToPosY:    cmd.MoveToPosY,
		MoveStartTime: now,
	})
}

// onUserStop 停在当前移动的目标点
func (uc *Usecase) onUserStop(s dispatch.Session, _ *v1.UserStopCmd) {
	u := uc.users.Get(s.UID())
	if u == nil {
		return
	}
	x, y := u.Move.ToX, u.Move.ToY
	u.Move = MoveState{FromX: x, FromY: y, ToX: x, ToY: y, StartTime: int64(nowMilli())}
	uc.bc.Broadcast(&v1.UserStopResult{
		StopUserID: uint32(u.UserID),
		StopAtPosX: x,
		StopAtPosY: y,
	})
}
