package biz

import (
	"context"
	"math"

	v1 "github.com/yola1107/herostory/api/herostory/v1"
	"github.com/yola1107/herostory/library/dispatch"
	"github.com/yola1107/herostory/library/work"
)

func (uc *Usecase) onUserAttk(s dispatch.Session, cmd *v1.UserAttkCmd) {
	attkID := s.UID()
	if attkID <= 0 {
		return
	}
	targetID := int64(cmd.TargetUserID)
	target := uc.users.Get(targetID)
	if target == nil {
		// 目标不存在, 目标ID 为 -1 (uint32 下即 MaxUint32)
		uc.bc.Broadcast(&v1.UserAttkResult{AttkUserID: uint32(attkID), TargetUserID: math.MaxUint32})
		return
	}
	if target.Dead() {
		uc.bc.Broadcast(&v1.UserAttkResult{AttkUserID: uint32(attkID), TargetUserID: uint32(targetID)})
		return
	}

	damage := uc.rc.Damage
	target.CurrHp = max(target.CurrHp-damage, 0)

	uc.bc.Broadcast(&v1.UserAttkResult{AttkUserID: uint32(attkID), TargetUserID: uint32(targetID)})
	if damage > 0 {
		uc.bc.Broadcast(&v1.UserSubtractHpResult{TargetUserID: uint32(targetID), SubtractHp: uint32(damage)})
	}
	if !target.Dead() {
		return
	}

	uc.bc.Broadcast(&v1.UserDieResult{TargetUserID: uint32(targetID)})
	uc.events.Printf("<击杀> 用户[%d] 击杀 用户[%d]", attkID, targetID)
	uc.publishVictory(&VictorMsg{WinnerID: attkID, LoserID: targetID})
	uc.scheduleRespawn(target)
}

// publishVictory 每次死亡只发布一次, 失败只记录日志
func (uc *Usecase) publishVictory(msg *VictorMsg) {
	timeout := uc.storeTimeout()
	uc.submit(work.NewAsyncOp(msg.WinnerID, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		return struct{}{}, wrapStore("publish victory", uc.publisher.PublishVictory(ctx, msg))
	}, func(struct{}) {
		uc.log.Infof("victory published. winner=%d loser=%d", msg.WinnerID, msg.LoserID)
	}))
}

func (uc *Usecase) scheduleRespawn(u *User) {
	delay := uc.rc.RespawnDelay.Std()
	if delay <= 0 {
		return
	}
	uc.timer.Once(delay, func() {
		// 期间用户可能已离开或重新入场
		if cur := uc.users.Get(u.UserID); cur != u || !u.Dead() {
			return
		}
		u.CurrHp = uc.rc.MaxHp
		uc.events.Printf("<复活> 用户[%d] 血量[%d]", u.UserID, u.CurrHp)
		uc.bc.Broadcast(&v1.UserEntryResult{
			UserID:     uint32(u.UserID),
			UserName:   u.UserName,
			HeroAvatar: u.HeroAvatar,
		})
	})
}
