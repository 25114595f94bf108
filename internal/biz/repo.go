package biz

import (
	"context"
	"errors"
)

var (
	// ErrWrongPassword 用户存在但密码不匹配
	ErrWrongPassword = errors.New("biz: wrong password")
)

// UserEntity 持久化的用户资料
type UserEntity struct {
	UserID     int64  `json:"userId"`
	UserName   string `json:"userName"`
	Password   string `json:"password"`
	HeroAvatar string `json:"heroAvatar"`
}

// RankItem 排名条目
type RankItem struct {
	RankID     int
	UserID     int64
	UserName   string
	HeroAvatar string
	Win        int
}

// VictorMsg 战斗结果, 发送到消息队列由排行榜进程消费
type VictorMsg struct {
	WinnerID int64 `json:"winnerId"`
	LoserID  int64 `json:"loserId"`
}

// UserRepo 用户存储, 可阻塞, 只在异步分片中调用
type UserRepo interface {
	// Login 按用户名加载用户, 不存在时以 heroAvatar 创建. 密码不匹配返回 ErrWrongPassword
	Login(ctx context.Context, userName, password, heroAvatar string) (*UserEntity, error)
}

// RankRepo 排行榜存储
type RankRepo interface {
	TopRank(ctx context.Context, n int) ([]*RankItem, error)
	RefreshRank(ctx context.Context, msg *VictorMsg) error
}

// VictoryPublisher 战斗结果发布
type VictoryPublisher interface {
	PublishVictory(ctx context.Context, msg *VictorMsg) error
}
