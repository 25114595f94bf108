package data

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/library/xgo"
)

var _ biz.RankRepo = (*rankRepo)(nil)

type rankRepo struct {
	data *Data
}

func NewRankRepo(data *Data) biz.RankRepo {
	return &rankRepo{data: data}
}

// TopRank 胜场倒序的前 n 名, 缺少资料的用户跳过
func (r *rankRepo) TopRank(ctx context.Context, n int) ([]*biz.RankItem, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := r.data.redis.ZRevRangeWithScores(ctx, rankKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.StringCmd, len(zs))
	_, err = r.data.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range zs {
			cmds[i] = pipe.HGet(ctx, userKey(memberID(z.Member)), basicInfoField)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	items := make([]*biz.RankItem, 0, len(zs))
	for i, z := range zs {
		s, err := cmds[i].Result()
		if err != nil {
			continue
		}
		u := &biz.UserEntity{}
		if err = json.Unmarshal([]byte(s), u); err != nil {
			r.data.log.Warnf("rank: decode user %v: %v", z.Member, err)
			continue
		}
		items = append(items, &biz.RankItem{
			RankID:     len(items) + 1,
			UserID:     memberID(z.Member),
			UserName:   u.UserName,
			HeroAvatar: u.HeroAvatar,
			Win:        int(z.Score),
		})
	}
	return items, nil
}

// RefreshRank 胜负计数与排名分数在同一个事务里加一, 并发消费不会写回旧分数
func (r *rankRepo) RefreshRank(ctx context.Context, msg *biz.VictorMsg) error {
	if msg == nil || msg.WinnerID <= 0 || msg.LoserID <= 0 {
		return nil
	}
	_, err := r.data.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, userKey(msg.WinnerID), winField, 1)
		pipe.HIncrBy(ctx, userKey(msg.LoserID), loseField, 1)
		pipe.ZIncrBy(ctx, rankKey, 1, xgo.Int64ToStr(msg.WinnerID))
		return nil
	})
	return err
}

func memberID(m any) int64 {
	s, _ := m.(string)
	return xgo.StrToInt64(s)
}
