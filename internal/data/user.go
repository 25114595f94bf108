package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/library/xgo"
)

const (
	userNameKeyPrefix = "UserName_"
	userKeyPrefix     = "User_"
	userIDSeqKey      = "UserIdSeq"
	rankKey           = "Rank"

	basicInfoField = "BasicInfo"
	winField       = "Win"
	loseField      = "Lose"
)

func userKey(userID int64) string {
	return userKeyPrefix + xgo.Int64ToStr(userID)
}

var _ biz.UserRepo = (*userRepo)(nil)

type userRepo struct {
	data *Data
}

func NewUserRepo(data *Data) biz.UserRepo {
	return &userRepo{data: data}
}

func (r *userRepo) Login(ctx context.Context, userName, password, heroAvatar string) (*biz.UserEntity, error) {
	u, err := r.findByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if u, err = r.create(ctx, userName, password, heroAvatar); err != nil {
			return nil, err
		}
	}
	if u.Password != password {
		return nil, biz.ErrWrongPassword
	}
	return u, nil
}

// findByName 不存在时返回 nil, nil
func (r *userRepo) findByName(ctx context.Context, userName string) (*biz.UserEntity, error) {
	id, err := r.data.redis.Get(ctx, userNameKeyPrefix+userName).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.load(ctx, id)
}

func (r *userRepo) load(ctx context.Context, userID int64) (*biz.UserEntity, error) {
	s, err := r.data.redis.HGet(ctx, userKey(userID), basicInfoField).Result()
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	u := &biz.UserEntity{}
	if err = json.Unmarshal([]byte(s), u); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", userID, err)
	}
	u.UserID = userID
	return u, nil
}

func (r *userRepo) create(ctx context.Context, userName, password, heroAvatar string) (*biz.UserEntity, error) {
	id, err := r.data.redis.Incr(ctx, userIDSeqKey).Result()
	if err != nil {
		return nil, err
	}
	u := &biz.UserEntity{UserID: id, UserName: userName, Password: password, HeroAvatar: heroAvatar}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err = r.data.redis.HSet(ctx, userKey(id), basicInfoField, b).Err(); err != nil {
		return nil, err
	}

	ok, err := r.data.redis.SetNX(ctx, userNameKeyPrefix+userName, id, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		// 其他进程抢先创建了同名用户
		r.data.redis.Del(ctx, userKey(id))
		u, err = r.findByName(ctx, userName)
		if err == nil && u == nil {
			err = fmt.Errorf("user %s vanished", userName)
		}
		return u, err
	}
	r.data.log.Infof("user created. uid=%d name=%s", id, userName)
	return u, nil
}
