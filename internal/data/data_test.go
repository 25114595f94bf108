package data

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
)

func newTestData(t *testing.T) (*Data, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	d, err := NewData(rdb, nil, log.DefaultLogger)
	require.NoError(t, err)
	return d, mr
}

func TestUserRepo_Login(t *testing.T) {
	d, mr := newTestData(t)
	repo := NewUserRepo(d)
	ctx := context.Background()

	u, err := repo.Login(ctx, "alice", "pwd", "Hero_Shaman")
	require.NoError(t, err)
	assert.Equal(t, &biz.UserEntity{UserID: 1, UserName: "alice", Password: "pwd", HeroAvatar: "Hero_Shaman"}, u)

	id, err := mr.Get("UserName_alice")
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.NotEmpty(t, mr.HGet("User_1", "BasicInfo"))

	// 再次登录读取已有用户, 头像不变
	u, err = repo.Login(ctx, "alice", "pwd", "Hero_Hammer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)
	assert.Equal(t, "Hero_Shaman", u.HeroAvatar)

	_, err = repo.Login(ctx, "alice", "bad", "")
	require.ErrorIs(t, err, biz.ErrWrongPassword)

	u, err = repo.Login(ctx, "bob", "x", "Hero_Hammer")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.UserID)
}

func TestUserRepo_LoginStoreDown(t *testing.T) {
	d, mr := newTestData(t)
	mr.Close()

	_, err := NewUserRepo(d).Login(context.Background(), "alice", "pwd", "")
	require.Error(t, err)
}

func TestRankRepo(t *testing.T) {
	d, mr := newTestData(t)
	users := NewUserRepo(d)
	rank := NewRankRepo(d)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := users.Login(ctx, name, "p", "Hero_Shaman")
		require.NoError(t, err)
	}

	require.NoError(t, rank.RefreshRank(ctx, &biz.VictorMsg{WinnerID: 1, LoserID: 2}))
	require.NoError(t, rank.RefreshRank(ctx, &biz.VictorMsg{WinnerID: 3, LoserID: 1}))
	require.NoError(t, rank.RefreshRank(ctx, &biz.VictorMsg{WinnerID: 3, LoserID: 2}))
	// 非法消息忽略
	require.NoError(t, rank.RefreshRank(ctx, &biz.VictorMsg{WinnerID: 0, LoserID: 2}))
	require.NoError(t, rank.RefreshRank(ctx, nil))

	assert.Equal(t, "2", mr.HGet("User_3", "Win"))
	assert.Equal(t, "2", mr.HGet("User_2", "Lose"))

	items, err := rank.TopRank(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []*biz.RankItem{
		{RankID: 1, UserID: 3, UserName: "c", HeroAvatar: "Hero_Shaman", Win: 2},
		{RankID: 2, UserID: 1, UserName: "a", HeroAvatar: "Hero_Shaman", Win: 1},
	}, items)

	items, err = rank.TopRank(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].UserID)

	items, err = rank.TopRank(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRankRepo_ConcurrentRefresh(t *testing.T) {
	d, mr := newTestData(t)
	rank := NewRankRepo(d)
	ctx := context.Background()

	var eg errgroup.Group
	for i := 0; i < 20; i++ {
		eg.Go(func() error {
			return rank.RefreshRank(ctx, &biz.VictorMsg{WinnerID: 7, LoserID: 8})
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, "20", mr.HGet("User_7", "Win"))
	assert.Equal(t, "20", mr.HGet("User_8", "Lose"))
	score, err := mr.ZScore("Rank", "7")
	require.NoError(t, err)
	assert.Equal(t, float64(20), score)
}

func TestRankRepo_SkipsMissingProfile(t *testing.T) {
	d, mr := newTestData(t)
	_, err := mr.ZAdd("Rank", 5, "42")
	require.NoError(t, err)

	items, err := NewRankRepo(d).TopRank(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestVictoryPublisher(t *testing.T) {
	d, _ := newTestData(t)
	err := NewVictoryPublisher(d).PublishVictory(context.Background(), &biz.VictorMsg{WinnerID: 1, LoserID: 2})
	require.Error(t, err)

	msg, err := DecodeVictory([]byte(`{"winnerId":1,"loserId":2}`))
	require.NoError(t, err)
	assert.Equal(t, &biz.VictorMsg{WinnerID: 1, LoserID: 2}, msg)

	_, err = DecodeVictory([]byte("not-json"))
	require.Error(t, err)
}

func TestConfigConversion(t *testing.T) {
	c := conf.Default().Data

	rc := RedisConfig(&conf.Redis{Addr: "10.0.0.1:6380", DB: 2, DialTimeout: conf.Duration(time.Second)})
	assert.Equal(t, "10.0.0.1:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, time.Second, rc.DialTimeout)

	pub := PublisherOptions(c.Rabbitmq)
	assert.Equal(t, c.Rabbitmq.Exchange, pub.Exchange)
	assert.Equal(t, c.Rabbitmq.Queue, pub.Queue)
	assert.Equal(t, c.Rabbitmq.RoutingKey, pub.RoutingKey)

	cons := ConsumerOptions(c.Rabbitmq, &conf.RankConsumer{Workers: 3, Prefetch: 9})
	assert.Equal(t, c.Rabbitmq.Queue, cons.Queue)
	assert.Equal(t, 3, cons.Workers)
	assert.Equal(t, 9, cons.PrefetchCount)
	assert.False(t, cons.AutoAck)

	assert.Contains(t, MQOptions(c.Rabbitmq).BuildURL(), c.Rabbitmq.Host)

	_, _, err := NewRedis(&conf.Data{})
	require.Error(t, err)
	_, _, err = NewPublisher(&conf.Data{})
	require.Error(t, err)
	_, err = NewData(nil, nil, log.DefaultLogger)
	require.Error(t, err)
}
