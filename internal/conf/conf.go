package conf

import (
	"errors"
	"fmt"
	"io"
	"time"

	"dario.cat/mergo"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"gopkg.in/yaml.v3"

	zconf "github.com/yola1107/herostory/library/log/zap/conf"
)

const (
	Name    = "herostory"
	Version = "v0.0.1"
)

type Bootstrap struct {
	Server *Server       `json:"server" yaml:"server"`
	Data   *Data         `json:"data" yaml:"data"`
	Room   *Room         `json:"room" yaml:"room"`
	Log    *zconf.Logger `json:"log" yaml:"log"`
	Rank   *RankConsumer `json:"rank" yaml:"rank"`
}

type Server struct {
	Websocket *Websocket `json:"websocket" yaml:"websocket"`
}

type Websocket struct {
	Addr         string     `json:"addr" yaml:"addr"`
	Path         string     `json:"path" yaml:"path"`
	Timeout      Duration   `json:"timeout" yaml:"timeout"`
	MaxConn      int32      `json:"max_conn" yaml:"max_conn"`
	SendChanSize int        `json:"send_chan_size" yaml:"send_chan_size"`
	RateLimit    float64    `json:"rate_limit" yaml:"rate_limit"`
	RateBurst    int        `json:"rate_burst" yaml:"rate_burst"`
	Heartbeat    *Heartbeat `json:"heartbeat" yaml:"heartbeat"`
}

type Heartbeat struct {
	ReadDeadline Duration `json:"read_deadline" yaml:"read_deadline"`
	PingInterval Duration `json:"ping_interval" yaml:"ping_interval"`
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
}

type Data struct {
	Redis    *Redis    `json:"redis" yaml:"redis"`
	Rabbitmq *Rabbitmq `json:"rabbitmq" yaml:"rabbitmq"`
}

type Redis struct {
	Addr          string   `json:"addr" yaml:"addr"`
	Password      string   `json:"password" yaml:"password"`
	DB            int      `json:"db" yaml:"db"`
	PoolSize      int      `json:"pool_size" yaml:"pool_size"`
	MinIdleConns  int      `json:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout   Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout   Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  Duration `json:"write_timeout" yaml:"write_timeout"`
	SlowThreshold Duration `json:"slow_threshold" yaml:"slow_threshold"`
}

type Rabbitmq struct {
	Host         string `json:"host" yaml:"host"`
	Port         string `json:"port" yaml:"port"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	VHost        string `json:"vhost" yaml:"vhost"`
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeType string `json:"exchange_type" yaml:"exchange_type"`
	Queue        string `json:"queue" yaml:"queue"`
	RoutingKey   string `json:"routing_key" yaml:"routing_key"`
}

// Room 游戏房间参数
type Room struct {
	AsyncShards  int    `json:"async_shards" yaml:"async_shards"`
	LoopCapacity int    `json:"loop_capacity" yaml:"loop_capacity"`
	MaxHp        int32  `json:"max_hp" yaml:"max_hp"`
	Damage       int32  `json:"damage" yaml:"damage"`
	RankSize     int    `json:"rank_size" yaml:"rank_size"`
	HeroAvatar   string `json:"hero_avatar" yaml:"hero_avatar"`

	// RespawnDelay 死亡后复活等待时间, 0 不复活
	RespawnDelay Duration `json:"respawn_delay" yaml:"respawn_delay"`
	// StoreTimeout 单次 redis/mq 操作超时
	StoreTimeout Duration `json:"store_timeout" yaml:"store_timeout"`

	// EventLog 房间事件日志文件, 为空不记录
	EventLog string `json:"event_log" yaml:"event_log"`
}

// RankConsumer 排行榜消费进程参数
type RankConsumer struct {
	Workers  int `json:"workers" yaml:"workers"`
	Prefetch int `json:"prefetch" yaml:"prefetch"`
}

// Default 默认配置
func Default() *Bootstrap {
	return &Bootstrap{
		Server: &Server{Websocket: &Websocket{
			Addr:         "0.0.0.0:12345",
			Path:         "/websocket",
			Timeout:      Duration(5 * time.Second),
			MaxConn:      10000,
			SendChanSize: 128,
			RateLimit:    50,
			RateBurst:    100,
			Heartbeat: &Heartbeat{
				ReadDeadline: Duration(60 * time.Second),
				PingInterval: Duration(15 * time.Second),
				WriteTimeout: Duration(10 * time.Second),
			},
		}},
		Data: &Data{
			Redis: &Redis{
				Addr:         "127.0.0.1:6379",
				PoolSize:     10,
				DialTimeout:  Duration(3 * time.Second),
				ReadTimeout:  Duration(3 * time.Second),
				WriteTimeout: Duration(3 * time.Second),
			},
			Rabbitmq: &Rabbitmq{
				Host:         "127.0.0.1",
				Port:         "5672",
				Username:     "guest",
				Password:     "guest",
				VHost:        "/",
				Exchange:     "herostory",
				ExchangeType: "direct",
				Queue:        "herostory_victor",
				RoutingKey:   "victor",
			},
		},
		Room: &Room{
			AsyncShards:  8,
			MaxHp:        100,
			Damage:       10,
			RankSize:     10,
			HeroAvatar:   "Hero_Shaman",
			StoreTimeout: Duration(3 * time.Second),
		},
		Log:  zconf.DefaultConfig(zconf.WithAppName(Name)),
		Rank: &RankConsumer{Workers: 4, Prefetch: 16},
	}
}

// Load 读取配置文件, 未配置的字段使用默认值
func Load(path string) (config.Config, *Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config %q: %w", path, err)
	}
	bc := &Bootstrap{}
	if err := c.Scan(bc); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("scan config %q: %w", path, err)
	}
	if err := bc.Complete(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, bc, nil
}

// Complete 合并默认值并校验
func (b *Bootstrap) Complete() error {
	if err := mergo.Merge(b, Default()); err != nil {
		return fmt.Errorf("merge default config: %w", err)
	}
	return b.Validate()
}

func (b *Bootstrap) Validate() error {
	var errs []error
	ws := b.Server.Websocket
	if ws.Addr == "" {
		errs = append(errs, errors.New("server.websocket.addr is empty"))
	}
	if ws.SendChanSize <= 0 {
		errs = append(errs, errors.New("server.websocket.send_chan_size must be > 0"))
	}
	if ws.Heartbeat.PingInterval >= ws.Heartbeat.ReadDeadline {
		errs = append(errs, errors.New("server.websocket.heartbeat.ping_interval must be < read_deadline"))
	}
	if err := b.Room.Validate(); err != nil {
		errs = append(errs, err)
	}
	if b.Room.AsyncShards <= 0 {
		errs = append(errs, errors.New("room.async_shards must be > 0"))
	}
	if b.Room.LoopCapacity < 0 {
		errs = append(errs, errors.New("room.loop_capacity must be >= 0"))
	}
	if b.Data.Rabbitmq.Queue == "" {
		errs = append(errs, errors.New("data.rabbitmq.queue is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Dump 以 YAML 输出完整配置
func (b *Bootstrap) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(b)
}
