package press

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"

	"github.com/yola1107/herostory/internal/conf"
	zconf "github.com/yola1107/herostory/library/log/zap/conf"
)

type (
	Bootstrap struct {
		Log   *zconf.Logger `json:"log" yaml:"log"`
		Press *Press        `json:"press" yaml:"press"`
	}
	Press struct {
		URL        string        `json:"url" yaml:"url"`
		Num        int32         `json:"num" yaml:"num"`           // 机器人总数
		Batch      int32         `json:"batch" yaml:"batch"`       // 每次启动数量
		Spawn      conf.Duration `json:"spawn" yaml:"spawn"`       // 启动批次间隔
		Interval   conf.Duration `json:"interval" yaml:"interval"` // 动作间隔
		NamePrefix string        `json:"name_prefix" yaml:"name_prefix"`
		Password   string        `json:"password" yaml:"password"`
		MapWidth   float32       `json:"map_width" yaml:"map_width"`
		MapHeight  float32       `json:"map_height" yaml:"map_height"`
	}
)

func DefaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Log: zconf.DefaultConfig(zconf.WithAppName("herostory-client")),
		Press: &Press{
			URL:        "ws://127.0.0.1:12345/websocket",
			Num:        10,
			Batch:      2,
			Spawn:      conf.Duration(time.Second),
			Interval:   conf.Duration(time.Second),
			NamePrefix: "robot_",
			Password:   "robot",
			MapWidth:   1280,
			MapHeight:  720,
		},
	}
}

func (p *Press) Validate() error {
	if p.URL == "" {
		return errors.New("press.url is empty")
	}
	if p.Num < 0 || p.Batch <= 0 {
		return errors.New("press.num must be >= 0 and press.batch > 0")
	}
	if p.Spawn <= 0 || p.Interval <= 0 {
		return errors.New("press.spawn and press.interval must be > 0")
	}
	return nil
}

// LoadConfig 加载配置并合并默认值
func LoadConfig(path string) (config.Config, *Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config %q: %w", path, err)
	}
	bc := &Bootstrap{}
	if err := c.Scan(bc); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("bootstrap config invalid: %w", err)
	}
	if err := mergo.Merge(bc, DefaultBootstrap()); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	if err := bc.Press.Validate(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, bc, nil
}
