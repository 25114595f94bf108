package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/library/log/zap"
	zconf "github.com/yola1107/herostory/library/log/zap/conf"
	"github.com/yola1107/herostory/transport/websocket"
)

var (
	Name     = conf.Name
	Version  = conf.Version
	flagconf string // -conf path
	flagdump bool
	id, _    = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/herostory.yaml", "config path, e.g. -conf config.yaml")
	flag.BoolVar(&flagdump, "dump", false, "print the effective config and exit")
}

func newApp(c config.Config, rc *conf.Room, logger log.Logger, ws *websocket.Server, uc *biz.Usecase) (*kratos.App, error) {
	// 房间参数热更新投递到 loop
	err := conf.Watch(c, "room", rc, func(r *conf.Room) {
		if err := uc.UpdateRoom(r); err != nil {
			log.Errorf("[config] apply room failed: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(ws),
	), nil
}

func main() {
	flag.Parse()

	c, bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	if flagdump {
		if err = bc.Dump(os.Stdout); err != nil {
			panic(err)
		}
		return
	}

	logger, err := zap.NewLogger(bc.Log)
	if err != nil {
		panic(fmt.Errorf("logger config invalid: %w", err))
	}
	log.SetLogger(logger)
	defer logger.Close()

	if err = watchLog(c, bc.Log, logger); err != nil {
		panic(err)
	}

	app, cleanup, err := wireApp(c, bc.Server, bc.Data, bc.Room, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err = app.Run(); err != nil {
		panic(err)
	}
}

// watchLog 日志级别与脱敏字段热更新
func watchLog(c config.Config, lc *zconf.Logger, logger *zap.Logger) error {
	return conf.Watch(c, "log", lc, func(v *zconf.Logger) {
		if v.Level != logger.GetLevel() {
			logger.SetLevel(v.Level)
		}
		logger.SetSensitive(v.Sensitive)
	})
}
