package main

import (
	"flag"
	"fmt"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/library/log/zap"
	"github.com/yola1107/herostory/tools/press"
)

const (
	Name = "herostory-client"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/press.yaml", "config path, e.g. -conf config.yaml")
}

func main() {
	flag.Parse()

	c, bc, err := press.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	logger, err := zap.NewLogger(bc.Log)
	if err != nil {
		panic(fmt.Errorf("logger config invalid: %w", err))
	}
	log.SetLogger(logger)
	defer logger.Close()

	cd, err := biz.NewCodec()
	if err != nil {
		panic(err)
	}
	runner := press.NewRunner(bc.Press, cd)
	if err = conf.Watch(c, "press", bc.Press, runner.UpdateConfig); err != nil {
		panic(err)
	}
	if err = runner.Start(); err != nil {
		panic(err)
	}
	defer runner.Stop()

	app := kratos.New(
		kratos.Name(Name),
		kratos.Logger(logger),
	)
	if err = app.Run(); err != nil {
		log.Fatal(err)
	}
}
