package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/internal/data"
	"github.com/yola1107/herostory/library/log/zap"
	"github.com/yola1107/herostory/library/mq/rabbitmq"
)

const Name = "rank-consumer"

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/herostory.yaml", "config path, e.g. -conf config.yaml")
}

func main() {
	flag.Parse()

	c, bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	bc.Log.AppName = Name
	logger, err := zap.NewLogger(bc.Log)
	if err != nil {
		panic(fmt.Errorf("logger config invalid: %w", err))
	}
	log.SetLogger(logger)
	defer logger.Close()

	rdb, cleanup, err := data.NewRedis(bc.Data)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	d, err := data.NewData(rdb, nil, logger)
	if err != nil {
		panic(err)
	}
	consumer, err := rabbitmq.NewConsumer(
		data.MQOptions(bc.Data.Rabbitmq),
		data.ConsumerOptions(bc.Data.Rabbitmq, bc.Rank),
		refreshRank(data.NewRankRepo(d)),
	)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consumer.Start()
		log.Infof("%s started. queue=%s workers=%d", Name, bc.Data.Rabbitmq.Queue, bc.Rank.Workers)
		<-ctx.Done()
		consumer.Close()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				log.Infof("%s running=%d", Name, consumer.Running())
			}
		}
	})
	if err = g.Wait(); err != nil {
		log.Errorf("%s exit: %v", Name, err)
		os.Exit(1)
	}
	log.Infof("%s stopped", Name)
}

// refreshRank 无法解析的消息直接丢弃, 存储失败时重新入队一次
func refreshRank(repo biz.RankRepo) rabbitmq.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		msg, err := data.DecodeVictory(body)
		if err != nil {
			log.Warnf("drop victory message %q: %v", body, err)
			return nil
		}
		if err = repo.RefreshRank(ctx, msg); err != nil {
			return fmt.Errorf("refresh rank winner=%d loser=%d: %w", msg.WinnerID, msg.LoserID, err)
		}
		log.Debugf("rank refreshed. winner=%d loser=%d", msg.WinnerID, msg.LoserID)
		return nil
	}
}
