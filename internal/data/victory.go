package data

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yola1107/herostory/internal/biz"
)

const victoryContentType = "application/json"

var _ biz.VictoryPublisher = (*victoryPublisher)(nil)

type victoryPublisher struct {
	data *Data
}

func NewVictoryPublisher(data *Data) biz.VictoryPublisher {
	return &victoryPublisher{data: data}
}

func (p *victoryPublisher) PublishVictory(ctx context.Context, msg *biz.VictorMsg) error {
	if p.data.publisher == nil {
		return errors.New("data: victory publisher not configured")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	id, err := p.data.publisher.Publish(ctx, victoryContentType, body)
	if err != nil {
		return err
	}
	p.data.log.Debugf("victory published. id=%s winner=%d loser=%d", id, msg.WinnerID, msg.LoserID)
	return nil
}

// DecodeVictory 解析消息队列中的战斗结果
func DecodeVictory(body []byte) (*biz.VictorMsg, error) {
	msg := &biz.VictorMsg{}
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
