package service

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/yola1107/herostory/internal/biz"
	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/transport/websocket"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewService)

var _ websocket.Handler = (*Service)(nil)

// Service 连接事件入口: 解码后投递到房间 loop, 本身不持有状态
type Service struct {
	uc  *biz.Usecase
	log *log.Helper
}

func NewService(uc *biz.Usecase, logger log.Logger) *Service {
	log.Infof("start server:\"%s\" version:%+v", conf.Name, conf.Version)
	return &Service{uc: uc, log: log.NewHelper(log.With(logger, "module", "service"))}
}

func (s *Service) OnSessionOpen(sess *websocket.Session) {
	s.log.Infof("session open. id=%s remote=%s", sess.ID(), sess.RemoteAddr())
	if err := s.uc.OnSessionOpen(sess); err != nil {
		s.log.Errorf("post session open. id=%s: %v", sess.ID(), err)
	}
}

func (s *Service) OnSessionClose(sess *websocket.Session) {
	s.log.Infof("session close. id=%s uid=%d dropped=%d", sess.ID(), sess.UID(), sess.Dropped())
	if err := s.uc.OnSessionClose(sess); err != nil {
		s.log.Errorf("post session close. id=%s: %v", sess.ID(), err)
	}
}

// OnMessage 无法解码的帧丢弃, 连接保持
func (s *Service) OnMessage(sess *websocket.Session, data []byte) {
	msg, err := s.uc.Codec().Decode(data)
	if err != nil {
		s.log.Warnf("decode frame. session=%s uid=%d len=%d: %v", sess.ID(), sess.UID(), len(data), err)
		return
	}
	if err = s.uc.Receive(sess, msg); err != nil {
		s.log.Errorf("post %s. session=%s uid=%d: %v", msg.MsgName(), sess.ID(), sess.UID(), err)
	}
}
