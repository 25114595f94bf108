package server

import (
	"github.com/google/wire"

	"github.com/yola1107/herostory/internal/conf"
	"github.com/yola1107/herostory/internal/service"
	"github.com/yola1107/herostory/library/codec"
	"github.com/yola1107/herostory/transport/websocket"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewWebsocketServer)

// NewWebsocketServer new an Websocket server.
func NewWebsocketServer(c *conf.Server, svc *service.Service) *websocket.Server {
	ws := c.Websocket
	var opts = []websocket.ServerOption{
		websocket.WithHandler(svc),
		websocket.MaxMessageSize(codec.HeaderSize + codec.MaxPayloadSize),
	}
	if ws.Addr != "" {
		opts = append(opts, websocket.Address(ws.Addr))
	}
	if ws.Path != "" {
		opts = append(opts, websocket.Path(ws.Path))
	}
	if ws.Timeout > 0 {
		opts = append(opts, websocket.Timeout(ws.Timeout.Std()))
	}
	if ws.MaxConn > 0 {
		opts = append(opts, websocket.MaxConnLimit(ws.MaxConn))
	}
	if ws.SendChanSize > 0 {
		opts = append(opts, websocket.SentChanSize(ws.SendChanSize))
	}
	if ws.RateLimit > 0 {
		opts = append(opts, websocket.RateLimit(ws.RateLimit, ws.RateBurst))
	}
	if hb := ws.Heartbeat; hb != nil {
		opts = append(opts, websocket.Heartbeat(hb.ReadDeadline.Std(), hb.PingInterval.Std(), hb.WriteTimeout.Std()))
	}
	return websocket.NewServer(opts...)
}
