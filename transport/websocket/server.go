package websocket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var (
	_ transport.Server     = (*Server)(nil)
	_ transport.Endpointer = (*Server)(nil)
	_ Handler              = (*Server)(nil)
)

// ServerOption is a Websocket server option.
type ServerOption func(*Server)

// Network with server network.
func Network(network string) ServerOption {
	return func(s *Server) { s.network = network }
}

// Address with server address.
func Address(addr string) ServerOption {
	return func(s *Server) { s.address = addr }
}

// Path 升级路径, 默认 "/"
func Path(path string) ServerOption {
	return func(s *Server) { s.path = path }
}

// Endpoint with server endpoint.
func Endpoint(u *url.URL) ServerOption {
	return func(s *Server) { s.endpoint = u }
}

// TLSConf with TLS config.
func TLSConf(c *tls.Config) ServerOption {
	return func(s *Server) { s.tlsConf = c }
}

// MaxConnLimit 超过后握手直接返回 503
func MaxConnLimit(n int32) ServerOption {
	return func(s *Server) { s.maxConn = n }
}

// Timeout 握手与读请求头超时
func Timeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

// Heartbeat 读超时, ping 间隔, 写超时
func Heartbeat(readDeadline, pingInterval, writeTimeout time.Duration) ServerOption {
	return func(s *Server) {
		s.sessConf.ReadDeadline = readDeadline
		s.sessConf.PingInterval = pingInterval
		s.sessConf.WriteTimeout = writeTimeout
	}
}

// SentChanSize 每个会话的发送队列长度
func SentChanSize(size int) ServerOption {
	return func(s *Server) { s.sessConf.SendChanSize = size }
}

// RateLimit 每个会话的入站消息限速, limit<=0 不限速
func RateLimit(limit float64, burst int) ServerOption {
	return func(s *Server) { s.sessConf.RateLimit, s.sessConf.RateBurst = limit, burst }
}

// MaxMessageSize 单条入站消息上限
func MaxMessageSize(n int64) ServerOption {
	return func(s *Server) { s.sessConf.MaxMessageSize = n }
}

// AllowOrigins 限制握手的 Origin, 为空时不检查
func AllowOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

// WithHandler 设置连接事件处理器
func WithHandler(h Handler) ServerOption {
	return func(s *Server) { s.handler = h }
}

// Server is a Websocket server wrapper.
type Server struct {
	*http.Server
	lis      net.Listener
	tlsConf  *tls.Config
	endpoint *url.URL
	network  string
	address  string
	path     string
	timeout  time.Duration
	maxConn  int32
	origins  []string
	sessConf SessionConfig
	upgrader websocket.Upgrader
	sessions *SessionManager
	handler  Handler
}

// NewServer creates a Websocket server by options.
func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		network:  "tcp",
		address:  ":0",
		path:     "/",
		timeout:  5 * time.Second,
		maxConn:  10000,
		sessConf: defaultSessionConfig(),
		sessions: NewSessionManager(),
	}
	for _, o := range opts {
		o(srv)
	}
	srv.upgrader = websocket.Upgrader{
		HandshakeTimeout: srv.timeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      srv.checkOrigin,
	}

	router := mux.NewRouter()
	router.HandleFunc(srv.path, srv.upgrade).Methods(http.MethodGet)
	router.HandleFunc("/healthz", srv.health).Methods(http.MethodGet)
	srv.Server = &http.Server{
		Addr:              srv.address,
		Handler:           router,
		TLSConfig:         srv.tlsConf,
		ReadHeaderTimeout: srv.timeout,
	}
	return srv
}

// Sessions 当前会话
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Endpoint 第一次调用时监听端口
func (s *Server) Endpoint() (*url.URL, error) {
	if s.lis == nil {
		lis, err := net.Listen(s.network, s.address)
		if err != nil {
			return nil, err
		}
		s.lis = lis
	}
	if s.endpoint == nil {
		scheme := "ws"
		if s.tlsConf != nil {
			scheme = "wss"
		}
		s.endpoint = &url.URL{Scheme: scheme, Host: s.lis.Addr().String(), Path: s.path}
	}
	return s.endpoint, nil
}

// Start start the Websocket server.
func (s *Server) Start(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("websocket: handler not set")
	}
	endpoint, err := s.Endpoint()
	if err != nil {
		return err
	}
	s.BaseContext = func(net.Listener) context.Context { return ctx }
	log.Infof("[websocket] server listening on: %s", endpoint)

	if s.tlsConf != nil {
		err = s.ServeTLS(s.lis, "", "")
	} else {
		err = s.Serve(s.lis)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stop the Websocket server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("[websocket] server stopping")
	err := s.Shutdown(ctx)
	// Shutdown 不管理 hijack 后的连接
	s.sessions.CloseAllSessions()
	return err
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) {
	if n := s.sessions.Len(); n >= s.maxConn {
		log.Warnf("[websocket] reject %s, sessions=%d limit=%d", r.RemoteAddr, n, s.maxConn)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("[websocket] upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	NewSession(s, conn, s.sessConf)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok sessions=%d\n", s.sessions.Len())
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	return slices.Contains(s.origins, r.Header.Get("Origin"))
}

func (s *Server) OnSessionOpen(sess *Session) {
	s.sessions.Add(sess)
	s.handler.OnSessionOpen(sess)
}

func (s *Server) OnSessionClose(sess *Session) {
	s.handler.OnSessionClose(sess)
	s.sessions.Delete(sess)
}

func (s *Server) OnMessage(sess *Session, data []byte) {
	s.handler.OnMessage(sess, data)
}
