package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
)

type SessionManager struct {
	count    atomic.Int32
	sessions sync.Map
}

func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

func (s *SessionManager) Len() int32 {
	return s.count.Load()
}

func (s *SessionManager) Add(session *Session) {
	if _, loaded := s.sessions.LoadOrStore(session.ID(), session); !loaded {
		count := s.count.Add(1)
		log.Infof("start ws serve. %q with %q key=%q sessions=%d",
			session.conn.LocalAddr(), session.conn.RemoteAddr(), session.ID(), count)
	}
}

func (s *SessionManager) Delete(session *Session) {
	if _, loaded := s.sessions.LoadAndDelete(session.ID()); loaded {
		count := s.count.Add(-1)
		log.Infof("disconnect. key=%q uid=%d sessions=%d", session.ID(), session.UID(), count)
	}
}

func (s *SessionManager) Get(sessionID string) *Session {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil
	}
	return v.(*Session)
}

func (s *SessionManager) Range(fn func(*Session) bool) {
	s.sessions.Range(func(_, v any) bool {
		return fn(v.(*Session))
	})
}

func (s *SessionManager) CloseAllSessions() {
	s.Range(func(sess *Session) bool {
		sess.Close(true)
		return true
	})
}
