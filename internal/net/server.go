package net

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and starts a Session for each.
type Server struct {
	listener   net.Listener
	nextID     atomic.Uint64
	opts       SessionOptions
	dispatcher Dispatcher
	log        *zap.Logger
	closeCh    chan struct{}
	closeOnce  sync.Once

	mu       sync.Mutex
	sessions map[uint64]*Session
	wg       sync.WaitGroup
}

func NewServer(bindAddr string, opts SessionOptions, d Dispatcher, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return newServer(ln, opts, d, log), nil
}

func newServer(ln net.Listener, opts SessionOptions, d Dispatcher, log *zap.Logger) *Server {
	return &Server{
		listener:   ln,
		opts:       opts,
		dispatcher: d,
		log:        log.Named("net"),
		closeCh:    make(chan struct{}),
		sessions:   make(map[uint64]*Session),
	}
}

// AcceptLoop accepts connections until Shutdown is called.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.Serve(conn)
	}
}

// Serve starts a session on an accepted connection.
func (s *Server) Serve(conn net.Conn) *Session {
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.opts, s.dispatcher, s.log)

	s.mu.Lock()
	s.sessions[id] = sess
	s.wg.Add(1)
	s.mu.Unlock()
	sess.OnClose(func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		s.wg.Done()
		sess.Log().Info("client disconnected")
	})

	sess.Log().Info("client connected", zap.String("ip", sess.RemoteAddr()))
	sess.Start()
	return sess
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops accepting connections, closes every session and waits for
// their close callbacks to finish.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.listener.Close()
	})

	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
	s.wg.Wait()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
