package net

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eden/gameserver/internal/net/packet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher routes an inbound frame to its handler. *packet.Registry is
// the production implementation.
type Dispatcher interface {
	Dispatch(sess any, state packet.SessionState, opcode uint16, body []byte) error
}

// SessionOptions bounds a session's resources.
type SessionOptions struct {
	OutQueueSize int
	MaxFrameSize int
	ReadTimeout  time.Duration // idle limit between frames, 0 = none
	WriteTimeout time.Duration
}

// Session represents a single client connection. Inbound frames are
// dispatched on the reader goroutine; outbound frames are written by the
// writer goroutine.
type Session struct {
	ID            uint64
	CorrelationID string

	conn       net.Conn
	opts       SessionOptions
	dispatcher Dispatcher
	state      atomic.Int32 // packet.SessionState stored as int32

	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	mu         sync.Mutex
	onClose    []func()
	attachment any

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, opts SessionOptions, d Dispatcher, log *zap.Logger) *Session {
	if opts.OutQueueSize <= 0 {
		opts.OutQueueSize = 64
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = 0xFFFF
	}
	corr := uuid.NewString()
	s := &Session{
		ID:            id,
		CorrelationID: corr,
		conn:          conn,
		opts:          opts,
		dispatcher:    d,
		out:           make(chan []byte, opts.OutQueueSize),
		closeCh:       make(chan struct{}),
		log: log.With(
			zap.Uint64("session", id),
			zap.String("corr", corr),
		),
	}
	s.state.Store(int32(packet.StateConnected))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr().String() }
func (s *Session) Log() *zap.Logger   { return s.log }

// Attach stores handler-owned data on the session.
func (s *Session) Attach(v any) {
	s.mu.Lock()
	s.attachment = v
	s.mu.Unlock()
}

func (s *Session) Attachment() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment
}

// OnClose registers fn to run once the session closes. If it is already
// closed fn runs immediately.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	if !s.closed.Load() {
		s.onClose = append(s.onClose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues msg for the writer goroutine. It never blocks: a full queue
// means the client is not keeping up and the session is closed.
func (s *Session) Send(msg packet.Message) {
	payload := packet.Marshal(msg)
	s.enqueue(EncodeFrame(payload, len(payload)))
}

// SendTruncated queues msg with only its first size serialized bytes
// (opcode included), for fixed-layout packets whose trailing fields are
// omitted.
func (s *Session) SendTruncated(msg packet.Message, size int) {
	s.enqueue(EncodeFrame(packet.Marshal(msg), size))
}

func (s *Session) enqueue(frame []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.out <- frame:
	default:
		s.log.Warn("output queue full, closing slow session")
		s.Close()
	}
}

// Close shuts the session down and runs the OnClose callbacks once.
func (s *Session) Close() {
	first := false
	s.closeOnce.Do(func() {
		first = true
		s.mu.Lock()
		s.closed.Store(true)
		s.mu.Unlock()
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
	if !first {
		return
	}
	s.mu.Lock()
	callbacks := s.onClose
	s.onClose = nil
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// readLoop reads frames and dispatches them until the connection fails or
// the client violates the protocol.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		if s.opts.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
		opcode, body, err := ReadFrame(s.conn, s.opts.MaxFrameSize)
		if err != nil {
			switch {
			case s.closed.Load():
			case errors.Is(err, ErrProtocolViolation):
				s.log.Warn("protocol violation", zap.String("ip", s.RemoteAddr()), zap.Error(err))
			default:
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if err := s.dispatcher.Dispatch(s, s.State(), opcode, body); err != nil {
			if errors.Is(err, packet.ErrStateNotAllowed) {
				s.log.Warn("protocol violation", zap.String("ip", s.RemoteAddr()), zap.Error(err))
				return
			}
			s.log.Warn("packet handling failed", zap.Error(err))
		}
		if s.closed.Load() {
			return
		}
	}
}

// writeLoop writes queued frames to the connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case frame := <-s.out:
			if s.opts.WriteTimeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			}
			if _, err := s.conn.Write(frame); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
