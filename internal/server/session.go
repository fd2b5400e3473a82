package server

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"asteroid-arena/internal/game"
	"asteroid-arena/internal/network"
)

const (
	// handshakeTimeout bounds the wait for the Hello frame.
	handshakeTimeout = 5 * time.Second

	// writeTimeout bounds a single frame write so a stalled peer cannot
	// wedge its writer goroutine forever.
	writeTimeout = 5 * time.Second
)

// ErrSlowConsumer is the terminal condition of a session whose outbound
// queue overflowed past the hard cap.
var ErrSlowConsumer = errors.New("slow consumer")

// Session tracks one connected client: its transport, queued inputs and
// the bounded outbound queue. The reader and writer goroutines own the two
// halves of the connection; the simulation only touches the input queue
// and the outbox, both of which are internally locked.
type Session struct {
	srv  *Server
	conn net.Conn
	log  zerolog.Logger

	// PlayerID and Name are assigned when the simulation processes the
	// join; they are immutable afterwards.
	PlayerID uint64
	Name     string

	joined chan struct{} // closed once the simulation registered the player

	inMu   sync.Mutex
	inputs []game.InputKind

	out *outbox

	removeOnce sync.Once
	wg         sync.WaitGroup
}

func newSession(srv *Server, conn net.Conn) *Session {
	return &Session{
		srv:    srv,
		conn:   conn,
		log:    srv.log.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		joined: make(chan struct{}),
		out:    newOutbox(srv.cfg.OutboundSoftCap, srv.cfg.OutboundHardCap),
	}
}

// handshake waits for the Hello frame and sanitises the name. run then
// hands the session to the simulation for registration; the Welcome reply
// is sent by the simulation so it always precedes the first snapshot.
func (s *Session) handshake() error {
	if err := s.conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return fmt.Errorf("set handshake deadline: %w", err)
	}
	env, err := network.ReadEnvelope(s.conn)
	if err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if env.T != network.MsgHello {
		return fmt.Errorf("expected hello, got %q", env.T)
	}
	hello, err := network.DecodePayload[network.Hello](env)
	if err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("clear handshake deadline: %w", err)
	}

	s.Name = sanitizeName(hello.Name)
	return nil
}

// sanitizeName strips control characters and truncates to the name cap.
// The simulation substitutes a placeholder for names that end up empty.
func sanitizeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	runes := []rune(clean)
	if len(runes) > network.MaxNameLen {
		runes = runes[:network.MaxNameLen]
	}
	return strings.TrimSpace(string(runes))
}

// run starts the writer, queues the join and then reads frames until the
// connection dies. It returns only when both halves are finished.
func (s *Session) run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writeLoop()
	}()

	s.srv.queueJoin(s)

	select {
	case <-s.joined:
		s.readLoop()
	case <-s.srv.quit:
		s.out.close(nil)
		s.conn.Close()
	}

	s.wg.Wait()
}

// readLoop decodes client frames. Inputs are queued for the next drain
// phase; chat and ping bypass the tick entirely.
func (s *Session) readLoop() {
	for {
		env, err := network.ReadEnvelope(s.conn)
		if err != nil {
			if errors.Is(err, network.ErrFrameTooLarge) || errors.Is(err, network.ErrInvalidFrame) {
				s.terminate("malformed frame")
			} else {
				s.log.Debug().Err(err).Msg("read failed")
				s.requestRemove()
			}
			return
		}

		switch env.T {
		case network.MsgInput:
			in, err := network.DecodePayload[network.Input](env)
			if err != nil {
				s.terminate("malformed frame")
				return
			}
			kind, ok := inputKind(in.Action)
			if !ok {
				s.terminate("unknown input action")
				return
			}
			s.pushInput(kind)

		case network.MsgChat:
			chat, err := network.DecodePayload[network.Chat](env)
			if err != nil {
				s.terminate("malformed frame")
				return
			}
			if len([]rune(chat.Text)) > network.MaxChatLen {
				s.terminate("oversize payload")
				return
			}
			s.srv.broadcastChat(s.Name, chat.Text)

		case network.MsgPing:
			ping, err := network.DecodePayload[network.Ping](env)
			if err != nil {
				s.terminate("malformed frame")
				return
			}
			if frame, err := network.Encode(network.MsgPong, network.Pong{Nonce: ping.Nonce}); err == nil {
				s.enqueue(frame, false)
			}

		default:
			s.terminate("unexpected frame")
			return
		}
	}
}

// writeLoop drains the outbox onto the wire. It exits when the outbox is
// closed and empty, or on the first write failure.
func (s *Session) writeLoop() {
	defer s.conn.Close()

	for {
		frame, ok := s.out.pop()
		if !ok {
			return
		}
		if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			s.requestRemove()
			return
		}
		if err := network.WriteFrame(s.conn, frame); err != nil {
			s.log.Debug().Err(err).Msg("write failed")
			s.requestRemove()
			return
		}
	}
}

func inputKind(action string) (game.InputKind, bool) {
	switch action {
	case network.ActionThrustOn:
		return game.ThrustOn, true
	case network.ActionThrustOff:
		return game.ThrustOff, true
	case network.ActionRotLeft:
		return game.RotateLeft, true
	case network.ActionRotRight:
		return game.RotateRight, true
	case network.ActionRotStop:
		return game.RotateStop, true
	case network.ActionFire:
		return game.Fire, true
	default:
		return 0, false
	}
}

func (s *Session) pushInput(kind game.InputKind) {
	s.inMu.Lock()
	s.inputs = append(s.inputs, kind)
	s.inMu.Unlock()
}

// drainInputs removes and returns every input queued since the last tick,
// in arrival order.
func (s *Session) drainInputs() []game.InputKind {
	s.inMu.Lock()
	defer s.inMu.Unlock()
	if len(s.inputs) == 0 {
		return nil
	}
	out := s.inputs
	s.inputs = nil
	return out
}

// enqueue hands a frame to the writer. droppable marks state frames, which
// backpressure may discard; chat and control frames are preserved. An
// overflow past the hard cap condemns the session.
func (s *Session) enqueue(frame []byte, droppable bool) {
	if err := s.out.push(frame, droppable); err != nil {
		s.log.Warn().Str("player", s.Name).Msg("outbound queue overflow, dropping session")
		s.terminate("slow consumer")
	}
}

// terminate closes the session with a Bye carrying the reason, then
// schedules removal from the world.
func (s *Session) terminate(reason string) {
	if frame, err := network.Encode(network.MsgBye, network.Bye{Reason: reason}); err == nil {
		s.out.close(frame)
	} else {
		s.out.close(nil)
	}
	s.requestRemove()
}

// requestRemove marks the session for removal at the next drain phase.
// Safe to call from any goroutine, any number of times.
func (s *Session) requestRemove() {
	s.removeOnce.Do(func() {
		s.srv.queueLeave(s)
	})
}
