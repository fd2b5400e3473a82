// Package server implements the TCP game server: connection acceptance,
// the session registry, the 20 Hz simulation driver and snapshot fan-out.
package server

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"asteroid-arena/internal/config"
	"asteroid-arena/internal/game"
	"asteroid-arena/internal/network"
)

// drainGrace is how long Stop waits for writers to flush before closing
// transports.
const drainGrace = time.Second

// Server owns the listener, the session registry and the world. The world
// is mutated only by the run goroutine; sessions communicate with it
// through the join/leave queues and their per-session input queues.
type Server struct {
	cfg      config.Server
	log      zerolog.Logger
	listener net.Listener
	world    *game.World

	mu       sync.RWMutex
	sessions map[uint64]*Session

	pendingMu sync.Mutex
	joins     []*Session
	leaves    []*Session

	quit     chan struct{}
	simDone  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a server for the given configuration. The world is seeded
// from cfg.Seed so a fixed seed reproduces the whole run.
func New(cfg config.Server, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.With().Str("component", "server").Logger(),
		world:    game.NewWorld(float64(cfg.ArenaW), float64(cfg.ArenaH), cfg.Seed),
		sessions: make(map[uint64]*Session),
		quit:     make(chan struct{}),
		simDone:  make(chan struct{}),
	}
}

// Start binds the listen address and runs the acceptor and simulation
// until Stop is called. The bind error is returned to the caller; every
// later error is per-session.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.log.Info().Str("addr", ln.Addr().String()).
		Int("arena_w", s.cfg.ArenaW).Int("arena_h", s.cfg.ArenaH).
		Msg("listening")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Wait blocks until the server has fully stopped.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Stop shuts the server down in order: acceptor first, then the
// simulation after its current tick, then a bounded writer drain before
// transports close.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info().Msg("shutting down")
		close(s.quit)
		if s.listener == nil {
			return
		}
		s.listener.Close()

		// Let the simulation finish its current tick before touching the
		// registry, so no session is registered concurrently.
		<-s.simDone

		byeFrame, _ := network.Encode(network.MsgBye, network.Bye{Reason: "server shutdown"})

		s.mu.Lock()
		open := make([]*Session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			open = append(open, sess)
		}
		s.sessions = make(map[uint64]*Session)
		s.mu.Unlock()

		for _, sess := range open {
			sess.out.close(byeFrame)
		}

		deadline := time.Now().Add(drainGrace)
		for _, sess := range open {
			for sess.out.len() > 0 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			sess.conn.Close()
		}
	})
}

// acceptLoop hands every accepted connection to its own session goroutine.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if errClosed(err) {
				return
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn performs the handshake and runs the session to completion.
func (s *Server) handleConn(conn net.Conn) {
	sess := newSession(s, conn)
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	if err := sess.handshake(); err != nil {
		s.log.Info().Err(err).Msg("handshake failed")
		if frame, encErr := network.Encode(network.MsgBye, network.Bye{Reason: "handshake failed"}); encErr == nil {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			network.WriteFrame(conn, frame)
		}
		conn.Close()
		return
	}

	sess.run()
	s.log.Info().Str("player", sess.Name).Msg("client disconnected")
}

// run is the simulation driver: one world step per tick, then one
// serialisation of the snapshot shared across every session.
func (s *Server) run() {
	defer close(s.simDone)
	ticker := time.NewTicker(time.Second / game.TickHz)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	s.processLeaves()
	s.processJoins()

	s.world.Step(game.Dt, s.collectInputs())

	snap := s.world.Snapshot()
	frame, err := network.Encode(network.MsgState, snap)
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot encode failed")
		return
	}
	s.broadcast(frame, true)
}

// processJoins registers queued handshakes: the world allocates the player
// id, the session joins the registry and the Welcome goes out ahead of the
// first snapshot.
func (s *Server) processJoins() {
	s.pendingMu.Lock()
	joins := s.joins
	s.joins = nil
	s.pendingMu.Unlock()

	for _, sess := range joins {
		select {
		case <-s.quit:
			return
		default:
		}

		// A session can fail between handshake and registration; its leave
		// was already processed, so just release its goroutine.
		if sess.out.isClosed() {
			close(sess.joined)
			continue
		}

		p := s.world.AddPlayer(sess.Name)
		if p.Name == "" {
			p.Name = fmt.Sprintf("Player%d", p.ID)
			sess.Name = p.Name
		}
		sess.PlayerID = p.ID

		s.mu.Lock()
		s.sessions[p.ID] = sess
		s.mu.Unlock()

		welcome, err := network.Encode(network.MsgWelcome, network.Welcome{
			PlayerID: p.ID,
			ArenaW:   uint32(s.cfg.ArenaW),
			ArenaH:   uint32(s.cfg.ArenaH),
		})
		if err == nil {
			sess.enqueue(welcome, false)
		}
		close(sess.joined)

		s.broadcastSystem(fmt.Sprintf("%s joined the arena", p.Name))
		s.log.Info().Uint64("id", p.ID).Str("player", p.Name).Msg("player joined")
	}
}

// processLeaves drops sessions that failed since the last tick.
func (s *Server) processLeaves() {
	s.pendingMu.Lock()
	leaves := s.leaves
	s.leaves = nil
	s.pendingMu.Unlock()

	for _, sess := range leaves {
		sess.out.close(nil)
		if sess.PlayerID == 0 {
			continue
		}
		s.world.RemovePlayer(sess.PlayerID)

		s.mu.Lock()
		delete(s.sessions, sess.PlayerID)
		s.mu.Unlock()

		s.broadcastSystem(fmt.Sprintf("%s left the arena", sess.Name))
		s.log.Info().Uint64("id", sess.PlayerID).Str("player", sess.Name).Msg("player left")
	}
}

// collectInputs drains every session's queue, ordered by player id with
// each player's events kept in arrival order.
func (s *Server) collectInputs() []game.InputEvent {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sessions := make(map[uint64]*Session, len(s.sessions))
	for id, sess := range s.sessions {
		sessions[id] = sess
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var events []game.InputEvent
	for _, id := range ids {
		for _, kind := range sessions[id].drainInputs() {
			events = append(events, game.InputEvent{PlayerID: id, Kind: kind})
		}
	}
	return events
}

// queueJoin records a handshaken session for the next drain phase.
func (s *Server) queueJoin(sess *Session) {
	s.pendingMu.Lock()
	s.joins = append(s.joins, sess)
	s.pendingMu.Unlock()
}

// queueLeave records a failed session for the next drain phase.
func (s *Server) queueLeave(sess *Session) {
	s.pendingMu.Lock()
	s.leaves = append(s.leaves, sess)
	s.pendingMu.Unlock()
}

// broadcast enqueues one shared frame to every registered session.
func (s *Server) broadcast(frame []byte, droppable bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.enqueue(frame, droppable)
	}
}

// broadcastChat relays a chat line to everyone, the sender included. Chat
// bypasses the tick and is never dropped by backpressure.
func (s *Server) broadcastChat(from, text string) {
	frame, err := network.Encode(network.MsgChat, network.Chat{From: from, Text: text})
	if err != nil {
		return
	}
	s.broadcast(frame, false)
}

// broadcastSystem announces a server event to everyone.
func (s *Server) broadcastSystem(text string) {
	frame, err := network.Encode(network.MsgSystem, network.System{Text: text})
	if err != nil {
		return
	}
	s.broadcast(frame, false)
}

// errClosed reports whether err is the benign closed-listener error.
func errClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
