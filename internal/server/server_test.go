package server

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteroid-arena/internal/config"
	"asteroid-arena/internal/network"
)

func testConfig() config.Server {
	return config.Server{
		Addr:            "127.0.0.1:0",
		ArenaW:          120,
		ArenaH:          40,
		Seed:            1,
		LogLevel:        "disabled",
		OutboundSoftCap: 64,
		OutboundHardCap: 256,
	}
}

func startServer(t *testing.T) *Server {
	t.Helper()
	srv := New(testConfig(), zerolog.Nop())
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		srv.Stop()
		srv.Wait()
	})
	return srv
}

func dialAndJoin(t *testing.T, srv *Server, name string) (net.Conn, network.Welcome) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello, err := network.Encode(network.MsgHello, network.Hello{Name: name})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, hello))

	env := readFrameOfType(t, conn, network.MsgWelcome)
	welcome, err := network.DecodePayload[network.Welcome](env)
	require.NoError(t, err)
	return conn, welcome
}

// readFrameOfType reads frames until one of the wanted type arrives.
func readFrameOfType(t *testing.T, conn net.Conn, want network.MessageType) network.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		env, err := network.ReadEnvelope(conn)
		require.NoError(t, err)
		if env.T == want {
			require.NoError(t, conn.SetReadDeadline(time.Time{}))
			return env
		}
	}
}

func TestHandshakeReturnsWelcome(t *testing.T) {
	srv := startServer(t)
	_, welcome := dialAndJoin(t, srv, "amy")

	assert.NotZero(t, welcome.PlayerID)
	assert.Equal(t, uint32(120), welcome.ArenaW)
	assert.Equal(t, uint32(40), welcome.ArenaH)
}

func TestSnapshotTicksStrictlyIncrease(t *testing.T) {
	srv := startServer(t)
	conn, welcome := dialAndJoin(t, srv, "amy")

	var last uint64
	for i := 0; i < 5; i++ {
		env := readFrameOfType(t, conn, network.MsgState)
		st, err := network.DecodePayload[network.State](env)
		require.NoError(t, err)

		if last != 0 {
			assert.Equal(t, last+1, st.Tick, "ticks must be contiguous")
		}
		last = st.Tick

		found := false
		for _, p := range st.Players {
			if p.ID == welcome.PlayerID {
				found = true
				assert.Equal(t, "amy", p.Name)
			}
		}
		assert.True(t, found, "own player must appear in the snapshot")
	}
}

func TestChatEchoedToSender(t *testing.T) {
	srv := startServer(t)
	conn, _ := dialAndJoin(t, srv, "amy")

	chat, err := network.Encode(network.MsgChat, network.Chat{Text: "hello there"})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, chat))

	env := readFrameOfType(t, conn, network.MsgChat)
	got, err := network.DecodePayload[network.Chat](env)
	require.NoError(t, err)
	assert.Equal(t, "amy", got.From)
	assert.Equal(t, "hello there", got.Text)
}

func TestChatReachesOtherClients(t *testing.T) {
	srv := startServer(t)
	connA, _ := dialAndJoin(t, srv, "amy")
	connB, _ := dialAndJoin(t, srv, "bob")

	chat, err := network.Encode(network.MsgChat, network.Chat{Text: "hi bob"})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(connA, chat))

	env := readFrameOfType(t, connB, network.MsgChat)
	got, err := network.DecodePayload[network.Chat](env)
	require.NoError(t, err)
	assert.Equal(t, "amy", got.From)
	assert.Equal(t, "hi bob", got.Text)
}

func TestPingPong(t *testing.T) {
	srv := startServer(t)
	conn, _ := dialAndJoin(t, srv, "amy")

	ping, err := network.Encode(network.MsgPing, network.Ping{Nonce: 1234})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, ping))

	env := readFrameOfType(t, conn, network.MsgPong)
	pong, err := network.DecodePayload[network.Pong](env)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), pong.Nonce)
}

func TestInputMovesShip(t *testing.T) {
	srv := startServer(t)
	conn, welcome := dialAndJoin(t, srv, "amy")

	thrust, err := network.Encode(network.MsgInput, network.Input{Action: network.ActionThrustOn})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, thrust))

	// Wait a few ticks, then confirm the ship picked up velocity by
	// comparing positions across snapshots.
	var first, second *network.PlayerView
	for i := 0; i < 10 && second == nil; i++ {
		env := readFrameOfType(t, conn, network.MsgState)
		st, err := network.DecodePayload[network.State](env)
		require.NoError(t, err)
		for j := range st.Players {
			if st.Players[j].ID != welcome.PlayerID {
				continue
			}
			p := st.Players[j]
			if first == nil {
				first = &p
			} else if i >= 5 {
				second = &p
			}
		}
	}
	require.NotNil(t, first)
	require.NotNil(t, second)
	moved := first.X != second.X || first.Y != second.Y
	assert.True(t, moved, "thrusting ship must change position")
}

func TestOversizeChatClosesSession(t *testing.T) {
	srv := startServer(t)
	conn, _ := dialAndJoin(t, srv, "amy")

	long := make([]rune, network.MaxChatLen+1)
	for i := range long {
		long[i] = 'x'
	}
	chat, err := network.Encode(network.MsgChat, network.Chat{Text: string(long)})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, chat))

	env := readFrameOfType(t, conn, network.MsgBye)
	bye, err := network.DecodePayload[network.Bye](env)
	require.NoError(t, err)
	assert.Equal(t, "oversize payload", bye.Reason)
}

func TestHelloRequiredFirst(t *testing.T) {
	srv := startServer(t)
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	input, err := network.Encode(network.MsgInput, network.Input{Action: network.ActionFire})
	require.NoError(t, err)
	require.NoError(t, network.WriteFrame(conn, input))

	env := readFrameOfType(t, conn, network.MsgBye)
	bye, err := network.DecodePayload[network.Bye](env)
	require.NoError(t, err)
	assert.Equal(t, "handshake failed", bye.Reason)
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	srv := startServer(t)
	connA, welcomeA := dialAndJoin(t, srv, "amy")
	connB, _ := dialAndJoin(t, srv, "bob")

	connB.Close()

	// Within a few ticks bob must vanish from amy's snapshots.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		env := readFrameOfType(t, connA, network.MsgState)
		st, err := network.DecodePayload[network.State](env)
		require.NoError(t, err)
		if len(st.Players) == 1 && st.Players[0].ID == welcomeA.PlayerID {
			return
		}
	}
	t.Fatal("disconnected player still present in snapshots")
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"amy", "amy"},
		{"  spaced  ", "spaced"},
		{"ctrl\x00\x1bchars", "ctrlchars"},
		{"averylongnamethatkeepsgoing", "averylongnametha"},
		{"日本語の名前でも大丈夫です絶対に間違いない", "日本語の名前でも大丈夫です絶対に"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeName(tc.in), "input %q", tc.in)
	}
}
