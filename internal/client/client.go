package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"asteroid-arena/internal/network"
)

// Client is the terminal viewer's connection to the server.
type Client struct {
	conn    net.Conn
	display *Display

	playerID uint64
	arenaW   int
	arenaH   int

	mu   sync.Mutex
	done chan struct{}
}

// Connect dials the server and completes the handshake.
func Connect(addr, name string, display *Display) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		display: display,
		done:    make(chan struct{}),
	}

	hello, err := network.Encode(network.MsgHello, network.Hello{Name: name})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := network.WriteFrame(conn, hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		conn.Close()
		return nil, err
	}
	env, err := network.ReadEnvelope(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if env.T != network.MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %q", env.T)
	}
	welcome, err := network.DecodePayload[network.Welcome](env)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, err
	}

	c.playerID = welcome.PlayerID
	c.arenaW = int(welcome.ArenaW)
	c.arenaH = int(welcome.ArenaH)
	return c, nil
}

// Run renders incoming frames until the server disconnects or the user
// quits. The input handler runs on its own goroutine so a blocked stdin
// read never stalls rendering.
func (c *Client) Run(input *InputHandler) error {
	go c.inputLoop(input)
	defer close(c.done)

	for {
		env, err := network.ReadEnvelope(c.conn)
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}

		switch env.T {
		case network.MsgState:
			st, err := network.DecodePayload[network.State](env)
			if err != nil {
				continue
			}
			c.display.RenderState(&st, c.playerID, c.arenaW, c.arenaH)

		case network.MsgChat:
			chat, err := network.DecodePayload[network.Chat](env)
			if err != nil {
				continue
			}
			c.display.PrintChat(chat.From, chat.Text)

		case network.MsgSystem:
			sys, err := network.DecodePayload[network.System](env)
			if err != nil {
				continue
			}
			c.display.PrintSystem(sys.Text)

		case network.MsgBye:
			bye, _ := network.DecodePayload[network.Bye](env)
			c.display.PrintSystem(fmt.Sprintf("disconnected: %s", bye.Reason))
			return nil
		}
	}
}

func (c *Client) inputLoop(input *InputHandler) {
	for {
		cmd, ok := input.ReadCommand()
		if !ok {
			return
		}
		select {
		case <-c.done:
			return
		default:
		}

		switch {
		case cmd.Quit:
			c.conn.Close()
			return
		case cmd.Chat != "":
			c.send(network.MsgChat, network.Chat{Text: cmd.Chat})
		case cmd.Action != "":
			c.send(network.MsgInput, network.Input{Action: cmd.Action})
		}
	}
}

func (c *Client) send(t network.MessageType, payload any) {
	frame, err := network.Encode(t, payload)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := network.WriteFrame(c.conn, frame); err != nil {
		c.display.PrintError(fmt.Sprintf("send failed: %v", err))
	}
}

// Close tears the connection down.
func (c *Client) Close() {
	c.conn.Close()
}
