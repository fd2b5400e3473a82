// Package network defines the client/server wire protocol: message
// envelopes, payload types and the length-prefixed frame codec.
package network

import "encoding/json"

// MessageType tags the envelope of every frame.
type MessageType string

const (
	// Client to server.
	MsgHello MessageType = "hello"
	MsgInput MessageType = "input"
	MsgChat  MessageType = "chat"
	MsgPing  MessageType = "ping"

	// Server to client.
	MsgWelcome MessageType = "welcome"
	MsgState   MessageType = "state"
	MsgSystem  MessageType = "system"
	MsgBye     MessageType = "bye"
	MsgPong    MessageType = "pong"
)

// Input action strings carried in an Input payload.
const (
	ActionThrustOn  = "thrust_on"
	ActionThrustOff = "thrust_off"
	ActionRotLeft   = "rot_left"
	ActionRotRight  = "rot_right"
	ActionRotStop   = "rot_stop"
	ActionFire      = "fire"
)

// MaxChatLen caps the text of a single chat message in characters.
const MaxChatLen = 200

// MaxNameLen caps a display name in code points.
const MaxNameLen = 16

// Envelope wraps every frame: a type tag and the raw payload bytes.
type Envelope struct {
	T MessageType     `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// Hello is the first frame a client must send after connecting.
type Hello struct {
	Name string `json:"name"`
}

// Input carries one input action event.
type Input struct {
	Action string `json:"action"`
}

// Chat is sent by clients with only Text set; the server rebroadcasts it
// with From filled in.
type Chat struct {
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// Ping is answered immediately with a Pong echoing the nonce.
type Ping struct {
	Nonce uint64 `json:"nonce"`
}

// Pong answers a Ping.
type Pong struct {
	Nonce uint64 `json:"nonce"`
}

// Welcome acknowledges the handshake and fixes the arena dimensions for
// the connection's lifetime.
type Welcome struct {
	PlayerID uint64 `json:"player_id"`
	ArenaW   uint32 `json:"arena_w"`
	ArenaH   uint32 `json:"arena_h"`
}

// System carries a server announcement (joins, leaves, notices).
type System struct {
	Text string `json:"text"`
}

// Bye is the last frame on a connection the server is closing.
type Bye struct {
	Reason string `json:"reason"`
}
