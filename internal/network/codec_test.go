package network

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeProducesLengthPrefixedFrame(t *testing.T) {
	frame, err := Encode(MsgChat, Chat{From: "amy", Text: "hi"})
	require.NoError(t, err)
	require.Greater(t, len(frame), 4)

	n := binary.BigEndian.Uint32(frame[:4])
	assert.Equal(t, int(n), len(frame)-4)
}

func TestRoundTrip(t *testing.T) {
	frame, err := Encode(MsgWelcome, Welcome{PlayerID: 7, ArenaW: 120, ArenaH: 40})
	require.NoError(t, err)

	env, err := ReadEnvelope(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, MsgWelcome, env.T)

	w, err := DecodePayload[Welcome](env)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), w.PlayerID)
	assert.Equal(t, uint32(120), w.ArenaW)
	assert.Equal(t, uint32(40), w.ArenaH)
}

func TestReadEnvelopeAcrossMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	for _, text := range []string{"one", "two", "three"} {
		frame, err := Encode(MsgChat, Chat{Text: text})
		require.NoError(t, err)
		buf.Write(frame)
	}

	for _, want := range []string{"one", "two", "three"} {
		env, err := ReadEnvelope(&buf)
		require.NoError(t, err)
		chat, err := DecodePayload[Chat](env)
		require.NoError(t, err)
		assert.Equal(t, want, chat.Text)
	}

	_, err := ReadEnvelope(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEncodeWithoutPayload(t *testing.T) {
	frame, err := Encode(MsgPong, nil)
	require.NoError(t, err)

	env, err := ReadEnvelope(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, MsgPong, env.T)
	assert.Empty(t, env.P)
}

func TestEncodeRejectsEmptyType(t *testing.T) {
	_, err := Encode("", Chat{Text: "x"})
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestReadEnvelopeRejectsOversizeFrame(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameLen+1)

	_, err := ReadEnvelope(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadEnvelopeRejectsZeroLength(t *testing.T) {
	var header [4]byte
	_, err := ReadEnvelope(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestReadEnvelopeRejectsGarbage(t *testing.T) {
	body := []byte("this is not json")
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	_, err := ReadEnvelope(bytes.NewReader(frame))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestReadEnvelopeTruncatedBody(t *testing.T) {
	frame, err := Encode(MsgChat, Chat{Text: "cut short"})
	require.NoError(t, err)

	_, err = ReadEnvelope(bytes.NewReader(frame[:len(frame)-3]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodePayloadEmpty(t *testing.T) {
	_, err := DecodePayload[Chat](Envelope{T: MsgChat})
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestDecodePayloadWrongShape(t *testing.T) {
	env := Envelope{T: MsgInput, P: []byte(`{"action": 42}`)}
	_, err := DecodePayload[Input](env)
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestStateFrameRoundTrip(t *testing.T) {
	st := State{
		Tick:               9,
		Wave:               2,
		AsteroidsRemaining: 1,
		WavePendingS:       0,
		Players: []PlayerView{{
			ID: 1, Name: "amy", X: 10, Y: 20, Alive: true,
			Combo: 3, ActivePowerUps: []string{"R", "I"},
		}},
		Asteroids:   []AsteroidView{{ID: 5, Size: 3, X: 1, Y: 2}},
		Bullets:     []BulletView{{ID: 6, OwnerID: 1, X: 3, Y: 4}},
		PowerUps:    []PowerUpView{{ID: 7, Kind: "S", X: 5, Y: 6}},
		Leaderboard: []LeaderboardEntry{{Name: "amy", Score: 700}},
	}

	frame, err := Encode(MsgState, st)
	require.NoError(t, err)

	env, err := ReadEnvelope(bytes.NewReader(frame))
	require.NoError(t, err)
	got, err := DecodePayload[State](env)
	require.NoError(t, err)
	assert.Equal(t, st, got)
}
