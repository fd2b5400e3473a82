package network

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen bounds a single frame payload. Anything larger is treated as
// a protocol violation, not a transient error.
const MaxFrameLen = 64 * 1024

var (
	// ErrFrameTooLarge is returned for a frame whose declared length
	// exceeds MaxFrameLen.
	ErrFrameTooLarge = errors.New("frame exceeds maximum length")

	// ErrInvalidFrame is returned for frames that cannot be decoded.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Encode marshals a typed payload into a complete frame: 4-byte big-endian
// length followed by the envelope JSON.
func Encode(t MessageType, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("%w: empty message type", ErrInvalidFrame)
	}

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		raw = b
	}

	body, err := json.Marshal(Envelope{T: t, P: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", t, err)
	}
	if len(body) > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	return frame, nil
}

// WriteFrame writes an already-encoded frame to w.
func WriteFrame(w io.Writer, frame []byte) error {
	_, err := w.Write(frame)
	return err
}

// ReadEnvelope reads one length-prefixed frame from r and decodes its
// envelope. It blocks until a full frame arrives or r fails.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n == 0 {
		return Envelope{}, ErrInvalidFrame
	}
	if n > MaxFrameLen {
		return Envelope{}, ErrFrameTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if env.T == "" {
		return Envelope{}, ErrInvalidFrame
	}
	return env, nil
}

// DecodePayload unmarshals an envelope's payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("%w: empty %s payload", ErrInvalidFrame, env.T)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		return out, fmt.Errorf("%w: %s payload: %v", ErrInvalidFrame, env.T, err)
	}
	return out, nil
}
