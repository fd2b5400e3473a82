package server

import "sync"

type outFrame struct {
	data      []byte
	droppable bool
}

// outbox is the bounded per-session outbound queue. Past the soft cap the
// oldest droppable (state) frame is discarded on every push; past the hard
// cap the push fails and the session is a slow consumer. Closing appends
// an optional final frame and lets the writer drain what is left.
type outbox struct {
	mu      sync.Mutex
	wake    chan struct{}
	frames  []outFrame
	softCap int
	hardCap int
	closed  bool
}

func newOutbox(softCap, hardCap int) *outbox {
	return &outbox{
		wake:    make(chan struct{}, 1),
		softCap: softCap,
		hardCap: hardCap,
	}
}

func (o *outbox) push(frame []byte, droppable bool) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.frames = append(o.frames, outFrame{data: frame, droppable: droppable})

	if len(o.frames) > o.softCap {
		for i, f := range o.frames {
			if f.droppable {
				o.frames = append(o.frames[:i], o.frames[i+1:]...)
				break
			}
		}
	}
	if len(o.frames) > o.hardCap {
		o.mu.Unlock()
		return ErrSlowConsumer
	}
	o.mu.Unlock()
	o.signal()
	return nil
}

// pop blocks for the next frame. It returns ok=false once the outbox is
// closed and fully drained.
func (o *outbox) pop() ([]byte, bool) {
	for {
		o.mu.Lock()
		if len(o.frames) > 0 {
			frame := o.frames[0].data
			o.frames = o.frames[1:]
			o.mu.Unlock()
			return frame, true
		}
		closed := o.closed
		o.mu.Unlock()
		if closed {
			return nil, false
		}
		<-o.wake
	}
}

// close seals the queue. final, if non-nil, is appended past the caps so a
// Bye still reaches a draining writer.
func (o *outbox) close(final []byte) {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		if final != nil {
			o.frames = append(o.frames, outFrame{data: final})
		}
	}
	o.mu.Unlock()
	o.signal()
}

// isClosed reports whether the queue has been sealed.
func (o *outbox) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// len reports the queued frame count.
func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.frames)
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}
