package runtime

import "sync"

// ChannelValue is an MPMC FIFO handle. Bounded channels block senders when
// full; unbounded channels queue behind a pump goroutine and never block
// sends for long. Identity is by handle.
type ChannelValue struct {
	capacity int // -1 when unbounded

	mu     sync.Mutex
	closed bool

	in  chan Value
	out chan Value
}

// NewChannel allocates a bounded channel of the given capacity. Capacity 0
// is a rendezvous channel.
func NewChannel(capacity int) *ChannelValue {
	if capacity < 0 {
		capacity = 0
	}
	ch := make(chan Value, capacity)
	return &ChannelValue{capacity: capacity, in: ch, out: ch}
}

// NewUnboundedChannel allocates a channel whose sends never block. A pump
// goroutine shuttles values from the send side into an internal queue.
func NewUnboundedChannel() *ChannelValue {
	c := &ChannelValue{
		capacity: -1,
		in:       make(chan Value),
		out:      make(chan Value),
	}
	go c.pump()
	return c
}

// NewPromise allocates the capacity-1 channel backing a promise.
func NewPromise() *ChannelValue {
	return NewChannel(1)
}

func (c *ChannelValue) Kind() Kind { return KindChannel }

// Unbounded reports whether sends are non-blocking.
func (c *ChannelValue) Unbounded() bool { return c.capacity < 0 }

func (c *ChannelValue) pump() {
	var queue []Value
	for {
		var outCh chan Value
		var next Value
		if len(queue) > 0 {
			outCh = c.out
			next = queue[0]
		}
		select {
		case v, ok := <-c.in:
			if !ok {
				for _, pending := range queue {
					c.out <- pending
				}
				close(c.out)
				return
			}
			queue = append(queue, v)
		case outCh <- next:
			queue = queue[1:]
		}
	}
}

// Send delivers a value in FIFO order, blocking while a bounded channel is
// full. Sending on a closed channel reports ok=false.
func (c *ChannelValue) Send(v Value) (ok bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	// A concurrent close can still race the flag check; the recover keeps
	// that race from tearing down the sender goroutine.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	c.in <- v
	return true
}

// Receive blocks until a value arrives. ok is false once the channel is
// closed and drained.
func (c *ChannelValue) Receive() (Value, bool) {
	v, ok := <-c.out
	return v, ok
}

// TryReceive performs a non-blocking receive. The second result reports
// whether a value was taken; the third whether the channel is closed and
// drained.
func (c *ChannelValue) TryReceive() (Value, bool, bool) {
	select {
	case v, ok := <-c.out:
		if !ok {
			return nil, false, true
		}
		return v, true, false
	default:
		return nil, false, false
	}
}

// RecvChan exposes the receive side for select integration.
func (c *ChannelValue) RecvChan() <-chan Value {
	return c.out
}

// Close marks the channel closed. Receivers drain buffered values and then
// observe closure. Closing twice is a no-op.
func (c *ChannelValue) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.in)
}

// Closed reports whether Close has been called.
func (c *ChannelValue) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
