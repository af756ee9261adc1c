package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/chatrelay/internal/utils"
)

// ClientState tracks where a connection is in its lifecycle.
type ClientState int32

const (
	StateConnecting ClientState = iota
	StateActive
	StateDisconnected
)

// Client is one connection as seen by the core layer. Commands are consumed in
// arrival order by a goroutine owned by the hub; Events is closed once the
// connection has been cleaned up.
type Client struct {
	ID       string
	Identity Identity
	Commands chan *Command
	Events   chan *Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	state       atomic.Int32
	cleanupOnce sync.Once

	mu     sync.Mutex
	closed bool
}

func newClient(ctx context.Context, identity Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = 8
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Client{
		ID:       utils.NewID(),
		Identity: identity,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		ctx:      cctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() ClientState {
	return ClientState(c.state.Load())
}

// deliver queues an event without blocking. It returns false when the client
// is gone or its buffer is full.
func (c *Client) deliver(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) closeEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Events)
}
