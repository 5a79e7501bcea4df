package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"storyboard/internal/observability"
)

const maxClients = 256

// ErrHubClosed is returned by Register once the hub has stopped.
var ErrHubClosed = errors.New("hub is closed")

// ErrHubFull is returned by Register when every slot is taken.
var ErrHubFull = errors.New("moderation feed connection limit reached")

// Hub owns the set of connected admin sockets. Membership changes and
// broadcasts are serialized through Run.
type Hub struct {
	register   chan registration
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	count      atomic.Int64
}

type registration struct {
	client *Client
	result chan error
}

// NewHub returns a hub. Nothing is delivered until Run is started.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan registration),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*Client]struct{})
	defer func() {
		for c := range clients {
			close(c.send)
		}
		observability.ModerationSockets.Sub(float64(len(clients)))
		h.count.Store(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-h.register:
			if len(clients) >= maxClients {
				r.result <- ErrHubFull
				continue
			}
			clients[r.client] = struct{}{}
			h.count.Store(int64(len(clients)))
			observability.ModerationSockets.Inc()
			r.result <- nil

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.count.Store(int64(len(clients)))
				observability.ModerationSockets.Dec()
			}

		case msg := <-h.broadcast:
			for c := range clients {
				c.trySend(msg)
			}
		}
	}
}

// Register attaches c to the feed.
func (h *Hub) Register(c *Client) error {
	r := registration{client: c, result: make(chan error, 1)}
	select {
	case h.register <- r:
		return <-r.result
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister detaches c. It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	return int(h.count.Load())
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// StartWiring forwards every event published on the moderation channel,
// by any node, to this hub's clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, h.Broadcast)
}

// PublishModeration delivers ev to this node only. It stands in for the
// Notifier when no redis is configured.
func (h *Hub) PublishModeration(_ context.Context, ev ModerationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal moderation event: %w", err)
	}
	h.Broadcast(payload)
	return nil
}
