// Package realtime pushes committed state changes to connected websocket clients.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/event"
)

// ErrHubClosed is returned once the hub has been shut down.
var ErrHubClosed = errors.New("realtime hub is closed")

// Mirror receives a copy of every published envelope.
type Mirror interface {
	Mirror(ctx context.Context, env event.Envelope)
}

// NopMirror discards envelopes.
type NopMirror struct{}

func (NopMirror) Mirror(context.Context, event.Envelope) {}

// Hub is the registry of live connections. Publishing never blocks on a slow
// client: a full send buffer drops the message for that client only.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[int64]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool

	mirror Mirror
	logger *slog.Logger
	now    func() time.Time
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger, mirror Mirror) *Hub {
	if mirror == nil {
		mirror = NopMirror{}
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		users:   make(map[int64]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		mirror:  mirror,
		logger:  logger.With(slog.String("component", "hub")),
		now:     time.Now,
	}
}

// Register adds c and joins it to its role room and to the broadcast room.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	addMember(h.users, c.identity.ID, c)
	if room := event.RoleRoom(c.identity.Role); room != "" {
		h.join(c, room)
	}
	h.join(c, event.RoomAll)

	h.logger.Debug("client connected",
		slog.String("client", c.id),
		slog.Int64("user", c.identity.ID),
		slog.String("role", string(c.identity.Role)),
	)
	return nil
}

// Unregister removes c from every index and closes its send channel. It is
// safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	h.remove(c)
	h.logger.Debug("client disconnected", slog.String("client", c.id))
}

// Subscribe joins c to the topic of one order.
func (h *Hub) Subscribe(c *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.join(c, event.OrderRoomName(code))
	}
}

// Unsubscribe leaves the topic of one order.
func (h *Hub) Unsubscribe(c *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(c, event.OrderRoomName(code))
}

// Publish delivers evt to the union of the audiences. Each client receives
// the message at most once.
func (h *Hub) Publish(ctx context.Context, evt event.Event, audiences ...event.Audience) error {
	env := event.Wrap(evt, h.now())
	payload, err := env.Encode()
	if err != nil {
		return err
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	recipients := h.resolve(audiences)
	dropped := 0
	for c := range recipients {
		if !c.enqueue(payload) {
			dropped++
			h.logger.Warn("client send buffer full, message dropped",
				slog.String("client", c.id),
				slog.Int64("user", c.identity.ID),
				slog.String("event", string(evt.Type)),
			)
		}
	}
	h.mu.RUnlock()

	h.logger.Debug("event published",
		slog.String("event", string(evt.Type)),
		slog.Int("recipients", len(recipients)),
		slog.Int("dropped", dropped),
	)
	h.mirror.Mirror(ctx, env)
	return nil
}

// Send replies to a single client, bypassing rooms and the mirror.
func (h *Hub) Send(c *Client, evt event.Event) bool {
	payload, err := event.Wrap(evt, h.now()).Encode()
	if err != nil {
		h.logger.Error("encode reply failed", slog.String("error", err.Error()))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return c.enqueue(payload)
}

// Close disconnects every client. Later publishes fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// resolve expects h.mu to be held.
func (h *Hub) resolve(audiences []event.Audience) map[*Client]struct{} {
	out := make(map[*Client]struct{})
	for _, a := range audiences {
		var members map[*Client]struct{}
		if a.Room != "" {
			members = h.rooms[a.Room]
		} else {
			members = h.users[a.UserID]
		}
		for c := range members {
			out[c] = struct{}{}
		}
	}
	return out
}

func (h *Hub) join(c *Client, room string) {
	addMember(h.rooms, room, c)
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	removeMember(h.rooms, room, c)
	delete(c.rooms, room)
}

func (h *Hub) remove(c *Client) {
	for room := range c.rooms {
		removeMember(h.rooms, room, c)
	}
	c.rooms = make(map[string]struct{})
	removeMember(h.users, c.identity.ID, c)
	delete(h.clients, c)
	close(c.send)
}

func addMember[K comparable](index map[K]map[*Client]struct{}, key K, c *Client) {
	members, ok := index[key]
	if !ok {
		members = make(map[*Client]struct{})
		index[key] = members
	}
	members[c] = struct{}{}
}

func removeMember[K comparable](index map[K]map[*Client]struct{}, key K, c *Client) {
	members, ok := index[key]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(index, key)
	}
}

// Rooms lists the rooms c currently belongs to.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}
