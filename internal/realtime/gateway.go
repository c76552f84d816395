package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/server/http/middleware"
)

// Client to server message types.
const (
	msgSubscribeOrder   = "subscribe-order"
	msgUnsubscribeOrder = "unsubscribe-order"
	msgLocationUpdate   = "location-update"
	msgStatusUpdate     = "status-update"
	msgPing             = "ping"
)

// Operations reachable from a socket. They are the same entry points the
// HTTP API uses, so validation and fan-out are identical.
type Operations interface {
	ParseToken(token string) (model.Identity, error)
	UpdateLocation(ctx context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error)
	UpdateStatus(ctx context.Context, code string, status model.OrderStatus, actor model.Identity) (*model.Order, error)
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type orderRef struct {
	OrderID string `json:"orderId"`
}

type locationPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type statusPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Gateway authenticates websocket upgrades and routes client messages.
type Gateway struct {
	hub      *Hub
	ops      Operations
	logger   *slog.Logger
	buffer   int
	upgrader websocket.Upgrader
	origins  map[string]struct{}
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithAllowedOrigins admits browser upgrades from the given origins in
// addition to the serving host, e.g. "https://dispatch.example.com".
func WithAllowedOrigins(origins ...string) GatewayOption {
	return func(g *Gateway) {
		for _, origin := range origins {
			if origin = strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/"); origin != "" {
				g.origins[origin] = struct{}{}
			}
		}
	}
}

// NewGateway constructs Gateway. buffer is the per-client send queue length.
func NewGateway(hub *Hub, ops Operations, logger *slog.Logger, buffer int, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		hub:     hub,
		ops:     ops,
		logger:  logger.With(slog.String("component", "ws-gateway")),
		buffer:  buffer,
		origins: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured allow-list.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := g.origins[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

// Handle verifies the origin and the token before upgrading so that an
// unauthenticated peer never joins an audience. Cookies are not accepted
// here: the token must come from the query or the Authorization header.
func (g *Gateway) Handle(c *gin.Context) {
	if !g.checkOrigin(c.Request) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication token required"})
		return
	}
	identity, err := g.ops.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(conn, identity, g.buffer)
	if err := g.hub.Register(client); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline())
		_ = conn.Close()
		return
	}

	g.hub.Send(client, event.Event{Type: event.Connected, Data: event.ConnectedData{
		ClientID: client.id,
		UserID:   identity.ID,
		Role:     identity.Role,
		Rooms:    g.hub.Rooms(client),
	}})

	go client.writePump()
	g.readPump(c.Request.Context(), client)
}

func (g *Gateway) readPump(ctx context.Context, c *Client) {
	defer func() {
		g.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(deadlineAfter(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(deadlineAfter(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				g.logger.Debug("websocket read failed", slog.String("client", c.id), slog.String("error", err.Error()))
			}
			return
		}
		g.dispatch(ctx, c, raw)
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		g.reject(c, "invalid message")
		return
	}

	switch msg.Type {
	case msgPing:
		g.hub.Send(c, event.Event{Type: event.Pong})

	case msgSubscribeOrder, msgUnsubscribeOrder:
		var ref orderRef
		if err := decodeData(msg.Data, &ref); err != nil || strings.TrimSpace(ref.OrderID) == "" {
			g.reject(c, "orderId is required")
			return
		}
		code := strings.TrimSpace(ref.OrderID)
		if msg.Type == msgSubscribeOrder {
			g.hub.Subscribe(c, code)
		} else {
			g.hub.Unsubscribe(c, code)
		}

	case msgLocationUpdate:
		var loc locationPayload
		if err := decodeData(msg.Data, &loc); err != nil {
			g.reject(c, "invalid location payload")
			return
		}
		if _, err := g.ops.UpdateLocation(ctx, c.identity, loc.Lat, loc.Lng); err != nil {
			g.fail(c, msg.Type, err)
		}

	case msgStatusUpdate:
		var upd statusPayload
		if err := decodeData(msg.Data, &upd); err != nil || strings.TrimSpace(upd.OrderID) == "" {
			g.reject(c, "orderId and status are required")
			return
		}
		status, err := model.ParseOrderStatus(upd.Status)
		if err != nil {
			g.fail(c, msg.Type, err)
			return
		}
		if _, err := g.ops.UpdateStatus(ctx, strings.TrimSpace(upd.OrderID), status, c.identity); err != nil {
			g.fail(c, msg.Type, err)
		}

	default:
		g.reject(c, "unknown message type: "+msg.Type)
	}
}

func (g *Gateway) reject(c *Client, message string) {
	g.hub.Send(c, event.NewError(message))
}

// fail reports an operation error to the caller only. Infrastructure errors are
// logged and replaced by a generic message.
func (g *Gateway) fail(c *Client, op string, err error) {
	if domainErrors.KindOf(err) != nil {
		g.reject(c, err.Error())
		return
	}
	g.logger.Error("websocket operation failed",
		slog.String("client", c.id),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	g.reject(c, "internal server error")
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(raw, dst)
}
