package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

type opsStub struct {
	mu        sync.Mutex
	locations []model.Identity
	statuses  []string

	LocationErr error
	StatusErr   error
}

func (s *opsStub) ParseToken(token string) (model.Identity, error) {
	switch token {
	case "manager":
		return model.Identity{ID: 1, Role: model.RoleManager}, nil
	case "partner":
		return model.Identity{ID: 2, Role: model.RoleDelivery}, nil
	}
	return model.Identity{}, errors.New("invalid token")
}

func (s *opsStub) UpdateLocation(_ context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, actor)
	if s.LocationErr != nil {
		return nil, s.LocationErr
	}
	return &model.DeliveryPartner{UserID: actor.ID, Location: model.Location{Lat: *lat, Lng: *lng}}, nil
}

func (s *opsStub) UpdateStatus(_ context.Context, code string, status model.OrderStatus, actor model.Identity) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, code+"="+string(status))
	if s.StatusErr != nil {
		return nil, s.StatusErr
	}
	return &model.Order{Code: code, Status: status}, nil
}

type envelope struct {
	Type event.Type      `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newGatewayServer(t *testing.T, ops Operations, opts ...GatewayOption) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(discardLogger(), nil)
	engine := gin.New()
	engine.GET("/ws", NewGateway(hub, ops, discardLogger(), 8, opts...).Handle)

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	connected := read(t, conn)
	require.Equal(t, event.Connected, connected.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "data": data}))
}

// roundTrip sends a ping and waits for the pong so that earlier messages are known to be processed.
func roundTrip(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, msgPing, nil)
	require.Equal(t, event.Pong, read(t, conn).Type)
}

func errorMessage(t *testing.T, env envelope) string {
	t.Helper()
	require.Equal(t, event.Error, env.Type)
	var data event.ErrorData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Message
}

func TestGatewayRejectsUnauthenticatedUpgrade(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})

	for _, target := range []string{url, url + "?token=bogus"} {
		_, resp, err := websocket.DefaultDialer.Dial(target, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestGatewayIgnoresAuthCookie(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})

	header := http.Header{"Cookie": []string{"fooddispatch_token=partner"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestGatewayRejectsForeignOrigin(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})

	cases := []http.Header{
		{"Origin": []string{"http://evil.example"}, "Cookie": []string{"fooddispatch_token=partner"}},
		{"Origin": []string{"http://evil.example"}, "Authorization": []string{"Bearer partner"}},
		{"Origin": []string{"not a url"}},
	}
	for _, header := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(url+"?token=partner", header)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestGatewayAcceptsSameHostAndAllowedOrigins(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{}, WithAllowedOrigins(" https://Ops.Example.com/ ", ""))
	host := strings.TrimPrefix(strings.TrimSuffix(url, "/ws"), "ws://")

	for _, origin := range []string{"http://" + host, "https://ops.example.com"} {
		header := http.Header{"Origin": []string{origin}}
		conn, resp, err := websocket.DefaultDialer.Dial(url+"?token=manager", header)
		require.NoError(t, err, origin)
		_ = resp.Body.Close()
		require.Equal(t, event.Connected, read(t, conn).Type)
		_ = conn.Close()
	}

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=manager", http.Header{"Origin": []string{"https://other.example.com"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
	assert.LessOrEqual(t, hub.ClientCount(), 2)
}

func TestGatewayAcceptsBearerHeader(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})

	header := http.Header{"Authorization": []string{"Bearer partner"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	welcome := read(t, conn)
	require.Equal(t, event.Connected, welcome.Type)
	var data event.ConnectedData
	require.NoError(t, json.Unmarshal(welcome.Data, &data))
	assert.Equal(t, int64(2), data.UserID)
	assert.Equal(t, []string{event.RoomAll, event.RoomDeliveryPartners}, data.Rooms)
	assert.Equal(t, 1, hub.RoomSize(event.RoomDeliveryPartners))
}

func TestGatewaySubscriptionReceivesOrderEvents(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})
	conn := dial(t, url+"?token=manager")

	send(t, conn, msgSubscribeOrder, map[string]string{"orderId": "ORD-7"})
	roundTrip(t, conn)
	require.Equal(t, 1, hub.RoomSize("order:ORD-7"))

	require.NoError(t, hub.Publish(context.Background(), event.NewOrdersChanged("x"), event.OrderRoom("ORD-7")))
	assert.Equal(t, event.OrdersChanged, read(t, conn).Type)

	send(t, conn, msgUnsubscribeOrder, map[string]string{"orderId": "ORD-7"})
	roundTrip(t, conn)
	assert.Equal(t, 0, hub.RoomSize("order:ORD-7"))
}

func TestGatewayRoutesOperations(t *testing.T) {
	ops := &opsStub{}
	_, url := newGatewayServer(t, ops)
	conn := dial(t, url+"?token=partner")

	send(t, conn, msgLocationUpdate, map[string]float64{"lat": 12.9, "lng": 77.6})
	send(t, conn, msgStatusUpdate, map[string]string{"orderId": "ORD-1", "status": "picked"})
	roundTrip(t, conn)

	ops.mu.Lock()
	defer ops.mu.Unlock()
	require.Len(t, ops.locations, 1)
	assert.Equal(t, int64(2), ops.locations[0].ID)
	assert.Equal(t, []string{"ORD-1=PICKED"}, ops.statuses)
}

func TestGatewayReportsErrorsToSenderOnly(t *testing.T) {
	ops := &opsStub{
		LocationErr: domainErrors.ErrDeliveryOnly,
		StatusErr:   errors.New("connection reset"),
	}
	_, url := newGatewayServer(t, ops)
	conn := dial(t, url+"?token=manager")
	observer := dial(t, url+"?token=partner")

	cases := []struct {
		msgType string
		data    any
		want    string
	}{
		{msgLocationUpdate, map[string]float64{"lat": 1, "lng": 2}, domainErrors.ErrDeliveryOnly.Error()},
		{msgStatusUpdate, map[string]string{"orderId": "ORD-1", "status": "LOST"}, domainErrors.ErrInvalidStatus.Error() + ": LOST"},
		{msgStatusUpdate, map[string]string{"orderId": "ORD-1", "status": "PICKED"}, "internal server error"},
		{msgSubscribeOrder, map[string]string{}, "orderId is required"},
		{"teleport", nil, "unknown message type: teleport"},
	}
	for _, tc := range cases {
		send(t, conn, tc.msgType, tc.data)
		assert.Equal(t, tc.want, errorMessage(t, read(t, conn)), tc.msgType)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "invalid message", errorMessage(t, read(t, conn)))

	roundTrip(t, observer)
}

func TestGatewayClosesSocketsOnHubClose(t *testing.T) {
	hub, url := newGatewayServer(t, &opsStub{})
	conn := dial(t, url+"?token=manager")

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	assert.ErrorAs(t, err, &closeErr)
	assert.Equal(t, 0, hub.ClientCount())
}
