// Package event describes the messages pushed to connected observers after a
// state change has been committed.
package event

import (
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

// Type names a push message.
type Type string

const (
	OrderCreated               Type = "order-created"
	OrderAssigned              Type = "order-assigned"
	OrderStatusUpdated         Type = "order-status-updated"
	PartnerAvailabilityChanged Type = "partner-availability-changed"
	PartnerLocationUpdated     Type = "partner-location-updated"
	Notification               Type = "notification"
	OrdersChanged              Type = "orders-changed"
	PartnersChanged            Type = "partners-changed"
	Connected                  Type = "connected"
	Error                      Type = "error"
	Pong                       Type = "pong"
)

// Event is a typed payload ready to be wrapped into an envelope.
type Event struct {
	Type Type
	Data any
}

// Rooms every connection may belong to.
const (
	RoomManagers         = "managers"
	RoomDeliveryPartners = "delivery-partners"
	RoomAll              = "all"

	orderRoomPrefix = "order:"
)

// Audience selects recipients: either every member of a room or every
// connection of one user.
type Audience struct {
	Room   string
	UserID int64
}

func Room(name string) Audience {
	return Audience{Room: name}
}

func User(id int64) Audience {
	return Audience{UserID: id}
}

// OrderRoom is the per-order topic observers subscribe to.
func OrderRoom(code string) Audience {
	return Audience{Room: OrderRoomName(code)}
}

func OrderRoomName(code string) string {
	return orderRoomPrefix + code
}

// RoleRoom maps a role to its broadcast room.
func RoleRoom(role model.Role) string {
	switch role {
	case model.RoleManager:
		return RoomManagers
	case model.RoleDelivery:
		return RoomDeliveryPartners
	}
	return ""
}

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Actor identifies who triggered a status change.
type Actor struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Role model.Role `json:"role"`
}

type StatusUpdatedData struct {
	OrderID   string            `json:"orderId"`
	OldStatus model.OrderStatus `json:"oldStatus"`
	NewStatus model.OrderStatus `json:"newStatus"`
	UpdatedBy Actor             `json:"updatedBy"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Order     model.OrderView   `json:"order"`
}

type AssignedData struct {
	Order   model.OrderView `json:"order"`
	Partner model.UserRef   `json:"partner"`
	Message string          `json:"message"`
}

type AvailabilityData struct {
	PartnerID   int64  `json:"partnerId"`
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
}

type LocationData struct {
	PartnerID int64          `json:"partnerId"`
	Name      string         `json:"name"`
	Location  model.Location `json:"location"`
	Orders    []string       `json:"orders,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type NotificationData struct {
	Level       string `json:"level"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	RecipientID int64  `json:"recipientId,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type ConnectedData struct {
	ClientID string     `json:"clientId"`
	UserID   int64      `json:"userId"`
	Role     model.Role `json:"role"`
	Rooms    []string   `json:"rooms"`
}

// ChangedData is the lightweight invalidation hint for list views.
type ChangedData struct {
	Reason string `json:"reason"`
}

func NewOrderCreated(order model.Order) Event {
	return Event{Type: OrderCreated, Data: order.View()}
}

func NewOrderAssigned(order model.Order, partner model.UserRef) Event {
	return Event{Type: OrderAssigned, Data: AssignedData{
		Order:   order.View(),
		Partner: partner,
		Message: "Order " + order.Code + " assigned to " + partner.Name,
	}}
}

func NewNotification(level, title, message string, recipient int64) Event {
	return Event{Type: Notification, Data: NotificationData{Level: level, Title: title, Message: message, RecipientID: recipient}}
}

func NewOrdersChanged(reason string) Event {
	return Event{Type: OrdersChanged, Data: ChangedData{Reason: reason}}
}

func NewPartnersChanged(reason string) Event {
	return Event{Type: PartnersChanged, Data: ChangedData{Reason: reason}}
}

func NewError(message string) Event {
	return Event{Type: Error, Data: ErrorData{Message: message}}
}
