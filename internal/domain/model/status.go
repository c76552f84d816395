package model

import (
	"strings"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
)

// OrderStatus describes the delivery lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPrep      OrderStatus = "PREP"
	OrderStatusPicked    OrderStatus = "PICKED"
	OrderStatusOnRoute   OrderStatus = "ON_ROUTE"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderStatusPrep, OrderStatusPicked, OrderStatusOnRoute, OrderStatusDelivered}

var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPrep:    OrderStatusPicked,
	OrderStatusPicked:  OrderStatusOnRoute,
	OrderStatusOnRoute: OrderStatusDelivered,
}

// IsValidTransition reports whether an order in current may move to requested.
// Only single forward steps are legal.
func IsValidTransition(current, requested OrderStatus) bool {
	next, ok := nextStatus[current]
	return ok && next == requested
}

// Next returns the status that follows s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPrep, OrderStatusPicked, OrderStatusOnRoute, OrderStatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus accepts the wire form of a status in any letter case.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", domainErrors.ErrInvalidStatus.WithDetail(raw)
	}
	return status, nil
}
