package model

import "time"

// Item is a single order line.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a unit of preparation and delivery work.
type Order struct {
	ID                    int64
	Code                  string
	Items                 []Item
	PrepTime              int
	Status                OrderStatus
	AssignedPartner       *UserRef
	DispatchTime          *time.Time
	EstimatedDeliveryTime *time.Time
	CreatedBy             UserRef
	CustomerName          string
	DeliveryAddress       string
	PickedAt              *time.Time
	DeliveredAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TotalAmount is derived from the items and never stored.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}

// IsAssigned reports whether a partner holds the order.
func (o *Order) IsAssigned() bool {
	return o.AssignedPartner != nil
}

// Schedule is the dispatch estimate computed at assignment time.
type Schedule struct {
	DispatchTime          time.Time
	EstimatedDeliveryTime time.Time
}

// ComputeSchedule applies the additive ETA model: the partner leaves after the
// kitchen and one delivery leg worth of time, and arrives one leg later.
func ComputeSchedule(now time.Time, prepTime, avgDeliveryTime int) Schedule {
	leg := time.Duration(avgDeliveryTime) * time.Minute
	dispatch := now.Add(time.Duration(prepTime)*time.Minute + leg)
	return Schedule{DispatchTime: dispatch, EstimatedDeliveryTime: dispatch.Add(leg)}
}

// NewOrder carries validated input for order creation.
type NewOrder struct {
	Code            string
	Items           []Item
	PrepTime        int
	CreatedBy       int64
	CustomerName    string
	DeliveryAddress string
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status    OrderStatus
	PartnerID int64
	Page      Page
}
