package model

import "time"

// OrderView is the wire projection of an order shared by the HTTP API and push events.
type OrderView struct {
	OrderID               string      `json:"orderId"`
	Items                 []Item      `json:"items"`
	PrepTime              int         `json:"prepTime"`
	Status                OrderStatus `json:"status"`
	TotalAmount           float64     `json:"totalAmount"`
	AssignedPartner       *UserRef    `json:"assignedPartner,omitempty"`
	CreatedBy             UserRef     `json:"createdBy"`
	DispatchTime          *time.Time  `json:"dispatchTime,omitempty"`
	EstimatedDeliveryTime *time.Time  `json:"estimatedDeliveryTime,omitempty"`
	PickedAt              *time.Time  `json:"pickedAt,omitempty"`
	DeliveredAt           *time.Time  `json:"deliveredAt,omitempty"`
	CustomerName          string      `json:"customerName,omitempty"`
	DeliveryAddress       string      `json:"deliveryAddress,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

func (o *Order) View() OrderView {
	items := o.Items
	if items == nil {
		items = []Item{}
	}
	return OrderView{
		OrderID:               o.Code,
		Items:                 items,
		PrepTime:              o.PrepTime,
		Status:                o.Status,
		TotalAmount:           o.TotalAmount(),
		AssignedPartner:       o.AssignedPartner,
		CreatedBy:             o.CreatedBy,
		DispatchTime:          o.DispatchTime,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		PickedAt:              o.PickedAt,
		DeliveredAt:           o.DeliveredAt,
		CustomerName:          o.CustomerName,
		DeliveryAddress:       o.DeliveryAddress,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// PartnerView is the wire projection of a delivery partner.
type PartnerView struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	IsAvailable         bool       `json:"isAvailable"`
	CurrentOrders       []int64    `json:"currentOrders"`
	ActiveOrders        int        `json:"activeOrders"`
	Capacity            int        `json:"capacity"`
	Location            *Location  `json:"location,omitempty"`
	LocationUpdatedAt   *time.Time `json:"locationUpdatedAt,omitempty"`
	AverageDeliveryTime int        `json:"averageDeliveryTime"`
}

func (p *DeliveryPartner) View() PartnerView {
	orders := p.CurrentOrders
	if orders == nil {
		orders = []int64{}
	}
	view := PartnerView{
		ID:                  p.UserID,
		Name:                p.Name,
		Email:               p.Email,
		IsAvailable:         p.IsAvailable,
		CurrentOrders:       orders,
		ActiveOrders:        len(orders),
		Capacity:            MaxActiveOrders,
		LocationUpdatedAt:   p.LocationUpdatedAt,
		AverageDeliveryTime: p.AverageDeliveryTime,
	}
	if p.LocationUpdatedAt != nil {
		loc := p.Location
		view.Location = &loc
	}
	return view
}

// UserView is the public projection of an account.
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.Active, CreatedAt: u.CreatedAt}
}
