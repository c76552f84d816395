package dto

import "github.com/polkiloo/fooddispatch/internal/domain/model"

// ItemRequest is one line of a new order.
type ItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderRequest describes POST /api/orders. OrderID is generated when empty.
type CreateOrderRequest struct {
	OrderID         string        `json:"orderId"`
	Items           []ItemRequest `json:"items" binding:"required"`
	PrepTime        int           `json:"prepTime" binding:"required"`
	CustomerName    string        `json:"customerName"`
	DeliveryAddress string        `json:"deliveryAddress"`
}

// AssignRequest describes PUT /api/orders/:orderId/assign.
type AssignRequest struct {
	PartnerID int64 `json:"partnerId" binding:"required"`
}

// StatusRequest describes PUT /api/orders/:orderId/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Pagination summarises a listing window.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// OrderListResponse is one page of orders.
type OrderListResponse struct {
	Orders     []model.OrderView `json:"orders"`
	Pagination Pagination        `json:"pagination"`
}

// NewOrderListResponse converts a page into its wire form.
func NewOrderListResponse(page model.OrderPage) OrderListResponse {
	views := make([]model.OrderView, 0, len(page.Orders))
	for i := range page.Orders {
		views = append(views, page.Orders[i].View())
	}
	return OrderListResponse{
		Orders: views,
		Pagination: Pagination{
			Page:  page.Page.Number,
			Limit: page.Page.Limit,
			Total: page.Total,
			Pages: page.Pages(),
		},
	}
}
