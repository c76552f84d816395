package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/server/http/dto"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "items and prepTime are required")
		return
	}

	items := make([]model.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentIdentity(c), usecase.CreateOrderInput{
		OrderID:         req.OrderID,
		Items:           items,
		PrepTime:        req.PrepTime,
		CustomerName:    req.CustomerName,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order.View())
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	page, err := h.facade.GetOrders(c.Request.Context(), orderQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderListResponse(page))
}

// Mine handles GET /api/orders/my.
func (h *OrderHandler) Mine(c *gin.Context) {
	page, err := h.facade.GetMyOrders(c.Request.Context(), CurrentIdentity(c), orderQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderListResponse(page))
}

// Get handles GET /api/orders/:orderId.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.GetOrderByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.View())
}

// Assign handles PUT /api/orders/:orderId/assign.
func (h *OrderHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "partnerId is required")
		return
	}

	order, err := h.facade.AssignPartner(c.Request.Context(), c.Param("orderId"), req.PartnerID, CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.View())
}

// UpdateStatus handles PUT /api/orders/:orderId/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.facade.UpdateStatus(c.Request.Context(), c.Param("orderId"), status, CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.View())
}

// orderQuery ignores malformed numbers; the use case applies defaults.
func orderQuery(c *gin.Context) usecase.OrderQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return usecase.OrderQuery{Page: page, Limit: limit, Status: c.Query("status")}
}
