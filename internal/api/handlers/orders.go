package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/api/middleware"
	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/service"
)

// CreateOrderRequest represents the order payload. Blank fields are taken from the profile.
type CreateOrderRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DeliveryAddress string `json:"delivery_address"`
}

// OrderResponse represents the order response
type OrderResponse struct {
	ID              int64               `json:"id"`
	DeliveryAddress string              `json:"delivery_address"`
	TotalPrice      string              `json:"total_price"`
	PromoCode       *PromoCodeResponse  `json:"promo_code"`
	Items           []OrderItemResponse `json:"items"`
	Confirmation    string              `json:"confirmation"`
	CreatedAt       string              `json:"created_at"`
}

type OrderItemResponse struct {
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	PricePerItem string `json:"price_per_item"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		DeliveryAddress: order.DeliveryAddress,
		TotalPrice:      order.TotalPrice.StringFixed(2),
		Items:           make([]OrderItemResponse, 0, len(order.Items)),
		Confirmation:    order.Confirmation(),
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			PricePerItem: item.PricePerItem.StringFixed(2),
		})
	}
	if order.PromoCode != nil {
		promo := toPromoCodeResponse(*order.PromoCode)
		resp.PromoCode = &promo
	}
	return resp
}

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(orders *service.OrderService, profiles *service.ProfileService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "invalid request body",
					"details": err.Error(),
				})
				return
			}
		}

		info := domain.DeliveryInfo{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Address:   req.DeliveryAddress,
		}
		if !info.IsComplete() {
			profile, err := profiles.Me(c.Request.Context())
			if err != nil {
				writeError(c, logger, err, "could not load profile")
				return
			}
			info = mergeDeliveryInfo(info, profile.DeliveryInfo())
		}

		order, err := orders.CreateFromCart(c.Request.Context(), info)
		if err != nil {
			writeError(c, logger, err, "could not create order")
			return
		}

		logger.Info("Order placed",
			zap.Int64("order_id", order.ID),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.List(c.Request.Context())
		if err != nil {
			writeError(c, logger, err, "could not load orders")
			return
		}

		resp := make([]OrderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toOrderResponse(&list[i]))
		}
		c.JSON(http.StatusOK, gin.H{
			"orders": resp,
			"count":  len(resp),
		})
	}
}

// mergeDeliveryInfo fills blank request fields from the profile
func mergeDeliveryInfo(req, profile domain.DeliveryInfo) domain.DeliveryInfo {
	if strings.TrimSpace(req.FirstName) == "" {
		req.FirstName = profile.FirstName
	}
	if strings.TrimSpace(req.LastName) == "" {
		req.LastName = profile.LastName
	}
	if strings.TrimSpace(req.Address) == "" {
		req.Address = profile.Address
	}
	return req
}
