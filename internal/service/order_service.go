package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/repository"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// OrderAPI is the part of the backend the order transition talks to
type OrderAPI interface {
	CreateOrderFromCart(ctx context.Context, info domain.DeliveryInfo) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// CartFetcher reconciles the cached cart after an order is placed
type CartFetcher interface {
	Fetch(ctx context.Context) (*domain.Cart, error)
}

// OrderService turns the server-side cart into an order
type OrderService struct {
	api    OrderAPI
	cart   CartFetcher
	events repository.EventRecorder
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(api OrderAPI, cart CartFetcher, events repository.EventRecorder, logger *zap.Logger) *OrderService {
	return &OrderService{
		api:    api,
		cart:   cart,
		events: events,
		logger: logger,
	}
}

// CreateFromCart places an order for whatever the server-side cart holds.
// Blank delivery fields block the request; cart contents are the server's call.
func (s *OrderService) CreateFromCart(ctx context.Context, info domain.DeliveryInfo) (*domain.Order, error) {
	if missing := info.MissingFields(); len(missing) > 0 {
		return nil, &errors.ErrValidation{
			Message: "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	order, err := s.api.CreateOrderFromCart(ctx, info)
	if err != nil {
		s.logger.Error("Failed to create order from cart", zap.Error(err))
		recordEvent(ctx, s.events, s.logger, domain.EventOrderFailed, "order", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)
	recordEvent(ctx, s.events, s.logger, domain.EventOrderCreated, "order", map[string]interface{}{
		"order_id": order.ID,
		"total":    order.TotalPrice.StringFixed(2),
	})

	// the order stands even if the cart can't be re-read right now
	if _, err := s.cart.Fetch(ctx); err != nil {
		s.logger.Warn("Cart refetch after order failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	return order, nil
}

// List returns the user's order history
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		s.logger.Warn("Failed to list orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}
