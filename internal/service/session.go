package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/repository"
)

// Backend is everything a session needs from the shop backend
type Backend interface {
	CartAPI
	PromoAPI
	OrderAPI
	ProfileAPI
}

// Session wires the services for one signed-in shopper
type Session struct {
	Cart    *CartService
	Promo   *PromoService
	Orders  *OrderService
	Profile *ProfileService

	logger *zap.Logger
}

// NewSession builds all services over one backend
func NewSession(api Backend, table *domain.RevealTable, repos *repository.Repositories, logger *zap.Logger) *Session {
	cart := NewCartService(api, repos.SessionEvent, logger.Named("cart"))
	return &Session{
		Cart:    cart,
		Promo:   NewPromoService(api, table, repos.SessionEvent, logger.Named("promo")),
		Orders:  NewOrderService(api, cart, repos.SessionEvent, logger.Named("orders")),
		Profile: NewProfileService(api, logger.Named("profile")),
		logger:  logger,
	}
}

// Start loads the cart and promo state in parallel. One failing load does not
// cancel the other.
func (s *Session) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Cart.Fetch(ctx)
		return err
	})
	g.Go(func() error {
		return s.Promo.Load(ctx)
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Session started with partial state", zap.Error(err))
		return err
	}
	return nil
}

// Close tears the session down; requests still in flight no longer write state
func (s *Session) Close() {
	s.Cart.Close()
	s.Promo.Close()
}
