package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/repository"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// ApplyPromoFallback is shown when a promo failure carries no server text
const ApplyPromoFallback = "could not apply promo code"

// CartAPI is the part of the backend the cart engine talks to
type CartAPI interface {
	Authenticated() bool
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, slug string) error
	DecreaseCartItem(ctx context.Context, slug string) error
	RemoveCartItem(ctx context.Context, slug string) error
	ClearCart(ctx context.Context) error
	ApplyPromo(ctx context.Context, code string) error
	RemovePromo(ctx context.Context) error
}

// CartService owns the cached cart view. Every mutation is followed by a full
// refetch and the cached value is replaced wholesale. Overlapping mutations are
// not serialized: whichever refetch resolves last is what the cache shows.
type CartService struct {
	api    CartAPI
	events repository.EventRecorder
	logger *zap.Logger

	mu     sync.RWMutex
	cart   *domain.Cart // nil while unavailable
	closed bool
}

// PromoResult is the outcome of ApplyPromo. Message is the server's text, shown as-is,
// or the generic fallback. Err keeps the typed error behind a failure.
type PromoResult struct {
	Applied bool
	Message string
	Err     error
}

// NewCartService creates a new cart service
func NewCartService(api CartAPI, events repository.EventRecorder, logger *zap.Logger) *CartService {
	return &CartService{
		api:    api,
		events: events,
		logger: logger,
	}
}

// Cart returns a copy of the cached cart; ok is false while the cart is unavailable
func (s *CartService) Cart() (*domain.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return nil, false
	}
	return s.cart.Clone(), true
}

// CanDecrease is the UI guard for DecreaseItem: false at quantity 1 or when the
// product is not in the cached cart. RemoveItem is the way out at quantity 1.
func (s *CartService) CanDecrease(slug string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return false
	}
	item, ok := s.cart.Item(slug)
	return ok && item.Quantity > 1
}

// Fetch reads the authoritative cart and replaces the cached view.
// Without a session, or when the server rejects it, the cache becomes unavailable.
// Other failures leave the cache as it was.
func (s *CartService) Fetch(ctx context.Context) (*domain.Cart, error) {
	if !s.api.Authenticated() {
		s.clear()
		return nil, &errors.ErrUnauthorized{Message: "authentication required"}
	}

	cart, err := s.api.GetCart(ctx)
	if err != nil {
		if errors.IsUnauthorized(err) {
			s.clear()
		}
		s.logger.Warn("Failed to fetch cart", zap.Error(err))
		return nil, err
	}

	if !s.store(ctx, cart) {
		s.logger.Debug("Discarding cart fetch after teardown")
	}
	return cart.Clone(), nil
}

// AddItem increments the quantity of a product by one
func (s *CartService) AddItem(ctx context.Context, slug string) error {
	return s.mutateAndRefetch(ctx, "add", slug, func(ctx context.Context) error {
		return s.api.AddToCart(ctx, slug)
	})
}

// DecreaseItem decrements the quantity of a product by one. The backend decides
// what happens at quantity 1; the refetch shows whatever it did.
func (s *CartService) DecreaseItem(ctx context.Context, slug string) error {
	return s.mutateAndRefetch(ctx, "decrease", slug, func(ctx context.Context) error {
		return s.api.DecreaseCartItem(ctx, slug)
	})
}

// RemoveItem deletes a product line regardless of quantity
func (s *CartService) RemoveItem(ctx context.Context, slug string) error {
	return s.mutateAndRefetch(ctx, "remove", slug, func(ctx context.Context) error {
		return s.api.RemoveCartItem(ctx, slug)
	})
}

// ClearCart removes every line and the promo code
func (s *CartService) ClearCart(ctx context.Context) error {
	return s.mutateAndRefetch(ctx, "clear", "", s.api.ClearCart)
}

// RemovePromo detaches the current promo code, if any
func (s *CartService) RemovePromo(ctx context.Context) error {
	return s.mutateAndRefetch(ctx, "remove_promo", "", s.api.RemovePromo)
}

// ApplyPromo attaches a promo code, replacing any attached one
func (s *CartService) ApplyPromo(ctx context.Context, code string) PromoResult {
	if strings.TrimSpace(code) == "" {
		return PromoResult{
			Message: ApplyPromoFallback,
			Err:     &errors.ErrValidation{Message: ApplyPromoFallback},
		}
	}

	err := s.mutate(ctx, "apply_promo", code, func(ctx context.Context) error {
		return s.api.ApplyPromo(ctx, code)
	})
	if err != nil {
		return PromoResult{Message: errors.UserMessage(err, ApplyPromoFallback), Err: err}
	}

	// the code is attached server-side even if this refetch fails
	if err := s.refetch(ctx, "apply_promo"); err != nil {
		s.logger.Warn("Promo applied but cart refetch failed", zap.Error(err))
	}
	return PromoResult{Applied: true}
}

// Close stops the service from writing results that resolve afterwards
func (s *CartService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *CartService) mutateAndRefetch(ctx context.Context, op, subject string, call func(context.Context) error) error {
	if err := s.mutate(ctx, op, subject, call); err != nil {
		return err
	}
	return s.refetch(ctx, op)
}

func (s *CartService) mutate(ctx context.Context, op, subject string, call func(context.Context) error) error {
	if !s.api.Authenticated() {
		return &errors.ErrUnauthorized{Message: "authentication required"}
	}

	if err := call(ctx); err != nil {
		s.logger.Warn("Cart mutation failed",
			zap.String("op", op),
			zap.String("subject", subject),
			zap.Error(err),
		)
		recordEvent(ctx, s.events, s.logger, domain.EventCartMutationFailed, op, map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
		return fmt.Errorf("cart %s: %w", op, err)
	}

	recordEvent(ctx, s.events, s.logger, domain.EventCartMutation, op, map[string]interface{}{
		"subject": subject,
	})
	return nil
}

func (s *CartService) refetch(ctx context.Context, op string) error {
	if _, err := s.Fetch(ctx); err != nil {
		return fmt.Errorf("refetch after %s: %w", op, err)
	}
	return nil
}

// store swaps in a fetched cart unless the session or the caller went away
func (s *CartService) store(ctx context.Context, cart *domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ctx.Err() != nil {
		return false
	}
	s.cart = cart
	return true
}

func (s *CartService) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cart = nil
}
