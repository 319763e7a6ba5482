package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/cartsync/internal/domain"
)

// fakeBackend is a scripted Backend. Unset funcs answer with empty success.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	authenticated bool

	getCart       func(ctx context.Context) (*domain.Cart, error)
	mutate        func(ctx context.Context, op, arg string) error
	listPromos    func(ctx context.Context) ([]domain.PromoCode, error)
	hasAttempt    func(ctx context.Context) (bool, error)
	drawPromo     func(ctx context.Context) (*domain.PromoCode, error)
	createOrder   func(ctx context.Context, info domain.DeliveryInfo) (*domain.Order, error)
	listOrders    func(ctx context.Context) ([]domain.Order, error)
	getProfile    func(ctx context.Context) (*domain.Profile, error)
	updateProfile func(ctx context.Context, fields map[string]string) (*domain.Profile, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:         make(map[string]int),
		authenticated: true,
	}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeBackend) setAuthenticated(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = v
}

func (f *fakeBackend) GetCart(ctx context.Context) (*domain.Cart, error) {
	f.record("get_cart")
	if f.getCart == nil {
		return &domain.Cart{}, nil
	}
	return f.getCart(ctx)
}

func (f *fakeBackend) doMutate(ctx context.Context, op, arg string) error {
	f.record(op)
	if f.mutate == nil {
		return nil
	}
	return f.mutate(ctx, op, arg)
}

func (f *fakeBackend) AddToCart(ctx context.Context, slug string) error {
	return f.doMutate(ctx, "add", slug)
}

func (f *fakeBackend) DecreaseCartItem(ctx context.Context, slug string) error {
	return f.doMutate(ctx, "decrease", slug)
}

func (f *fakeBackend) RemoveCartItem(ctx context.Context, slug string) error {
	return f.doMutate(ctx, "remove", slug)
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	return f.doMutate(ctx, "clear", "")
}

func (f *fakeBackend) ApplyPromo(ctx context.Context, code string) error {
	return f.doMutate(ctx, "apply_promo", code)
}

func (f *fakeBackend) RemovePromo(ctx context.Context) error {
	return f.doMutate(ctx, "remove_promo", "")
}

func (f *fakeBackend) ListPromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	f.record("list_promos")
	if f.listPromos == nil {
		return nil, nil
	}
	return f.listPromos(ctx)
}

func (f *fakeBackend) HasAttempt(ctx context.Context) (bool, error) {
	f.record("has_attempt")
	if f.hasAttempt == nil {
		return false, nil
	}
	return f.hasAttempt(ctx)
}

func (f *fakeBackend) DrawPromo(ctx context.Context) (*domain.PromoCode, error) {
	f.record("draw")
	if f.drawPromo == nil {
		return &domain.PromoCode{Code: "DRAW", DiscountPercent: 10}, nil
	}
	return f.drawPromo(ctx)
}

func (f *fakeBackend) CreateOrderFromCart(ctx context.Context, info domain.DeliveryInfo) (*domain.Order, error) {
	f.record("create_order")
	if f.createOrder == nil {
		return &domain.Order{ID: 1}, nil
	}
	return f.createOrder(ctx, info)
}

func (f *fakeBackend) ListOrders(ctx context.Context) ([]domain.Order, error) {
	f.record("list_orders")
	if f.listOrders == nil {
		return nil, nil
	}
	return f.listOrders(ctx)
}

func (f *fakeBackend) GetProfile(ctx context.Context) (*domain.Profile, error) {
	f.record("get_profile")
	if f.getProfile == nil {
		return &domain.Profile{}, nil
	}
	return f.getProfile(ctx)
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, fields map[string]string) (*domain.Profile, error) {
	f.record("update_profile")
	if f.updateProfile == nil {
		return &domain.Profile{}, nil
	}
	return f.updateProfile(ctx, fields)
}

// recordingRecorder keeps events in memory
type recordingRecorder struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (r *recordingRecorder) Record(_ context.Context, event *domain.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return r.err
}

func (r *recordingRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type cartReply struct {
	cart *domain.Cart
	err  error
}

// gatedCarts makes every GetCart block until the test answers it.
// Each call shows up on the returned channel in the order it was issued.
func gatedCarts(f *fakeBackend) <-chan chan cartReply {
	started := make(chan chan cartReply, 16)
	f.getCart = func(ctx context.Context) (*domain.Cart, error) {
		reply := make(chan cartReply, 1)
		started <- reply
		r := <-reply
		return r.cart, r.err
	}
	return started
}

func cartWith(slug string, quantity int, total string) *domain.Cart {
	return &domain.Cart{
		ID: 1,
		Items: []domain.CartItem{{
			ID:        1,
			Product:   domain.ProductRef{Slug: slug, Name: slug},
			Quantity:  quantity,
			UnitPrice: decimal.RequireFromString("100.00"),
		}},
		Total: decimal.RequireFromString(total),
	}
}
