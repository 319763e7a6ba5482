package gateway

import (
	"context"
	"net/http"

	"github.com/jafarshop/cartsync/internal/domain"
)

// Backend REST paths, relative to the configured base URL
const (
	PathCart            = "/cart/"
	PathCartAdd         = "/cart/add/"
	PathCartDecrease    = "/cart/decrease/"
	PathCartRemove      = "/cart/remove/"
	PathCartClear       = "/cart/clear/"
	PathCartApplyPromo  = "/cart/apply-promo/"
	PathCartRemovePromo = "/cart/remove-promo/"
	PathPromoCodes      = "/promo-codes/"
	PathPromoHasAttempt = "/promo-codes/has_attempt/"
	PathPromoCurrent    = "/promo-codes/current/"
	PathOrders          = "/orders/"
	PathOrderFromCart   = "/orders/create-from-cart/"
	PathUserMe          = "/users/me/"
)

// GetCart fetches the authoritative cart
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var payload CartPayload
	if err := c.Do(ctx, http.MethodGet, PathCart, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// AddToCart increments the quantity of a product, creating the line if needed
func (c *Client) AddToCart(ctx context.Context, slug string) error {
	return c.Do(ctx, http.MethodPost, PathCartAdd, ProductInput{Product: slug}, nil)
}

// DecreaseCartItem decrements the quantity of a product
func (c *Client) DecreaseCartItem(ctx context.Context, slug string) error {
	return c.Do(ctx, http.MethodPost, PathCartDecrease, ProductInput{Product: slug}, nil)
}

// RemoveCartItem deletes a product line regardless of quantity
func (c *Client) RemoveCartItem(ctx context.Context, slug string) error {
	return c.Do(ctx, http.MethodPost, PathCartRemove, ProductInput{Product: slug}, nil)
}

// ClearCart removes all lines and the attached promo code
func (c *Client) ClearCart(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathCartClear, struct{}{}, nil)
}

// ApplyPromo attaches a promo code to the cart
func (c *Client) ApplyPromo(ctx context.Context, code string) error {
	return c.Do(ctx, http.MethodPost, PathCartApplyPromo, PromoInput{Code: code}, nil)
}

// RemovePromo detaches the current promo code
func (c *Client) RemovePromo(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathCartRemovePromo, struct{}{}, nil)
}

// ListPromoCodes returns the user's currently valid codes
func (c *Client) ListPromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	var payload []PromoCodePayload
	if err := c.Do(ctx, http.MethodGet, PathPromoCodes, nil, &payload); err != nil {
		return nil, err
	}
	codes := make([]domain.PromoCode, 0, len(payload))
	for i := range payload {
		codes = append(codes, *payload[i].toDomain())
	}
	return codes, nil
}

// HasAttempt reports whether the user may draw today
func (c *Client) HasAttempt(ctx context.Context) (bool, error) {
	var payload AttemptPayload
	if err := c.Do(ctx, http.MethodGet, PathPromoHasAttempt, nil, &payload); err != nil {
		return false, err
	}
	return payload.HasAttempt, nil
}

// DrawPromo consumes the attempt and returns the drawn code
func (c *Client) DrawPromo(ctx context.Context) (*domain.PromoCode, error) {
	var payload PromoCodePayload
	if err := c.Do(ctx, http.MethodGet, PathPromoCurrent, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// CreateOrderFromCart turns the server-side cart into an order
func (c *Client) CreateOrderFromCart(ctx context.Context, info domain.DeliveryInfo) (*domain.Order, error) {
	input := OrderInput{
		FirstName:       info.FirstName,
		LastName:        info.LastName,
		DeliveryAddress: info.Address,
	}
	var payload OrderPayload
	if err := c.Do(ctx, http.MethodPost, PathOrderFromCart, input, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// ListOrders returns the user's orders
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var payload []OrderPayload
	if err := c.Do(ctx, http.MethodGet, PathOrders, nil, &payload); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(payload))
	for i := range payload {
		orders = append(orders, *payload[i].toDomain())
	}
	return orders, nil
}

// GetProfile fetches the signed-in user
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var payload ProfilePayload
	if err := c.Do(ctx, http.MethodGet, PathUserMe, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// UpdateProfile patches profile fields and returns the stored profile
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]string) (*domain.Profile, error) {
	var payload ProfilePayload
	if err := c.Do(ctx, http.MethodPatch, PathUserMe, fields, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}
