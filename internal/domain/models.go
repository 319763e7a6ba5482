package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRef identifies a product by its stable slug
type ProductRef struct {
	Slug string
	Name string
}

// CartItem is one line of the cart as last reported by the server
type CartItem struct {
	ID        int64
	Product   ProductRef
	Quantity  int
	UnitPrice decimal.Decimal // price snapshot at fetch time
}

// Cart is the client's copy of the server-owned cart.
// Total is always the server's figure, never recomputed locally.
type Cart struct {
	ID             int64
	Items          []CartItem
	PromoCode      *PromoCode
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
}

// Item returns the line for a product slug
func (c *Cart) Item(slug string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.Product.Slug == slug {
			return item, true
		}
	}
	return CartItem{}, false
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy so callers can't reach into the cached value
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	if c.PromoCode != nil {
		promo := *c.PromoCode
		out.PromoCode = &promo
	}
	return &out
}

// PromoCode is a discount code owned by the user
type PromoCode struct {
	Code            string
	DiscountPercent int
	ExpiresAt       time.Time
}

// IsPrize reports whether the code carries an actual discount
func (p PromoCode) IsPrize() bool {
	return p.DiscountPercent > 0
}

// Order is an immutable record created from a cart
type Order struct {
	ID              int64
	DeliveryAddress string
	TotalPrice      decimal.Decimal
	Items           []OrderItem
	PromoCode       *PromoCode
	CreatedAt       time.Time
}

// OrderItem is a line of a created order
type OrderItem struct {
	ID           int64
	ProductName  string
	Quantity     int
	PricePerItem decimal.Decimal
}

// Confirmation returns the text shown after a successful order
func (o *Order) Confirmation() string {
	return fmt.Sprintf("Order #%d created, total %s", o.ID, o.TotalPrice.StringFixed(2))
}

// Profile holds the user fields the order flow depends on
type Profile struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Address   string
}

// DeliveryInfo builds order input from the profile
func (p *Profile) DeliveryInfo() DeliveryInfo {
	return DeliveryInfo{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
	}
}

// DeliveryInfo is what the backend needs to create an order
type DeliveryInfo struct {
	FirstName string
	LastName  string
	Address   string
}

// MissingFields lists the blank fields, in request order
func (d DeliveryInfo) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(d.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(d.Address) == "" {
		missing = append(missing, "delivery_address")
	}
	return missing
}

// IsComplete reports whether first name, last name and address are all set
func (d DeliveryInfo) IsComplete() bool {
	return len(d.MissingFields()) == 0
}

// SessionEvent is an audit entry for something the session did against the backend
type SessionEvent struct {
	ID        uuid.UUID
	Kind      string
	Subject   string
	Data      map[string]interface{} // JSONB
	CreatedAt time.Time
}

// Session event kinds
const (
	EventCartMutation       = "cart_mutation"
	EventCartMutationFailed = "cart_mutation_failed"
	EventPromoDraw          = "promo_draw"
	EventPromoDrawFailed    = "promo_draw_failed"
	EventOrderCreated       = "order_created"
	EventOrderFailed        = "order_failed"
)
