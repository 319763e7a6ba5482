package gateway

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/cartsync/internal/domain"
)

// ProductInput identifies a product in cart mutations
type ProductInput struct {
	Product string `json:"product"`
}

// PromoInput carries a promo code to apply
type PromoInput struct {
	Code string `json:"code"`
}

// OrderInput is the create-from-cart payload
type OrderInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DeliveryAddress string `json:"delivery_address"`
}

// CartPayload mirrors the cart serializer
type CartPayload struct {
	ID             int64             `json:"id"`
	Items          []CartItemPayload `json:"items"`
	PromoCode      *PromoCodePayload `json:"promo_code"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	Total          decimal.Decimal   `json:"total"`
	CreatedAt      time.Time         `json:"created_at"`
}

type CartItemPayload struct {
	ID            int64          `json:"id"`
	Product       string         `json:"product"`
	ProductDetail ProductPayload `json:"product_detail"`
	Quantity      int            `json:"quantity"`
}

type ProductPayload struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

type PromoCodePayload struct {
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type AttemptPayload struct {
	HasAttempt bool `json:"has_attempt"`
}

type OrderPayload struct {
	ID              int64              `json:"id"`
	DeliveryAddress string             `json:"delivery_address"`
	CreatedAt       time.Time          `json:"created_at"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	Items           []OrderItemPayload `json:"items"`
	PromoCode       *PromoCodePayload  `json:"promo_code"`
}

type OrderItemPayload struct {
	ID           int64           `json:"id"`
	Product      *string         `json:"product"`
	Quantity     int             `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

type ProfilePayload struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

func (p *CartPayload) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:             p.ID,
		Items:          make([]domain.CartItem, 0, len(p.Items)),
		PromoCode:      p.PromoCode.toDomain(),
		Subtotal:       p.Subtotal,
		DiscountAmount: p.DiscountAmount,
		Total:          p.Total,
		CreatedAt:      p.CreatedAt,
	}
	for _, item := range p.Items {
		name := item.ProductDetail.Name
		if name == "" {
			name = item.Product
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        item.ID,
			Product:   domain.ProductRef{Slug: item.ProductDetail.Slug, Name: name},
			Quantity:  item.Quantity,
			UnitPrice: item.ProductDetail.Price,
		})
	}
	return cart
}

func (p *PromoCodePayload) toDomain() *domain.PromoCode {
	if p == nil {
		return nil
	}
	return &domain.PromoCode{
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		ExpiresAt:       p.ExpiresAt,
	}
}

func (p *OrderPayload) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              p.ID,
		DeliveryAddress: p.DeliveryAddress,
		TotalPrice:      p.TotalPrice,
		Items:           make([]domain.OrderItem, 0, len(p.Items)),
		PromoCode:       p.PromoCode.toDomain(),
		CreatedAt:       p.CreatedAt,
	}
	for _, item := range p.Items {
		// product is null once it has been deleted from the catalog
		name := ""
		if item.Product != nil {
			name = *item.Product
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:           item.ID,
			ProductName:  name,
			Quantity:     item.Quantity,
			PricePerItem: item.PricePerItem,
		})
	}
	return order
}

func (p *ProfilePayload) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
	}
}
