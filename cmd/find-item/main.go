package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/config"
	"github.com/jafarshop/cartsync/internal/gateway"
	"github.com/jafarshop/cartsync/pkg/errors"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-item/main.go <product-slug>")
		fmt.Println("Example: go run cmd/find-item/main.go \"margherita\"")
		os.Exit(1)
	}

	targetSlug := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Create backend client
	client := gateway.NewClient(cfg.Backend, cfg.Breaker, gateway.StaticToken(cfg.Backend.Token), logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.RequestTimeout)
	defer cancel()

	fmt.Printf("Looking for %s in the cart\n\n", targetSlug)

	cart, err := client.GetCart(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch cart: %s\n", errors.UserMessage(err, err.Error()))
		os.Exit(1)
	}

	item, found := cart.Item(targetSlug)
	if !found {
		fmt.Printf("%s is not in the cart (%d lines, total %s).\n", targetSlug, len(cart.Items), cart.Total.StringFixed(2))
		fmt.Printf("\nMake sure:\n")
		fmt.Printf("  1. The slug is correct (case-sensitive)\n")
		fmt.Printf("  2. BACKEND_TOKEN belongs to the cart owner\n")
		os.Exit(1)
	}

	fmt.Printf("Found item\n\n")
	fmt.Printf("Slug: %s\n", item.Product.Slug)
	fmt.Printf("Product: %s\n", item.Product.Name)
	fmt.Printf("Quantity: %d\n", item.Quantity)
	fmt.Printf("Unit price: %s\n", item.UnitPrice.StringFixed(2))
	fmt.Printf("\nCart:\n")
	fmt.Printf("  Subtotal: %s\n", cart.Subtotal.StringFixed(2))
	fmt.Printf("  Discount: %s\n", cart.DiscountAmount.StringFixed(2))
	fmt.Printf("  Total: %s\n", cart.Total.StringFixed(2))
	if cart.PromoCode != nil {
		fmt.Printf("  Promo: %s (%d%%)\n", cart.PromoCode.Code, cart.PromoCode.DiscountPercent)
	}
}
