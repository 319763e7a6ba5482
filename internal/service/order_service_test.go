package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/pkg/errors"
)

func newOrderService(f *fakeBackend) (*OrderService, *CartService, *recordingRecorder) {
	events := &recordingRecorder{}
	cart := NewCartService(f, events, zap.NewNop())
	return NewOrderService(f, cart, events, zap.NewNop()), cart, events
}

func TestOrderService_GuardBlocksIncompleteDelivery(t *testing.T) {
	complete := domain.DeliveryInfo{FirstName: "Ivan", LastName: "Petrov", Address: "Lenina 1"}

	tests := []struct {
		name    string
		mutate  func(*domain.DeliveryInfo)
		missing string
	}{
		{name: "first name", mutate: func(d *domain.DeliveryInfo) { d.FirstName = "" }, missing: "first_name"},
		{name: "last name", mutate: func(d *domain.DeliveryInfo) { d.LastName = "  " }, missing: "last_name"},
		{name: "address", mutate: func(d *domain.DeliveryInfo) { d.Address = "\t" }, missing: "delivery_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			svc, _, _ := newOrderService(f)
			info := complete
			tt.mutate(&info)

			order, err := svc.CreateFromCart(context.Background(), info)
			assert.Nil(t, order)

			var validation *errors.ErrValidation
			require.True(t, stderrors.As(err, &validation))
			assert.Contains(t, validation.Message, tt.missing)
			assert.Equal(t, 0, f.count("create_order"))
			assert.Equal(t, 0, f.count("get_cart"))
		})
	}
}

func TestOrderService_SuccessRefetchesCart(t *testing.T) {
	f := newFakeBackend()
	f.createOrder = func(_ context.Context, info domain.DeliveryInfo) (*domain.Order, error) {
		assert.Equal(t, "Lenina 1", info.Address)
		return &domain.Order{ID: 42, TotalPrice: decimal.RequireFromString("180.00")}, nil
	}
	svc, cart, events := newOrderService(f)

	order, err := svc.CreateFromCart(context.Background(), domain.DeliveryInfo{
		FirstName: "Ivan", LastName: "Petrov", Address: "Lenina 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order #42 created, total 180.00", order.Confirmation())
	assert.Equal(t, 1, f.count("get_cart"))

	cached, ok := cart.Cart()
	require.True(t, ok)
	assert.True(t, cached.IsEmpty())
	assert.Equal(t, []string{domain.EventOrderCreated}, events.kinds())
}

func TestOrderService_RefetchFailureDoesNotFailOrder(t *testing.T) {
	f := newFakeBackend()
	f.getCart = func(context.Context) (*domain.Cart, error) {
		return nil, &errors.ErrUpstream{Status: 502}
	}
	svc, _, _ := newOrderService(f)

	order, err := svc.CreateFromCart(context.Background(), domain.DeliveryInfo{
		FirstName: "Ivan", LastName: "Petrov", Address: "Lenina 1",
	})
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_FailureLeavesCartUntouched(t *testing.T) {
	f := newFakeBackend()
	f.getCart = func(context.Context) (*domain.Cart, error) {
		return cartWith("margherita", 2, "200.00"), nil
	}
	f.createOrder = func(context.Context, domain.DeliveryInfo) (*domain.Order, error) {
		return nil, &errors.ErrValidation{Message: "Продукт Margherita недоступен"}
	}
	svc, cart, events := newOrderService(f)
	_, err := cart.Fetch(context.Background())
	require.NoError(t, err)

	_, err = svc.CreateFromCart(context.Background(), domain.DeliveryInfo{
		FirstName: "Ivan", LastName: "Petrov", Address: "Lenina 1",
	})
	require.Error(t, err)
	assert.Equal(t, "Продукт Margherita недоступен", errors.UserMessage(err, "order failed"))
	assert.Equal(t, 1, f.count("get_cart"))

	cached, ok := cart.Cart()
	require.True(t, ok)
	assert.Len(t, cached.Items, 1)
	assert.Equal(t, []string{domain.EventOrderFailed}, events.kinds())
}

func TestProfileService_UpdateField(t *testing.T) {
	t.Run("rejects fields that are not editable", func(t *testing.T) {
		f := newFakeBackend()
		svc := NewProfileService(f, zap.NewNop())

		_, err := svc.UpdateField(context.Background(), "email", "x@example.com")
		var validation *errors.ErrValidation
		require.True(t, stderrors.As(err, &validation))
		assert.Equal(t, 0, f.count("update_profile"))
	})

	t.Run("rejects blank values", func(t *testing.T) {
		f := newFakeBackend()
		svc := NewProfileService(f, zap.NewNop())

		_, err := svc.UpdateField(context.Background(), FieldAddress, "   ")
		require.Error(t, err)
		assert.Equal(t, 0, f.count("update_profile"))
	})

	t.Run("sends the trimmed value", func(t *testing.T) {
		f := newFakeBackend()
		f.updateProfile = func(_ context.Context, fields map[string]string) (*domain.Profile, error) {
			return &domain.Profile{Address: fields[FieldAddress]}, nil
		}
		svc := NewProfileService(f, zap.NewNop())

		profile, err := svc.UpdateField(context.Background(), FieldAddress, " Lenina 1 ")
		require.NoError(t, err)
		assert.Equal(t, "Lenina 1", profile.Address)
	})
}
