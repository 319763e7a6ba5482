package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jafarshop/cartsync/internal/domain"
)

func TestUserMessage_PassesServerTextThrough(t *testing.T) {
	err := fmt.Errorf("apply promo: %w", &ErrValidation{Message: "Промокод не найден"})
	assert.Equal(t, "Промокод не найден", UserMessage(err, "fallback"))
}

func TestUserMessage_FallbackForTransport(t *testing.T) {
	err := &ErrTransport{Op: "GET /cart/", Err: stderrors.New("connection refused")}
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
	assert.True(t, IsTransport(err))
}

func TestUserMessage_FallbackWhenUpstreamHasNoBody(t *testing.T) {
	err := &ErrUpstream{Status: 502}
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
	assert.Equal(t, "backend error: status 502", err.Error())
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(fmt.Errorf("wrap: %w", &ErrUnauthorized{})))
	assert.False(t, IsUnauthorized(&ErrNotFound{Resource: "cart item", ID: "pizza"}))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "cart item not found: pizza", (&ErrNotFound{Resource: "cart item", ID: "pizza"}).Error())
	assert.Equal(t, "unauthorized", (&ErrUnauthorized{}).Error())
	assert.Equal(t, "invalid state transition from INELIGIBLE to DRAWING",
		(&ErrInvalidStateTransition{From: domain.DrawStateIneligible, To: domain.DrawStateDrawing}).Error())
}
