package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/service"
)

// PromoStateResponse represents the draw controller state
type PromoStateResponse struct {
	State      domain.DrawState     `json:"state"`
	HasAttempt bool                 `json:"has_attempt"`
	Stale      bool                 `json:"stale"`
	Codes      []PromoCodeResponse  `json:"codes"`
	Pending    *DrawResponse        `json:"pending,omitempty"`
	Slots      []RevealSlotResponse `json:"slots"`
}

type RevealSlotResponse struct {
	Label    string `json:"label"`
	Discount int    `json:"discount"`
}

// DrawResponse is a drawn code and the slot it is revealed on
type DrawResponse struct {
	Promo       PromoCodeResponse  `json:"promo"`
	SlotIndex   int                `json:"slot_index"`
	Slot        RevealSlotResponse `json:"slot"`
	SlotMatched bool               `json:"slot_matched"`
}

func toDrawResponse(outcome *service.DrawOutcome) *DrawResponse {
	return &DrawResponse{
		Promo:       toPromoCodeResponse(outcome.Promo),
		SlotIndex:   outcome.SlotIndex,
		Slot:        RevealSlotResponse{Label: outcome.Slot.Label, Discount: outcome.Slot.Discount},
		SlotMatched: outcome.SlotMatched,
	}
}

func writePromoState(c *gin.Context, promo *service.PromoService) {
	snap := promo.Snapshot()

	resp := PromoStateResponse{
		State:      snap.State,
		HasAttempt: snap.HasAttempt,
		Stale:      snap.Stale,
		Codes:      make([]PromoCodeResponse, 0, len(snap.Codes)),
	}
	for _, code := range snap.Codes {
		resp.Codes = append(resp.Codes, toPromoCodeResponse(code))
	}
	if snap.Pending != nil {
		resp.Pending = toDrawResponse(snap.Pending)
	}
	for _, slot := range promo.RevealSlots() {
		resp.Slots = append(resp.Slots, RevealSlotResponse{Label: slot.Label, Discount: slot.Discount})
	}

	c.JSON(http.StatusOK, resp)
}

// HandleGetPromo handles GET /v1/promo
func HandleGetPromo(promo *service.PromoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		writePromoState(c, promo)
	}
}

// HandleRefreshPromo handles POST /v1/promo/refresh
func HandleRefreshPromo(promo *service.PromoService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := promo.Load(c.Request.Context()); err != nil {
			writeError(c, logger, err, "could not load promo codes")
			return
		}
		writePromoState(c, promo)
	}
}

// HandleDraw handles POST /v1/promo/draw
func HandleDraw(promo *service.PromoService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, err := promo.Draw(c.Request.Context())
		if err != nil {
			writeError(c, logger, err, "draw failed, refresh to check whether the attempt was used")
			return
		}
		c.JSON(http.StatusOK, toDrawResponse(outcome))
	}
}

// HandleReveal handles POST /v1/promo/reveal
func HandleReveal(promo *service.PromoService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := promo.CompleteReveal(); err != nil {
			writeError(c, logger, err, "nothing to reveal")
			return
		}
		writePromoState(c, promo)
	}
}
