package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/repository"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// ErrSessionClosed is returned when a draw resolves after the session was torn down
var ErrSessionClosed = stderrors.New("session closed")

// PromoAPI is the part of the backend the draw controller talks to
type PromoAPI interface {
	ListPromoCodes(ctx context.Context) ([]domain.PromoCode, error)
	HasAttempt(ctx context.Context) (bool, error)
	DrawPromo(ctx context.Context) (*domain.PromoCode, error)
}

// DrawOutcome is a drawn code plus the slot used to reveal it.
// Slot only drives presentation; Promo keeps the real discount.
type DrawOutcome struct {
	Promo       domain.PromoCode
	SlotIndex   int
	Slot        domain.RevealSlot
	SlotMatched bool
}

// PromoSnapshot is a read-only copy of the controller state
type PromoSnapshot struct {
	State      domain.DrawState
	HasAttempt bool
	// Stale means eligibility has to be re-read from the server before it can be trusted
	Stale   bool
	Codes   []domain.PromoCode
	Pending *DrawOutcome
}

// PromoService runs the daily draw: eligibility, the draw request, and the reveal.
// has_attempt is cleared before the draw request goes out so a repeated click
// can't start a second draw, and it is never restored locally.
type PromoService struct {
	api    PromoAPI
	table  *domain.RevealTable
	events repository.EventRecorder
	logger *zap.Logger

	mu         sync.Mutex
	closed     bool
	state      domain.DrawState
	hasAttempt bool
	codes      []domain.PromoCode
	pending    *DrawOutcome
	// bumped when a draw starts and when it resolves; eligibility reads
	// issued before the last bump are dropped
	drawSeq uint64
}

// NewPromoService creates a new promo draw service
func NewPromoService(api PromoAPI, table *domain.RevealTable, events repository.EventRecorder, logger *zap.Logger) *PromoService {
	return &PromoService{
		api:    api,
		table:  table,
		events: events,
		logger: logger,
		state:  domain.DrawStateUnknown,
	}
}

// Load reads the visible code list and eligibility together and replaces both
func (s *PromoService) Load(ctx context.Context) error {
	seq := s.currentSeq()

	var (
		codes      []domain.PromoCode
		hasAttempt bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		codes, err = s.api.ListPromoCodes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		hasAttempt, err = s.api.HasAttempt(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Failed to load promo codes", zap.Error(err))
		return fmt.Errorf("load promo codes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ctx.Err() != nil {
		return nil
	}
	s.codes = codes
	s.applyEligibility(seq, hasAttempt)
	return nil
}

// RefreshEligibility re-reads has_attempt from the server
func (s *PromoService) RefreshEligibility(ctx context.Context) error {
	seq := s.currentSeq()

	hasAttempt, err := s.api.HasAttempt(ctx)
	if err != nil {
		s.logger.Warn("Failed to refresh draw eligibility", zap.Error(err))
		return fmt.Errorf("refresh eligibility: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ctx.Err() != nil {
		return nil
	}
	s.applyEligibility(seq, hasAttempt)
	return nil
}

// Draw consumes the attempt and returns the drawn code for reveal.
// Eligibility is cleared before the request goes out. If the request fails the
// controller moves to FAILED and stays ineligible until a fresh server read,
// since the server may have consumed the attempt anyway.
func (s *PromoService) Draw(ctx context.Context) (*DrawOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.state != domain.DrawStateEligible || !s.hasAttempt {
		from := s.state
		s.mu.Unlock()
		return nil, &errors.ErrInvalidStateTransition{From: from, To: domain.DrawStateDrawing}
	}
	s.transition(domain.DrawStateDrawing)
	s.hasAttempt = false
	s.pending = nil
	s.drawSeq++
	s.mu.Unlock()

	promo, err := s.api.DrawPromo(ctx)

	s.mu.Lock()
	// reads issued while the draw was in flight may predate the server recording it
	s.drawSeq++
	if err != nil {
		if !s.closed {
			s.transition(domain.DrawStateFailed)
		}
		s.mu.Unlock()

		s.logger.Error("Promo draw failed", zap.Error(err))
		recordEvent(ctx, s.events, s.logger, domain.EventPromoDrawFailed, "draw", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("promo draw: %w", err)
	}

	index, slot, matched := s.table.SlotFor(promo.DiscountPercent)
	outcome := DrawOutcome{
		Promo:       *promo,
		SlotIndex:   index,
		Slot:        slot,
		SlotMatched: matched,
	}
	closed := s.closed
	if !closed {
		s.transition(domain.DrawStateRevealed)
		s.pending = &outcome
	}
	s.mu.Unlock()

	if !matched {
		s.logger.Warn("Drawn discount has no reveal slot, showing fallback",
			zap.Int("discount_percent", promo.DiscountPercent),
			zap.String("slot", slot.Label),
		)
	}
	recordEvent(ctx, s.events, s.logger, domain.EventPromoDraw, "draw", map[string]interface{}{
		"code":             promo.Code,
		"discount_percent": promo.DiscountPercent,
	})

	if closed {
		return nil, ErrSessionClosed
	}
	return &outcome, nil
}

// CompleteReveal finishes the reveal. A drawn code with a real discount
// becomes the only visible code.
func (s *PromoService) CompleteReveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.DrawStateRevealed || s.pending == nil {
		return &errors.ErrInvalidStateTransition{From: s.state, To: domain.DrawStateIneligible}
	}
	if s.pending.Promo.IsPrize() {
		s.codes = []domain.PromoCode{s.pending.Promo}
	}
	s.pending = nil
	s.transition(domain.DrawStateIneligible)
	return nil
}

// Snapshot returns a copy of the current state
func (s *PromoService) Snapshot() PromoSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := PromoSnapshot{
		State:      s.state,
		HasAttempt: s.hasAttempt,
		Stale:      s.state == domain.DrawStateUnknown || s.state == domain.DrawStateFailed,
		Codes:      append([]domain.PromoCode(nil), s.codes...),
	}
	if s.pending != nil {
		pending := *s.pending
		snap.Pending = &pending
	}
	return snap
}

// RevealSlots returns the reveal table
func (s *PromoService) RevealSlots() []domain.RevealSlot {
	return s.table.Slots()
}

// Close stops the service from writing results that resolve afterwards
func (s *PromoService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *PromoService) currentSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawSeq
}

// applyEligibility must be called with mu held
func (s *PromoService) applyEligibility(seq uint64, hasAttempt bool) {
	if seq != s.drawSeq || !s.state.AcceptsEligibility() {
		s.logger.Debug("Dropping eligibility read that predates a draw",
			zap.String("state", string(s.state)),
			zap.Bool("has_attempt", hasAttempt),
		)
		return
	}

	target := domain.DrawStateIneligible
	if hasAttempt {
		target = domain.DrawStateEligible
	}
	s.hasAttempt = hasAttempt
	s.transition(target)
}

// transition must be called with mu held
func (s *PromoService) transition(to domain.DrawState) {
	if s.state == to {
		return
	}
	if !s.state.CanTransitionTo(to) {
		s.logger.Error("Invalid draw state transition",
			zap.String("from", string(s.state)),
			zap.String("to", string(to)),
		)
		return
	}
	s.state = to
}
