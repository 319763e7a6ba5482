package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/pkg/errors"
)

func newPromoService(t *testing.T, f *fakeBackend) (*PromoService, *recordingRecorder) {
	t.Helper()
	events := &recordingRecorder{}
	return NewPromoService(f, domain.DefaultRevealTable(), events, zap.NewNop()), events
}

func eligibleBackend() *fakeBackend {
	f := newFakeBackend()
	f.hasAttempt = func(context.Context) (bool, error) { return true, nil }
	f.listPromos = func(context.Context) ([]domain.PromoCode, error) {
		return []domain.PromoCode{{Code: "WELCOME", DiscountPercent: 5}}, nil
	}
	return f
}

func TestPromoService_Load(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateUnknown, snap.State)
	assert.True(t, snap.Stale)

	require.NoError(t, svc.Load(context.Background()))

	snap = svc.Snapshot()
	assert.Equal(t, domain.DrawStateEligible, snap.State)
	assert.True(t, snap.HasAttempt)
	assert.False(t, snap.Stale)
	assert.Equal(t, []domain.PromoCode{{Code: "WELCOME", DiscountPercent: 5}}, snap.Codes)
}

func TestPromoService_LoadFailureKeepsState(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	f.listPromos = func(context.Context) ([]domain.PromoCode, error) {
		return nil, &errors.ErrUpstream{Status: 500}
	}
	require.Error(t, svc.Load(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateEligible, snap.State)
	assert.Len(t, snap.Codes, 1)
}

func TestPromoService_DrawClearsEligibilityBeforeRequest(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
		close(inFlight)
		<-release
		return &domain.PromoCode{Code: "DRAW10", DiscountPercent: 10}, nil
	}

	type result struct {
		outcome *DrawOutcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := svc.Draw(context.Background())
		done <- result{outcome, err}
	}()
	<-inFlight

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateDrawing, snap.State)
	assert.False(t, snap.HasAttempt)

	// a second draw while the first is in flight never reaches the server
	_, err := svc.Draw(context.Background())
	var transition *errors.ErrInvalidStateTransition
	require.True(t, stderrors.As(err, &transition))
	assert.Equal(t, domain.DrawStateDrawing, transition.From)
	assert.Equal(t, 1, f.count("draw"))

	close(release)
	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "DRAW10", r.outcome.Promo.Code)
	assert.True(t, r.outcome.SlotMatched)
	assert.Equal(t, 10, r.outcome.Slot.Discount)

	snap = svc.Snapshot()
	assert.Equal(t, domain.DrawStateRevealed, snap.State)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "DRAW10", snap.Pending.Promo.Code)
}

func TestPromoService_DrawRequiresEligibility(t *testing.T) {
	f := newFakeBackend()
	f.hasAttempt = func(context.Context) (bool, error) { return false, nil }
	svc, _ := newPromoService(t, f)

	// unknown before the first load
	_, err := svc.Draw(context.Background())
	require.Error(t, err)

	require.NoError(t, svc.Load(context.Background()))
	_, err = svc.Draw(context.Background())
	var transition *errors.ErrInvalidStateTransition
	require.True(t, stderrors.As(err, &transition))
	assert.Equal(t, domain.DrawStateIneligible, transition.From)
	assert.Equal(t, 0, f.count("draw"))
}

func TestPromoService_DrawFailureIsStale(t *testing.T) {
	f := eligibleBackend()
	svc, events := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
		return nil, &errors.ErrTransport{Op: "GET /promo-codes/current/", Err: context.DeadlineExceeded}
	}
	_, err := svc.Draw(context.Background())
	assert.True(t, errors.IsTransport(err))

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateFailed, snap.State)
	assert.False(t, snap.HasAttempt)
	assert.True(t, snap.Stale)
	assert.Equal(t, []string{domain.EventPromoDrawFailed}, events.kinds())

	// no second draw until the server says so
	_, err = svc.Draw(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.count("draw"))

	require.NoError(t, svc.RefreshEligibility(context.Background()))
	snap = svc.Snapshot()
	assert.Equal(t, domain.DrawStateEligible, snap.State)
	assert.False(t, snap.Stale)
}

func TestPromoService_FailedDrawResolvedAsConsumed(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
		return nil, &errors.ErrUpstream{Status: 502}
	}
	_, err := svc.Draw(context.Background())
	require.Error(t, err)

	// the server consumed the attempt before failing
	f.hasAttempt = func(context.Context) (bool, error) { return false, nil }
	require.NoError(t, svc.RefreshEligibility(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateIneligible, snap.State)
	assert.False(t, snap.HasAttempt)
}

func TestPromoService_StaleEligibilityReadIsDropped(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	f.hasAttempt = func(context.Context) (bool, error) {
		close(inFlight)
		<-release
		return true, nil
	}

	done := make(chan error, 1)
	go func() { done <- svc.RefreshEligibility(context.Background()) }()
	<-inFlight

	_, err := svc.Draw(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReveal())

	close(release)
	require.NoError(t, <-done)

	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateIneligible, snap.State)
	assert.False(t, snap.HasAttempt)
}

func TestPromoService_UnknownDiscountRevealsZeroSlot(t *testing.T) {
	f := eligibleBackend()
	f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
		return &domain.PromoCode{Code: "DRAW7", DiscountPercent: 7}, nil
	}
	slots, err := domain.ParseRevealSlots("5,10,15,0")
	require.NoError(t, err)
	table, err := domain.NewRevealTable(slots)
	require.NoError(t, err)
	svc := NewPromoService(f, table, &recordingRecorder{}, zap.NewNop())
	require.NoError(t, svc.Load(context.Background()))

	outcome, err := svc.Draw(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.SlotMatched)
	assert.Equal(t, 3, outcome.SlotIndex)
	assert.Equal(t, 0, outcome.Slot.Discount)
	assert.Equal(t, 7, outcome.Promo.DiscountPercent)

	// the stored code keeps its real discount
	require.NoError(t, svc.CompleteReveal())
	snap := svc.Snapshot()
	require.Len(t, snap.Codes, 1)
	assert.Equal(t, "DRAW7", snap.Codes[0].Code)
	assert.Equal(t, 7, snap.Codes[0].DiscountPercent)
}

func TestPromoService_CompleteReveal(t *testing.T) {
	tests := []struct {
		name      string
		discount  int
		wantCodes []string
	}{
		{name: "prize replaces the list", discount: 12, wantCodes: []string{"DRAW"}},
		{name: "no prize keeps the list", discount: 0, wantCodes: []string{"WELCOME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := eligibleBackend()
			f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
				return &domain.PromoCode{Code: "DRAW", DiscountPercent: tt.discount}, nil
			}
			svc, events := newPromoService(t, f)
			require.NoError(t, svc.Load(context.Background()))

			_, err := svc.Draw(context.Background())
			require.NoError(t, err)
			require.NoError(t, svc.CompleteReveal())

			snap := svc.Snapshot()
			assert.Equal(t, domain.DrawStateIneligible, snap.State)
			assert.Nil(t, snap.Pending)
			codes := make([]string, 0, len(snap.Codes))
			for _, c := range snap.Codes {
				codes = append(codes, c.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
			assert.Equal(t, []string{domain.EventPromoDraw}, events.kinds())
		})
	}
}

func TestPromoService_CompleteRevealWithoutDraw(t *testing.T) {
	svc, _ := newPromoService(t, eligibleBackend())
	require.NoError(t, svc.Load(context.Background()))

	err := svc.CompleteReveal()
	var transition *errors.ErrInvalidStateTransition
	require.True(t, stderrors.As(err, &transition))
	assert.Equal(t, domain.DrawStateEligible, transition.From)
}

func TestPromoService_DrawResolvingAfterClose(t *testing.T) {
	f := eligibleBackend()
	svc, _ := newPromoService(t, f)
	require.NoError(t, svc.Load(context.Background()))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
		close(inFlight)
		<-release
		return &domain.PromoCode{Code: "DRAW10", DiscountPercent: 10}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Draw(context.Background())
		done <- err
	}()
	<-inFlight
	svc.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	snap := svc.Snapshot()
	assert.Equal(t, domain.DrawStateDrawing, snap.State)
	assert.Nil(t, snap.Pending)
}

func TestPromoService_EligibilityReadDuringDrawIsDropped(t *testing.T) {
	tests := []struct {
		name      string
		drawErr   error
		resolve   func(t *testing.T, svc *PromoService)
		wantState domain.DrawState
	}{
		{
			name: "after reveal",
			resolve: func(t *testing.T, svc *PromoService) {
				require.NoError(t, svc.CompleteReveal())
			},
			wantState: domain.DrawStateIneligible,
		},
		{
			name:      "after failed draw",
			drawErr:   &errors.ErrUpstream{Status: 502},
			resolve:   func(*testing.T, *PromoService) {},
			wantState: domain.DrawStateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := eligibleBackend()
			svc, _ := newPromoService(t, f)
			require.NoError(t, svc.Load(context.Background()))

			drawInFlight := make(chan struct{})
			releaseDraw := make(chan struct{})
			f.drawPromo = func(context.Context) (*domain.PromoCode, error) {
				close(drawInFlight)
				<-releaseDraw
				if tt.drawErr != nil {
					return nil, tt.drawErr
				}
				return &domain.PromoCode{Code: "DRAW10", DiscountPercent: 10}, nil
			}

			// served before the server recorded the draw
			readInFlight := make(chan struct{})
			releaseRead := make(chan struct{})
			f.hasAttempt = func(context.Context) (bool, error) {
				close(readInFlight)
				<-releaseRead
				return true, nil
			}

			drawDone := make(chan error, 1)
			go func() {
				_, err := svc.Draw(context.Background())
				drawDone <- err
			}()
			<-drawInFlight

			readDone := make(chan error, 1)
			go func() { readDone <- svc.RefreshEligibility(context.Background()) }()
			<-readInFlight

			close(releaseDraw)
			drawErr := <-drawDone
			if tt.drawErr != nil {
				require.Error(t, drawErr)
			} else {
				require.NoError(t, drawErr)
			}
			tt.resolve(t, svc)

			close(releaseRead)
			require.NoError(t, <-readDone)

			snap := svc.Snapshot()
			assert.Equal(t, tt.wantState, snap.State)
			assert.False(t, snap.HasAttempt)

			_, err := svc.Draw(context.Background())
			require.Error(t, err)
			assert.Equal(t, 1, f.count("draw"))
		})
	}
}
