package domain

// DrawState represents where the promotional draw is for the current session
type DrawState string

const (
	DrawStateUnknown    DrawState = "UNKNOWN"
	DrawStateIneligible DrawState = "INELIGIBLE"
	DrawStateEligible   DrawState = "ELIGIBLE"
	DrawStateDrawing    DrawState = "DRAWING"
	DrawStateRevealed   DrawState = "REVEALED"
	DrawStateFailed     DrawState = "FAILED"
)

// IsValid checks if the draw state is valid
func (s DrawState) IsValid() bool {
	switch s {
	case DrawStateUnknown,
		DrawStateIneligible,
		DrawStateEligible,
		DrawStateDrawing,
		DrawStateRevealed,
		DrawStateFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a state transition is valid
func (s DrawState) CanTransitionTo(newState DrawState) bool {
	switch s {
	case DrawStateUnknown, DrawStateIneligible, DrawStateFailed:
		return newState == DrawStateEligible ||
			newState == DrawStateIneligible
	case DrawStateEligible:
		return newState == DrawStateDrawing ||
			newState == DrawStateIneligible
	case DrawStateDrawing:
		return newState == DrawStateRevealed ||
			newState == DrawStateFailed
	case DrawStateRevealed:
		return newState == DrawStateIneligible
	default:
		return false
	}
}

// AcceptsEligibility reports whether a server eligibility read may be applied in this state.
// While a draw is in flight or being revealed the outcome owns the state.
func (s DrawState) AcceptsEligibility() bool {
	return s != DrawStateDrawing && s != DrawStateRevealed
}
