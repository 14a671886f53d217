package enums

// CheckoutState is a step of the checkout workflow.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateAuthCheck            CheckoutState = "auth_check"
	CheckoutStateAwaitingAuth         CheckoutState = "awaiting_auth"
	CheckoutStateSubmitting           CheckoutState = "submitting"
	CheckoutStateSettlementSimulation CheckoutState = "settlement_simulation"
	CheckoutStateComplete             CheckoutState = "complete"
	CheckoutStateFailed               CheckoutState = "failed"
)

// checkoutTransitions lists the allowed next states for each state.
var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:                 {CheckoutStateAuthCheck},
	CheckoutStateAuthCheck:            {CheckoutStateAwaitingAuth, CheckoutStateSubmitting, CheckoutStateFailed},
	CheckoutStateAwaitingAuth:         {CheckoutStateAuthCheck},
	CheckoutStateSubmitting:           {CheckoutStateSettlementSimulation, CheckoutStateFailed},
	CheckoutStateSettlementSimulation: {CheckoutStateComplete, CheckoutStateFailed},
	CheckoutStateComplete:             {CheckoutStateIdle},
	CheckoutStateFailed:               {CheckoutStateSubmitting, CheckoutStateIdle},
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// Terminal reports whether the state ends a checkout attempt.
func (c CheckoutState) Terminal() bool {
	return c == CheckoutStateAwaitingAuth || c == CheckoutStateComplete || c == CheckoutStateFailed
}

// CanTransitionTo reports whether next is a legal successor of c.
func (c CheckoutState) CanTransitionTo(next CheckoutState) bool {
	for _, candidate := range checkoutTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}
