package settlement

// State is the phase of one pipeline invocation. FeeInFlight and every state
// after it are non-cancellable: once the fee payment is submitted the flow
// runs to Settled or Failed regardless of the caller's context.
type State int

const (
	StateIdle State = iota
	StateAwaitingRiskAck
	StateFeeInFlight
	StatePrincipalInFlight
	StateSettled
	StateFailed
)

// String returns the state name for logs
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRiskAck:
		return "awaiting_risk_ack"
	case StateFeeInFlight:
		return "fee_in_flight"
	case StatePrincipalInFlight:
		return "principal_in_flight"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cancellable reports whether a user abort is still possible in this state
func (s State) Cancellable() bool {
	return s == StateIdle || s == StateAwaitingRiskAck
}
