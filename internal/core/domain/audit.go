package domain

import "time"

// AuthOutcome is the terminal state of a single gate decision.
type AuthOutcome string

const (
	OutcomeForwarded AuthOutcome = "forwarded"
	OutcomeRejected  AuthOutcome = "rejected"
)

// AuthEvent records one decision taken by the auth gate.
type AuthEvent struct {
	Username  string
	Outcome   AuthOutcome
	Reason    string // empty when forwarded
	RemoteIP  string
	UserAgent string
	Method    string
	Path      string
	At        time.Time
}
