package analyzer

// OutcomeStatus distinguishes the three terminal states of a best-effort
// external lookup.
type OutcomeStatus string

// External-lookup outcome states.
const (
	OutcomeOK      OutcomeStatus = "ok"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the typed result of a best-effort external call. A skipped
// lookup (missing credential, feature unavailable) is not an error; callers
// branch explicitly instead of relying on nil checks.
type Outcome[T any] struct {
	status OutcomeStatus
	value  T
	reason string
	err    error
}

// Ok wraps a successful lookup value.
func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{status: OutcomeOK, value: value}
}

// Skipped marks the lookup as unavailable with a human-readable reason.
func Skipped[T any](reason string) Outcome[T] {
	return Outcome[T]{status: OutcomeSkipped, reason: reason}
}

// Failed wraps a lookup error.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{status: OutcomeFailed, err: err}
}

// Status returns the outcome state.
func (o Outcome[T]) Status() OutcomeStatus { return o.status }

// IsOk reports whether the lookup produced a value.
func (o Outcome[T]) IsOk() bool { return o.status == OutcomeOK }

// IsSkipped reports whether the lookup was skipped.
func (o Outcome[T]) IsSkipped() bool { return o.status == OutcomeSkipped }

// IsFailed reports whether the lookup failed.
func (o Outcome[T]) IsFailed() bool { return o.status == OutcomeFailed }

// Value returns the wrapped value; only meaningful when IsOk.
func (o Outcome[T]) Value() T { return o.value }

// Reason returns the skip reason; only meaningful when IsSkipped.
func (o Outcome[T]) Reason() string { return o.reason }

// Err returns the lookup error; only meaningful when IsFailed.
func (o Outcome[T]) Err() error { return o.err }
