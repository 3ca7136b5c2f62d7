package core

type Status int

const (
	StatusOk Status = iota
	StatusDegraded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusDegraded:
		return "degraded"
	default:
		return "failed"
	}
}

// Outcome is the result of a call to a collaborator that is allowed to fail.
// Degraded carries a usable fallback value together with the reason.
type Outcome[T any] struct {
	Value  T
	Status Status
	Reason error
}

func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Status: StatusOk}
}

func Degraded[T any](v T, reason error) Outcome[T] {
	return Outcome[T]{Value: v, Status: StatusDegraded, Reason: reason}
}

func Failed[T any](reason error) Outcome[T] {
	return Outcome[T]{Status: StatusFailed, Reason: reason}
}

func (o Outcome[T]) IsOk() bool     { return o.Status == StatusOk }
func (o Outcome[T]) Usable() bool   { return o.Status != StatusFailed }
func (o Outcome[T]) IsFailed() bool { return o.Status == StatusFailed }
