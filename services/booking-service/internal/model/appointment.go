package model

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusClosed    Status = "closed"
	StatusCanceled  Status = "canceled"
)

var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusClosed, StatusCanceled},
}

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusScheduled, StatusClosed, StatusCanceled:
		return s, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether an appointment in s may move to next.
// Writing the current status again is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Occupies reports whether an appointment in this status blocks its slot.
func (s Status) Occupies() bool {
	return s != StatusCanceled
}

type Appointment struct {
	ID         string
	ProviderID string
	ClientID   string
	ServiceID  string
	Date       time.Time
	EndTime    time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
