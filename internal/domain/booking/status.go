package booking

import "errors"

var (
	ErrInvalidTransition = errors.New("booking status transition is not allowed")
	ErrUnknownStatus     = errors.New("unknown booking status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// validNext is the lifecycle table. Cancelled is terminal; confirmed can
// still be cancelled.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCancelled: true,
	},
	StatusCancelled: {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := validNext[s]
	return ok
}

// IsActive reports whether the booking still holds its dates.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) CanTransitionTo(target Status) bool {
	return validNext[s][target]
}

func (s Status) IsTerminal() bool {
	return len(validNext[s]) == 0
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrUnknownStatus
	}
	return status, nil
}
