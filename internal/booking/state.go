// Package booking handles installation bookings between customers and
// installers: creation, the pending→accepted/rejected state machine, and the
// installer's dashboard summary.
package booking

import (
	"errors"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

var (
	ErrNotAllowed     = errors.New("only the assigned installer may decide a booking")
	ErrAlreadyDecided = errors.New("booking is already decided")
	ErrInvalidAction  = errors.New("invalid booking action")
)

// Decide applies an installer's decision to the booking. Pending is the only
// state with outgoing transitions; accepted and rejected are terminal.
func Decide(b *domain.Booking, actorID, action string) error {
	if actorID != b.InstallerID {
		return ErrNotAllowed
	}
	if b.Status != domain.BookingPending {
		return ErrAlreadyDecided
	}

	switch action {
	case ActionAccept:
		b.Status = domain.BookingAccepted
	case ActionReject:
		b.Status = domain.BookingRejected
	default:
		return ErrInvalidAction
	}

	return nil
}
