package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
)

// FindersFee is the fixed platform fee owed to an installer per booking,
// set at creation and never recalculated.
var FindersFee = decimal.NewFromInt(200)

type Booking struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	InstallerID   string          `json:"installer_id"`
	ProductID     string          `json:"product_id,omitempty"`
	Car           Car             `json:"car"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time"`
	Status        BookingStatus   `json:"status"`
	FindersFee    decimal.Decimal `json:"finders_fee"`
	CreatedAt     time.Time       `json:"created_at"`
}
