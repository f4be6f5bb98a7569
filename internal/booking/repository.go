package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	b.ID = uuid.New().String()
	b.Status = domain.BookingPending
	b.FindersFee = domain.FindersFee
	b.CreatedAt = time.Now().UTC()

	productRef := sql.NullString{String: b.ProductID, Valid: b.ProductID != ""}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, customer_id, installer_id, product_id, car_brand, car_model,
		                      car_year, scheduled_date, scheduled_time, status, finders_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.ID, b.CustomerID, b.InstallerID, productRef, b.Car.Brand, b.Car.Model, b.Car.Year,
		b.ScheduledDate, b.ScheduledTime, b.Status, b.FindersFee, b.CreatedAt)
	return err
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b := &domain.Booking{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, installer_id, COALESCE(product_id::text, ''), car_brand, car_model,
		       car_year, scheduled_date, scheduled_time, status, finders_fee, created_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(&b.ID, &b.CustomerID, &b.InstallerID, &b.ProductID, &b.Car.Brand, &b.Car.Model,
		&b.Car.Year, &b.ScheduledDate, &b.ScheduledTime, &b.Status, &b.FindersFee, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return b, nil
}

// Transition persists a decision with a guard on the assigned installer and
// the pending state, so a terminal booking can never be overwritten even by
// concurrent decisions. Returns false when the guard did not match.
func (r *BookingRepository) Transition(ctx context.Context, id, installerID string, status domain.BookingStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $3
		WHERE id = $1 AND installer_id = $2 AND status = 'pending'
	`, id, installerID, status)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return r.list(ctx, `
		SELECT id, customer_id, installer_id, COALESCE(product_id::text, ''), car_brand, car_model,
		       car_year, scheduled_date, scheduled_time, status, finders_fee, created_at
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
}

func (r *BookingRepository) ListByInstaller(ctx context.Context, installerID string) ([]domain.Booking, error) {
	return r.list(ctx, `
		SELECT id, customer_id, installer_id, COALESCE(product_id::text, ''), car_brand, car_model,
		       car_year, scheduled_date, scheduled_time, status, finders_fee, created_at
		FROM bookings
		WHERE installer_id = $1
		ORDER BY created_at DESC
	`, installerID)
}

func (r *BookingRepository) list(ctx context.Context, query string, arg any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.InstallerID, &b.ProductID, &b.Car.Brand,
			&b.Car.Model, &b.Car.Year, &b.ScheduledDate, &b.ScheduledTime, &b.Status,
			&b.FindersFee, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// Summary is the installer dashboard payload.
type Summary struct {
	TotalBookings   int              `json:"total_bookings"`
	PendingCount    int              `json:"pending_count"`
	AcceptedCount   int              `json:"accepted_count"`
	RejectedCount   int              `json:"rejected_count"`
	TotalFindersFee decimal.Decimal `json:"total_finders_fee"`
	Upcoming        []domain.Booking `json:"upcoming"`
}

// InstallerSummary aggregates the installer's bookings: counts per status,
// the finder's fee earned from accepted bookings, and the next ten scheduled
// jobs from today onward.
func (r *BookingRepository) InstallerSummary(ctx context.Context, installerID string) (*Summary, error) {
	summary := &Summary{TotalFindersFee: decimal.Zero}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'accepted'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COALESCE(SUM(finders_fee) FILTER (WHERE status = 'accepted'), 0)
		FROM bookings
		WHERE installer_id = $1
	`, installerID).Scan(&summary.TotalBookings, &summary.PendingCount, &summary.AcceptedCount,
		&summary.RejectedCount, &summary.TotalFindersFee)
	if err != nil {
		return nil, err
	}

	upcoming, err := r.list(ctx, `
		SELECT id, customer_id, installer_id, COALESCE(product_id::text, ''), car_brand, car_model,
		       car_year, scheduled_date, scheduled_time, status, finders_fee, created_at
		FROM bookings
		WHERE installer_id = $1 AND status IN ('pending', 'accepted') AND scheduled_date >= CURRENT_DATE
		ORDER BY scheduled_date, scheduled_time
		LIMIT 10
	`, installerID)
	if err != nil {
		return nil, err
	}
	summary.Upcoming = upcoming
	if summary.Upcoming == nil {
		summary.Upcoming = []domain.Booking{}
	}

	return summary, nil
}
