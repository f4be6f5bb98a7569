package pricing

import (
	"context"
	"database/sql"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Get(ctx context.Context, customerID string) (*domain.VoucherLedger, error) {
	return scanLedger(r.db.QueryRowContext(ctx, `
		SELECT customer_id, total_spent, five_pct_used, ten_pct_used, twenty_pct_used,
		       extra_voucher_balance, extra_vouchers_earned
		FROM voucher_ledgers
		WHERE customer_id = $1
	`, customerID))
}

// GetForUpdate locks the customer's ledger row for the duration of the
// transaction. Checkout must hold this lock across pricing and spend
// recording so concurrent submissions by the same customer serialize.
func (r *LedgerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, customerID string) (*domain.VoucherLedger, error) {
	return scanLedger(tx.QueryRowContext(ctx, `
		SELECT customer_id, total_spent, five_pct_used, ten_pct_used, twenty_pct_used,
		       extra_voucher_balance, extra_vouchers_earned
		FROM voucher_ledgers
		WHERE customer_id = $1
		FOR UPDATE
	`, customerID))
}

func (r *LedgerRepository) SaveTx(ctx context.Context, tx *sql.Tx, ledger *domain.VoucherLedger) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE voucher_ledgers
		SET total_spent = $2, five_pct_used = $3, ten_pct_used = $4, twenty_pct_used = $5,
		    extra_voucher_balance = $6, extra_vouchers_earned = $7
		WHERE customer_id = $1
	`, ledger.CustomerID, ledger.TotalSpent, ledger.FivePctUsed, ledger.TenPctUsed,
		ledger.TwentyPctUsed, ledger.ExtraVoucherBalance, ledger.ExtraVouchersEarned)
	return err
}

func scanLedger(row *sql.Row) (*domain.VoucherLedger, error) {
	ledger := &domain.VoucherLedger{}

	err := row.Scan(&ledger.CustomerID, &ledger.TotalSpent, &ledger.FivePctUsed,
		&ledger.TenPctUsed, &ledger.TwentyPctUsed,
		&ledger.ExtraVoucherBalance, &ledger.ExtraVouchersEarned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return ledger, nil
}
