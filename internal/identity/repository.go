package identity

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account := &domain.Account{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, role, saved_car_brand, saved_car_model, saved_car_year
		FROM accounts
		WHERE id = $1
	`, id).Scan(&account.ID, &account.Username, &account.Role,
		&account.SavedCar.Brand, &account.SavedCar.Model, &account.SavedCar.Year)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return account, nil
}

// Create registers an account and, for customers, the 1:1 voucher ledger row.
func (r *AccountRepository) Create(ctx context.Context, username string, role domain.Role) (*domain.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	account := &domain.Account{
		ID:       uuid.New().String(),
		Username: username,
		Role:     role,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, username, role)
		VALUES ($1, $2, $3)
	`, account.ID, account.Username, account.Role)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleCustomer {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voucher_ledgers (customer_id)
			VALUES ($1)
		`, account.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) SaveCar(ctx context.Context, accountID string, car domain.Car) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET saved_car_brand = $2, saved_car_model = $3, saved_car_year = $4
		WHERE id = $1
	`, accountID, car.Brand, car.Model, car.Year)
	return err
}
