// Package cart manages the session shopping cart and the pending-checkout
// snapshot. The session store is an opaque per-session key-value surface;
// everything in it is snapshotted data, never live product references.
package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

// Store is the session-backed cart surface. Implementations persist whole
// values per session token; concurrent writers are last-write-wins.
type Store interface {
	Cart(ctx context.Context, token string) ([]domain.CartLine, error)
	SaveCart(ctx context.Context, token string, lines []domain.CartLine) error
	PendingCheckout(ctx context.Context, token string) (*domain.CartSnapshot, error)
	SavePendingCheckout(ctx context.Context, token string, snapshot domain.CartSnapshot) error
	// Clear removes the cart and any pending checkout for the session.
	Clear(ctx context.Context, token string) error
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Cart(ctx context.Context, token string) ([]domain.CartLine, error) {
	var payload []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT cart FROM sessions WHERE token = $1
	`, token).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, fmt.Errorf("decode cart payload: %w", err)
	}

	return lines, nil
}

func (s *SQLStore) SaveCart(ctx context.Context, token string, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, cart, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO UPDATE SET cart = $2, updated_at = NOW()
	`, token, payload)
	return err
}

func (s *SQLStore) PendingCheckout(ctx context.Context, token string) (*domain.CartSnapshot, error) {
	var payload []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT pending_checkout FROM sessions WHERE token = $1
	`, token).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if payload == nil {
		return nil, nil
	}

	snapshot := &domain.CartSnapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		return nil, fmt.Errorf("decode pending checkout payload: %w", err)
	}

	return snapshot, nil
}

func (s *SQLStore) SavePendingCheckout(ctx context.Context, token string, snapshot domain.CartSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode pending checkout payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, pending_checkout, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO UPDATE SET pending_checkout = $2, updated_at = NOW()
	`, token, payload)
	return err
}

func (s *SQLStore) Clear(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET cart = '[]', pending_checkout = NULL, updated_at = NOW()
		WHERE token = $1
	`, token)
	return err
}
