package catalog

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Filter narrows the catalog listing. Brand and model match as substrings,
// year matches anywhere inside the comma-separated compatible_years field.
type Filter struct {
	Brand string
	Model string
	Year  string
}

func (r *ProductRepository) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, name, brand, model, compatible_years, price, stock
		FROM products
		WHERE ($1 = '' OR brand ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR model ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR compatible_years ILIKE '%' || $3 || '%')
		ORDER BY name
	`, f.Brand, f.Model, f.Year)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanProducts(rows)
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, name, brand, model, compatible_years, price, stock
		FROM products
		WHERE seller_id = $1
		ORDER BY name
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanProducts(rows)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, name, brand, model, compatible_years, price, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.SellerID, &p.Name, &p.Brand, &p.Model, &p.CompatibleYears, &p.Price, &p.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, seller_id, name, brand, model, compatible_years, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.SellerID, p.Name, p.Brand, p.Model, p.CompatibleYears, p.Price, p.Stock)
	return err
}

// Update writes the editable fields, scoped to the owning seller. Returns
// false when the product does not exist or belongs to someone else.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $3, brand = $4, model = $5, compatible_years = $6, price = $7, stock = $8
		WHERE id = $1 AND seller_id = $2
	`, p.ID, p.SellerID, p.Name, p.Brand, p.Model, p.CompatibleYears, p.Price, p.Stock)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id, sellerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM products
		WHERE id = $1 AND seller_id = $2
	`, id, sellerID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *ProductRepository) AddStock(ctx context.Context, id, sellerID string, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $3
		WHERE id = $1 AND seller_id = $2
	`, id, sellerID, quantity)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// SellerRevenues aggregates lifetime revenue per seller over the snapshotted
// line items of their products. Items whose product row was deleted drop out,
// matching the dashboard's aggregation.
func (r *ProductRepository) SellerRevenues(ctx context.Context, sellerIDs []string) (map[string]decimal.Decimal, error) {
	revenues := make(map[string]decimal.Decimal, len(sellerIDs))
	if len(sellerIDs) == 0 {
		return revenues, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.seller_id, COALESCE(SUM(oi.unit_price * oi.quantity), 0)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = ANY($1)
		GROUP BY p.seller_id
	`, pq.Array(sellerIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sellerID string
		var revenue decimal.Decimal
		if err := rows.Scan(&sellerID, &revenue); err != nil {
			return nil, err
		}
		revenues[sellerID] = revenue
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return revenues, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Brand, &p.Model, &p.CompatibleYears, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
