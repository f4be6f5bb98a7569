// Package seller aggregates a seller's sales history into the dashboard
// payload: revenue, units, trends, top products, low stock and the store
// badge.
package seller

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/badge"
	"github.com/pitstop-ph/pitstop/internal/domain"
)

// lowStockCutoff mirrors the threshold checkout uses for stock alerts.
const lowStockCutoff = 3

type Dashboard struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalUnits   int             `json:"total_units"`
	TotalOrders  int             `json:"total_orders"`
	AvgPerOrder  decimal.Decimal `json:"avg_per_order"`

	Revenue30Days decimal.Decimal `json:"revenue_30_days"`
	Units30Days   int             `json:"units_30_days"`

	TopProducts []ProductStat    `json:"top_products"`
	LowStock    []domain.Product `json:"low_stock"`

	Badge badge.Badge `json:"badge"`
}

type ProductStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Load builds the dashboard from the seller's sold line items and current
// products. Line items whose product was deleted are excluded, as in the
// storefront badge aggregation, so the two surfaces always agree.
func (r *DashboardRepository) Load(ctx context.Context, sellerID string) (*Dashboard, error) {
	d := &Dashboard{
		TotalRevenue:  decimal.Zero,
		AvgPerOrder:   decimal.Zero,
		Revenue30Days: decimal.Zero,
		TopProducts:   []ProductStat{},
		LowStock:      []domain.Product{},
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(oi.unit_price * oi.quantity), 0),
		       COALESCE(SUM(oi.quantity), 0),
		       COUNT(DISTINCT oi.order_id),
		       COALESCE(SUM(oi.unit_price * oi.quantity) FILTER (WHERE o.created_at >= NOW() - INTERVAL '30 days'), 0),
		       COALESCE(SUM(oi.quantity) FILTER (WHERE o.created_at >= NOW() - INTERVAL '30 days'), 0)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN orders o ON o.id = oi.order_id
		WHERE p.seller_id = $1
	`, sellerID).Scan(&d.TotalRevenue, &d.TotalUnits, &d.TotalOrders, &d.Revenue30Days, &d.Units30Days)
	if err != nil {
		return nil, err
	}

	if d.TotalOrders > 0 {
		d.AvgPerOrder = d.TotalRevenue.Div(decimal.NewFromInt(int64(d.TotalOrders))).Round(2)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_name, SUM(oi.quantity), SUM(oi.unit_price * oi.quantity)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = $1
		GROUP BY oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 5
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var stat ProductStat
		if err := rows.Scan(&stat.Name, &stat.Quantity, &stat.Revenue); err != nil {
			return nil, err
		}
		d.TopProducts = append(d.TopProducts, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stockRows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, name, brand, model, compatible_years, price, stock
		FROM products
		WHERE seller_id = $1 AND stock <= $2
		ORDER BY stock
	`, sellerID, lowStockCutoff)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stockRows.Close() }()

	for stockRows.Next() {
		var p domain.Product
		if err := stockRows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Brand, &p.Model,
			&p.CompatibleYears, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		d.LowStock = append(d.LowStock, p)
	}
	if err := stockRows.Err(); err != nil {
		return nil, err
	}

	d.Badge = badge.Evaluate(d.TotalRevenue)

	return d, nil
}
