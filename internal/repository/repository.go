package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_basket/internal/catalog"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed package catalog. It serves the same records
// as the package service REST API.
type Repository struct {
	db *sql.DB
}

var _ catalog.Source = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) GetPackage(ctx context.Context, packageID string) (*catalog.PackageRecord, error) {
	query := `
		SELECT id, name, description, image, base_price, value_price
		FROM packages
		WHERE id = $1
	`

	var (
		rec         catalog.PackageRecord
		description sql.NullString
		valuePrice  decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx, query, packageID).Scan(
		&rec.ID,
		&rec.Name,
		&description,
		&rec.Image,
		&rec.BasePrice,
		&valuePrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrPackageNotFound, packageID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query package: %v", catalog.ErrCatalogUnavailable, err)
	}

	if description.Valid {
		rec.Description = &description.String
	}
	if valuePrice.Valid {
		rec.ValuePrice = valuePrice.Decimal
	}

	if rec.DefaultItems, err = r.getItems(ctx, packageID, "default"); err != nil {
		return nil, err
	}
	if rec.SwapOptions, err = r.getItems(ctx, packageID, "swap"); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *Repository) getItems(ctx context.Context, packageID, kind string) ([]catalog.ItemRecord, error) {
	query := `
		SELECT p.id, p.name, p.category, p.unit, p.description, p.price, p.image,
		       p.is_available, p.count_in_stock, i.quantity
		FROM package_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.package_id = $1 AND i.kind = $2
		ORDER BY i.position, p.id
	`

	rows, err := r.db.QueryContext(ctx, query, packageID, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query package items: %v", catalog.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var items []catalog.ItemRecord
	for rows.Next() {
		var (
			p           catalog.ProductRecord
			unit        sql.NullString
			description sql.NullString
			available   sql.NullBool
			stock       sql.NullInt64
			quantity    int
		)
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Category,
			&unit,
			&description,
			&p.Price,
			&p.Image,
			&available,
			&stock,
			&quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan package item: %v", catalog.ErrCatalogUnavailable, err)
		}

		if unit.Valid {
			p.Unit = &unit.String
		}
		if description.Valid {
			p.Description = &description.String
		}
		if available.Valid {
			p.IsAvailable = &available.Bool
		}
		if stock.Valid {
			count := int(stock.Int64)
			p.CountInStock = &count
		}
		items = append(items, catalog.ItemRecord{Product: &p, Quantity: quantity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", catalog.ErrCatalogUnavailable, err)
	}

	return items, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
