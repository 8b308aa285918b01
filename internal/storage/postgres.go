package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/config"
)

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// QuoteRecord is a submitted quote request with its computed pricing.
type QuoteRecord struct {
	ID          int64  `db:"id"`
	Reference   string `db:"reference"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	Phone       string `db:"phone"`
	ServiceType string `db:"service_type"`

	PropertyType string `db:"property_type"`
	RoomsOrSize  string `db:"rooms_or_size"`
	FloorLevel   string `db:"floor_level"`

	Services     pq.StringArray `db:"services"`
	ComplexItems pq.StringArray `db:"complex_items"`

	OriginAddress      string  `db:"origin_address"`
	DestinationAddress string  `db:"destination_address"`
	DistanceKm         float64 `db:"distance_km"`

	BasePrice float64 `db:"base_price"`
	Tax       float64 `db:"tax"`
	Total     int64   `db:"total"`

	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}, nil
}

func (s *PostgresStorage) SaveQuoteRequest(ctx context.Context, rec QuoteRecord) (int64, error) {
	const query = `
        INSERT INTO quote_requests (
            reference, name, email, phone, service_type,
            property_type, rooms_or_size, floor_level,
            services, complex_items,
            origin_address, destination_address, distance_km,
            base_price, tax, total, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING id
    `

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.Reference,
		rec.Name,
		rec.Email,
		rec.Phone,
		rec.ServiceType,
		rec.PropertyType,
		rec.RoomsOrSize,
		rec.FloorLevel,
		rec.Services,
		rec.ComplexItems,
		rec.OriginAddress,
		rec.DestinationAddress,
		rec.DistanceKm,
		rec.BasePrice,
		rec.Tax,
		rec.Total,
		rec.Status,
		rec.CreatedAt,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to save quote request: %w", err)
	}
	return id, nil
}

func (s *PostgresStorage) GetQuoteRequest(ctx context.Context, id int64) (*QuoteRecord, error) {
	var rec QuoteRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT * FROM quote_requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote request %d: %w", id, err)
	}
	return &rec, nil
}

func (s *PostgresStorage) ListRecentQuoteRequests(ctx context.Context, limit int) ([]QuoteRecord, error) {
	var recs []QuoteRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT * FROM quote_requests ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote requests: %w", err)
	}
	return recs, nil
}

func (s *PostgresStorage) UpdateQuoteStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE quote_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("quote request %d not found", id)
	}
	return nil
}

func (s *PostgresStorage) DB() *sqlx.DB {
	return s.db
}

func (s *PostgresStorage) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close PostgreSQL connection", zap.Error(err))
	}
}
