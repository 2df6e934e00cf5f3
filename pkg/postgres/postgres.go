package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/config"
)

func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")
	return db, nil
}

// migrations are applied in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		total_quantity INTEGER NOT NULL CHECK (total_quantity >= 0),
		category VARCHAR(100) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		classroom VARCHAR(255) NOT NULL,
		booking_date DATE NOT NULL,
		start_time VARCHAR(5) NOT NULL,
		end_time VARCHAR(5) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'confirmed', 'cancelled', 'expired')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (start_time < end_time)
	)`,

	`CREATE TABLE IF NOT EXISTS booking_equipment (
		id UUID PRIMARY KEY,
		booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
		equipment_id UUID NOT NULL REFERENCES equipment(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS admin_settings (
		id INTEGER PRIMARY KEY,
		help_text TEXT,
		help_video_url TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_bookings_date_status ON bookings(booking_date, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_equipment_booking_id ON booking_equipment(booking_id)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_equipment_equipment_id ON booking_equipment(equipment_id)`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	logrus.WithField("count", len(migrations)).Info("Database migrations completed successfully")
	return nil
}
