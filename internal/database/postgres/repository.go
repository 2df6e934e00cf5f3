package repository

import (
	"context"
	"database/sql"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type EquipmentRepository interface {
	Create(ctx context.Context, equipment *entity.Equipment) error
	GetByID(ctx context.Context, id string) (*entity.Equipment, error)
	GetAll(ctx context.Context) ([]*entity.Equipment, error)
	Update(ctx context.Context, equipment *entity.Equipment) error
	Delete(ctx context.Context, id string) error
}

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	GetWithLock(ctx context.Context, id string) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error)

	// Allocation operations
	InsertAllocations(ctx context.Context, bookingID string, items []entity.BookingEquipment) error
	DeleteAllocations(ctx context.Context, bookingID string) error

	// Availability queries
	ActiveAllocationsOverlapping(ctx context.Context, date string, start, end entity.ClockTime, excludeBookingID string) ([]entity.Allocation, error)
	ActiveAllocationsAt(ctx context.Context, date string, at entity.ClockTime) ([]entity.Allocation, error)

	// Expiration operations
	ExpireStale(ctx context.Context, date string, now entity.ClockTime) (int64, error)

	// Statistical operations
	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	EquipmentTotals(ctx context.Context) ([]entity.EquipmentCount, error)

	// Locking operations for concurrency control
	LockDate(ctx context.Context, date string) error
}

type SettingsRepository interface {
	GetHelp(ctx context.Context) (*entity.HelpContent, error)
	UpsertHelp(ctx context.Context, help *entity.HelpContent) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Equipment EquipmentRepository
	Bookings  BookingRepository
	Settings  SettingsRepository
}

func NewRepositories(db *sql.DB) Repositories {
	return newRepositories(db)
}

func newRepositories(q querier) Repositories {
	return Repositories{
		Equipment: &equipmentRepository{db: q},
		Bookings:  &bookingRepository{db: q},
		Settings:  &settingsRepository{db: q},
	}
}

// Transactor runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
