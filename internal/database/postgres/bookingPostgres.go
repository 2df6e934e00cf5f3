package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

const bookingColumns = `
	b.id, b.full_name, b.classroom, to_char(b.booking_date, 'YYYY-MM-DD'),
	b.start_time, b.end_time, b.status, b.created_at, b.updated_at`

const activeStatusClause = `b.status IN ('pending', 'confirmed')`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type bookingRepository struct {
	db querier
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.FullName,
		&booking.Classroom,
		&booking.BookingDate,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.Equipment = make([]entity.BookingEquipment, 0)
	return &booking, nil
}

// Create inserts the booking row only; allocations go through InsertAllocations.
// A write the store accepts without returning the row is reported as ErrWriteNotConfirmed.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}

	query := `
		INSERT INTO bookings (
			id, full_name, classroom, booking_date, start_time, end_time,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		booking.ID,
		booking.FullName,
		booking.Classroom,
		booking.BookingDate,
		string(booking.StartTime),
		string(booking.EndTime),
		string(booking.Status),
		now,
		now,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrWriteNotConfirmed
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", mapPQError(err))
	}

	return nil
}

// GetByID retrieves a booking together with its allocations
func (r *bookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	return r.getOne(ctx, id, false)
}

// GetWithLock retrieves a booking with a lock for update
func (r *bookingRepository) GetWithLock(ctx context.Context, id string) (*entity.Booking, error) {
	return r.getOne(ctx, id, true)
}

func (r *bookingRepository) getOne(ctx context.Context, id string, lock bool) (*entity.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrBookingNotFound
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if err := r.attachAllocations(ctx, []*entity.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

// List returns bookings with their allocations. A date filter orders by start time,
// otherwise the newest bookings come first.
func (r *bookingRepository) List(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("b.booking_date = $%d::date", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	if filter.Date != "" {
		query += ` ORDER BY b.start_time ASC, b.created_at ASC`
	} else {
		query += ` ORDER BY b.created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*entity.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	if err := r.attachAllocations(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// attachAllocations loads allocation rows with equipment names for all given bookings
// in one query.
func (r *bookingRepository) attachAllocations(ctx context.Context, bookings []*entity.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, 0, len(bookings))
	byID := make(map[string]*entity.Booking, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}

	query := `
		SELECT be.id, be.booking_id, be.equipment_id, e.name, be.quantity
		FROM booking_equipment be
		JOIN equipment e ON e.id = be.equipment_id
		WHERE be.booking_id::text = ANY($1)
		ORDER BY be.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query booking equipment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.BookingEquipment
		if err := rows.Scan(&item.ID, &item.BookingID, &item.EquipmentID, &item.EquipmentName, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan booking equipment: %w", err)
		}
		if b, ok := byID[item.BookingID]; ok {
			b.Equipment = append(b.Equipment, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating booking equipment: %w", err)
	}
	return nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET full_name = $1, classroom = $2, booking_date = $3::date,
		    start_time = $4, end_time = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		booking.FullName,
		booking.Classroom,
		booking.BookingDate,
		string(booking.StartTime),
		string(booking.EndTime),
		string(booking.Status),
		now,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	booking.UpdatedAt = now
	return nil
}

// Delete removes the booking; booking_equipment rows cascade.
func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return entity.ErrBookingNotFound
	}

	query := `DELETE FROM bookings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

// InsertAllocations writes all allocation rows of a booking in a single statement,
// keeping their order in the position column.
func (r *bookingRepository) InsertAllocations(ctx context.Context, bookingID string, items []entity.BookingEquipment) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if _, err := uuid.Parse(item.EquipmentID); err != nil {
			return fmt.Errorf("failed to insert booking equipment: %w", entity.ErrEquipmentNotFound)
		}
	}

	// Build the query with placeholders
	query := `INSERT INTO booking_equipment (id, booking_id, equipment_id, quantity, position) VALUES `
	args := make([]interface{}, 0, len(items)*5)

	for i, item := range items {
		if i > 0 {
			query += ","
		}
		n := len(args)
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, uuid.NewString(), bookingID, item.EquipmentID, item.Quantity, i)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("failed to insert booking equipment: %w", entity.ErrEquipmentNotFound)
		}
		return fmt.Errorf("failed to insert booking equipment: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != int64(len(items)) {
		return fmt.Errorf("expected to insert %d allocations, but inserted %d: %w",
			len(items), rowsAffected, entity.ErrWriteNotConfirmed)
	}

	return nil
}

func (r *bookingRepository) DeleteAllocations(ctx context.Context, bookingID string) error {
	query := `DELETE FROM booking_equipment WHERE booking_id = $1`
	if _, err := r.db.ExecContext(ctx, query, bookingID); err != nil {
		return fmt.Errorf("failed to delete booking equipment: %w", mapPQError(err))
	}
	return nil
}

// ActiveAllocationsOverlapping returns allocations of active bookings on date whose
// window intersects [start, end). Touching windows are not included.
func (r *bookingRepository) ActiveAllocationsOverlapping(ctx context.Context, date string, start, end entity.ClockTime, excludeBookingID string) ([]entity.Allocation, error) {
	query := `
		SELECT be.booking_id, be.equipment_id, be.quantity
		FROM booking_equipment be
		JOIN bookings b ON b.id = be.booking_id
		WHERE b.booking_date = $1::date
		  AND ` + activeStatusClause + `
		  AND b.start_time < $3
		  AND b.end_time > $2
	`
	args := []interface{}{date, string(start), string(end)}

	if excludeBookingID != "" {
		query += ` AND b.id::text <> $4`
		args = append(args, excludeBookingID)
	}

	return r.queryAllocations(ctx, query, args...)
}

// ActiveAllocationsAt returns allocations of active bookings running at the given
// moment: start <= at < end.
func (r *bookingRepository) ActiveAllocationsAt(ctx context.Context, date string, at entity.ClockTime) ([]entity.Allocation, error) {
	query := `
		SELECT be.booking_id, be.equipment_id, be.quantity
		FROM booking_equipment be
		JOIN bookings b ON b.id = be.booking_id
		WHERE b.booking_date = $1::date
		  AND ` + activeStatusClause + `
		  AND b.start_time <= $2
		  AND b.end_time > $2
	`
	return r.queryAllocations(ctx, query, date, string(at))
}

func (r *bookingRepository) queryAllocations(ctx context.Context, query string, args ...interface{}) ([]entity.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	allocations := make([]entity.Allocation, 0)
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.BookingID, &a.EquipmentID, &a.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}
	return allocations, nil
}

// ExpireStale marks every active booking that ended before (date, now) as expired
// in one statement and returns how many rows changed.
func (r *bookingRepository) ExpireStale(ctx context.Context, date string, now entity.ClockTime) (int64, error) {
	query := `
		UPDATE bookings b
		SET status = 'expired', updated_at = $3
		WHERE ` + activeStatusClause + `
		  AND (b.booking_date < $1::date OR (b.booking_date = $1::date AND b.end_time < $2))
	`

	result, err := r.db.ExecContext(ctx, query, date, string(now), time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire bookings: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *bookingRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *bookingRepository) CountActive(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings b WHERE ` + activeStatusClause
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// EquipmentTotals sums allocated quantities per equipment name over all bookings,
// whatever their status. Items sharing a name are counted as one entry.
func (r *bookingRepository) EquipmentTotals(ctx context.Context) ([]entity.EquipmentCount, error) {
	query := `
		SELECT e.name, COALESCE(SUM(be.quantity), 0)
		FROM booking_equipment be
		JOIN equipment e ON e.id = be.equipment_id
		GROUP BY e.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment totals: %w", err)
	}
	defer rows.Close()

	totals := make([]entity.EquipmentCount, 0)
	for rows.Next() {
		var c entity.EquipmentCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan equipment total: %w", err)
		}
		totals = append(totals, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equipment totals: %w", err)
	}
	return totals, nil
}

// LockDate serializes writers that book the same date until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (r *bookingRepository) LockDate(ctx context.Context, date string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "booking:"+date); err != nil {
		return fmt.Errorf("failed to lock booking date: %w", err)
	}
	return nil
}
