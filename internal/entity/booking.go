package entity

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

// ActiveStatuses are the statuses that hold equipment.
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending:   {BookingStatusConfirmed: true, BookingStatusCancelled: true, BookingStatusExpired: true},
	BookingStatusConfirmed: {BookingStatusCancelled: true, BookingStatusExpired: true},
	BookingStatusCancelled: {},
	BookingStatusExpired:   {},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, s)
	}
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransition reports whether a booking in status s may move to status to.
// Writing the current status again is always allowed.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	if s == to {
		return true
	}
	return allowedTransitions[s][to]
}

// Transition validates the move from -> to and returns the resulting status.
func Transition(from, to BookingStatus) (BookingStatus, error) {
	if _, err := ParseBookingStatus(string(to)); err != nil {
		return from, err
	}
	if !from.CanTransition(to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

type Booking struct {
	ID          string             `json:"id" db:"id"`
	FullName    string             `json:"full_name" db:"full_name"`
	Classroom   string             `json:"classroom" db:"classroom"`
	BookingDate string             `json:"booking_date" db:"booking_date"`
	StartTime   ClockTime          `json:"start_time" db:"start_time"`
	EndTime     ClockTime          `json:"end_time" db:"end_time"`
	Status      BookingStatus      `json:"status" db:"status"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
	Equipment   []BookingEquipment `json:"equipment"`
}

// BookingEquipment is one allocation: how many units of one equipment item a booking holds.
type BookingEquipment struct {
	ID            string `json:"id" db:"id"`
	BookingID     string `json:"booking_id" db:"booking_id"`
	EquipmentID   string `json:"equipment_id" db:"equipment_id"`
	EquipmentName string `json:"equipment_name" db:"equipment_name"`
	Quantity      int    `json:"quantity" db:"quantity"`
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect. Touching windows
// (one ends exactly when the other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return aStart < bEnd && bStart < aEnd
}

func (b *Booking) OverlapsWindow(date string, start, end ClockTime) bool {
	return b.BookingDate == date && Overlaps(b.StartTime, b.EndTime, start, end)
}

// IsStale reports whether an active booking has already ended at the given moment.
func (b *Booking) IsStale(date string, now ClockTime) bool {
	if !b.Status.IsActive() {
		return false
	}
	return b.BookingDate < date || (b.BookingDate == date && b.EndTime < now)
}

// TotalQuantity sums the allocation quantities of the booking.
func (b *Booking) TotalQuantity() int {
	total := 0
	for _, eq := range b.Equipment {
		total += eq.Quantity
	}
	return total
}

// BookingFilter narrows a booking listing. Zero values mean "any".
type BookingFilter struct {
	Date   string
	Status BookingStatus
}
