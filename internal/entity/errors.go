package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Equipment errors
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrEquipmentInUse    = errors.New("equipment is referenced by bookings")

	// Booking errors
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInsufficientEquipment = errors.New("not enough equipment available")
	ErrInvalidTransition     = errors.New("invalid booking status transition")

	// Store errors
	ErrWriteNotConfirmed = errors.New("insert accepted but yielded no confirmation")
	ErrPermissionDenied  = errors.New("permission denied by the database")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError collects field level problems found before any store call.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Shortage describes one allocation that exceeds what is left for the window.
type Shortage struct {
	EquipmentID string `json:"equipment_id"`
	Name        string `json:"name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

type AvailabilityError struct {
	Shortages []Shortage
}

func (e *AvailabilityError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s: requested %d, available %d", s.Name, s.Requested, s.Available))
	}
	return ErrInsufficientEquipment.Error() + ": " + strings.Join(parts, "; ")
}

func (e *AvailabilityError) Unwrap() error {
	return ErrInsufficientEquipment
}
