package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

const (
	EventBookingCreated  = "booking.created"
	EventBookingUpdated  = "booking.updated"
	EventBookingDeleted  = "booking.deleted"
	EventBookingsExpired = "bookings.expired"
)

const publishTimeout = 5 * time.Second

// BookingEvent is published after a booking change has been committed.
type BookingEvent struct {
	ID          string               `json:"id"`
	Type        string               `json:"type"`
	BookingID   string               `json:"booking_id,omitempty"`
	Status      entity.BookingStatus `json:"status,omitempty"`
	BookingDate string               `json:"booking_date,omitempty"`
	StartTime   entity.ClockTime     `json:"start_time,omitempty"`
	EndTime     entity.ClockTime     `json:"end_time,omitempty"`
	Count       int64                `json:"count,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func newBookingEvent(eventType string, b *entity.Booking, at time.Time) BookingEvent {
	event := BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at,
	}
	if b != nil {
		event.BookingID = b.ID
		event.Status = b.Status
		event.BookingDate = b.BookingDate
		event.StartTime = b.StartTime
		event.EndTime = b.EndTime
	}
	return event
}

// publish sends the event without failing the caller; errors are logged.
func publish(ctx context.Context, events EventPublisher, event BookingEvent) {
	if events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	key := event.BookingID
	if key == "" {
		key = event.Type
	}

	if err := events.Publish(ctx, key, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_type": event.Type,
			"booking_id": event.BookingID,
			"error":      err,
		}).Error("Failed to publish booking event")
	}
}

func bookingCreatedMessage(b *entity.Booking) string {
	items := make([]string, 0, len(b.Equipment))
	for _, eq := range b.Equipment {
		name := eq.EquipmentName
		if name == "" {
			name = eq.EquipmentID
		}
		items = append(items, fmt.Sprintf("%s x%d", name, eq.Quantity))
	}

	return fmt.Sprintf("Novo agendamento\n%s, sala %s\n%s %s-%s\n%s",
		b.FullName, b.Classroom, b.BookingDate, b.StartTime, b.EndTime, strings.Join(items, ", "))
}
