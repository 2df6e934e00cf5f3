package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// BookingOptions tune write-time checks and read behavior.
type BookingOptions struct {
	// EnforceAvailability re-checks remaining quantities inside the write
	// transaction, under a per-date lock.
	EnforceAvailability bool
	// SweepOnRead expires stale bookings before listing.
	SweepOnRead bool
	Location    *time.Location
}

type bookingService struct {
	tx          repository.Transactor
	bookingRepo repository.BookingRepository
	cache       ViewCache
	events      EventPublisher
	notifier    AdminNotifier
	clock       Clock
	opts        BookingOptions
}

// NewBookingService создает новый экземпляр BookingService
func NewBookingService(
	tx repository.Transactor,
	bookingRepo repository.BookingRepository,
	cache ViewCache,
	events EventPublisher,
	notifier AdminNotifier,
	clock Clock,
	opts BookingOptions,
) BookingService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &bookingService{
		tx:          tx,
		bookingRepo: bookingRepo,
		cache:       cache,
		events:      events,
		notifier:    notifier,
		clock:       clock,
		opts:        opts,
	}
}

// CreateBooking создает бронирование в статусе pending вместе с оборудованием.
// Строка бронирования и строки оборудования записываются в одной транзакции.
func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error) {
	verr := validateStruct(req)
	if blank(req.FullName) {
		verr.Add("full_name", "is required")
	}
	if blank(req.Classroom) {
		verr.Add("classroom", "is required")
	}
	start, end := parseWindow(verr, "booking_date", req.BookingDate, req.StartTime, req.EndTime)
	allocations := parseAllocations(verr, req.Equipment, false)

	today, _ := entity.Moment(s.clock.Now(), s.opts.Location)
	if _, err := entity.ParseDate(req.BookingDate); err == nil && req.BookingDate < today {
		verr.Add("booking_date", "must not be before today")
	}
	if !verr.Empty() {
		return nil, verr
	}

	booking := &entity.Booking{
		FullName:    strings.TrimSpace(req.FullName),
		Classroom:   strings.TrimSpace(req.Classroom),
		BookingDate: req.BookingDate,
		StartTime:   start,
		EndTime:     end,
		Status:      entity.BookingStatusPending,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if s.opts.EnforceAvailability {
			if err := s.checkAvailability(ctx, repos, booking, "", allocations); err != nil {
				return err
			}
		}

		if err := repos.Bookings.Create(ctx, booking); err != nil {
			return err
		}

		// При ошибке вставки оборудования откат транзакции удаляет и само бронирование
		if err := repos.Bookings.InsertAllocations(ctx, booking.ID, allocations); err != nil {
			return err
		}

		created, err := repos.Bookings.GetByID(ctx, booking.ID)
		if err != nil {
			return err
		}
		booking = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"date":       booking.BookingDate,
		"start":      booking.StartTime,
		"end":        booking.EndTime,
		"items":      len(booking.Equipment),
	}).Info("Booking created")

	invalidate(ctx, s.cache, MutationBookingCreate)
	publish(ctx, s.events, newBookingEvent(EventBookingCreated, booking, s.clock.Now()))

	// Отправка уведомления через Telegram
	if s.notifier != nil {
		go s.sendBookingCreatedNotification(booking)
	}

	return booking, nil
}

func (s *bookingService) sendBookingCreatedNotification(booking *entity.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.notifier.NotifyAdmins(ctx, bookingCreatedMessage(booking)); err != nil {
		logrus.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"error":      err,
		}).Warn("Failed to notify administrators")
	}
}

// checkAvailability locks the booking date and verifies that every allocation fits in
// what other active bookings leave free in the window.
func (s *bookingService) checkAvailability(
	ctx context.Context,
	repos repository.Repositories,
	booking *entity.Booking,
	excludeBookingID string,
	allocations []entity.BookingEquipment,
) error {
	if err := repos.Bookings.LockDate(ctx, booking.BookingDate); err != nil {
		return err
	}

	available, err := availableFor(ctx, repos.Equipment, repos.Bookings,
		booking.BookingDate, booking.StartTime, booking.EndTime, excludeBookingID)
	if err != nil {
		return err
	}

	shortages, err := FindShortages(available, allocations)
	if err != nil {
		return err
	}
	if len(shortages) > 0 {
		return &entity.AvailabilityError{Shortages: shortages}
	}
	return nil
}

// UpdateBooking applies field and status changes and, when equipment is given,
// replaces all allocations. Everything happens in one transaction.
func (s *bookingService) UpdateBooking(ctx context.Context, id string, req *UpdateBookingRequest) (*entity.Booking, error) {
	verr := validateStruct(req)

	var newStatus entity.BookingStatus
	if req.Status != nil {
		status, err := entity.ParseBookingStatus(*req.Status)
		if err != nil {
			verr.Add("status", "must be one of pending, confirmed, cancelled, expired")
		}
		newStatus = status
	}
	if req.FullName != nil && blank(*req.FullName) {
		verr.Add("full_name", "must not be empty")
	}
	if req.Classroom != nil && blank(*req.Classroom) {
		verr.Add("classroom", "must not be empty")
	}
	if req.BookingDate != nil {
		if _, err := entity.ParseDate(*req.BookingDate); err != nil {
			verr.Add("booking_date", "must be a date in YYYY-MM-DD format")
		}
	}

	var startTime, endTime entity.ClockTime
	if req.StartTime != nil {
		t, err := entity.ParseClockTime(*req.StartTime)
		if err != nil {
			verr.Add("start_time", "must be a time in HH:MM format")
		}
		startTime = t
	}
	if req.EndTime != nil {
		t, err := entity.ParseClockTime(*req.EndTime)
		if err != nil {
			verr.Add("end_time", "must be a time in HH:MM format")
		}
		endTime = t
	}

	var allocations []entity.BookingEquipment
	if req.Equipment != nil {
		allocations = parseAllocations(verr, req.Equipment, true)
	}
	if !verr.Empty() {
		return nil, verr
	}

	var updated *entity.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetWithLock(ctx, id)
		if err != nil {
			return err
		}

		merged := *current
		if req.FullName != nil {
			merged.FullName = strings.TrimSpace(*req.FullName)
		}
		if req.Classroom != nil {
			merged.Classroom = strings.TrimSpace(*req.Classroom)
		}
		if req.BookingDate != nil {
			merged.BookingDate = *req.BookingDate
		}
		if req.StartTime != nil {
			merged.StartTime = startTime
		}
		if req.EndTime != nil {
			merged.EndTime = endTime
		}
		if merged.StartTime >= merged.EndTime {
			verr := entity.NewValidationError()
			verr.Add("end_time", "must be after start_time")
			return verr
		}

		if req.Status != nil {
			// expired выставляется только при очистке устаревших бронирований
			if newStatus == entity.BookingStatusExpired && current.Status != entity.BookingStatusExpired {
				return fmt.Errorf("%w: bookings expire automatically", entity.ErrInvalidTransition)
			}
			status, err := entity.Transition(current.Status, newStatus)
			if err != nil {
				return err
			}
			merged.Status = status
		}

		items := current.Equipment
		if req.Equipment != nil {
			items = allocations
		}

		windowChanged := merged.BookingDate != current.BookingDate ||
			merged.StartTime != current.StartTime ||
			merged.EndTime != current.EndTime
		if s.opts.EnforceAvailability && merged.Status.IsActive() && (windowChanged || req.Equipment != nil) {
			if err := s.checkAvailability(ctx, repos, &merged, id, items); err != nil {
				return err
			}
		}

		if err := repos.Bookings.Update(ctx, &merged); err != nil {
			return err
		}

		if req.Equipment != nil {
			if err := repos.Bookings.DeleteAllocations(ctx, id); err != nil {
				return err
			}
			if err := repos.Bookings.InsertAllocations(ctx, id, allocations); err != nil {
				return err
			}
		}

		updated, err = repos.Bookings.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"status":     updated.Status,
	}).Info("Booking updated")

	invalidate(ctx, s.cache, MutationBookingUpdate)
	publish(ctx, s.events, newBookingEvent(EventBookingUpdated, updated, s.clock.Now()))

	return updated, nil
}

// DeleteBooking удаляет бронирование; оборудование удаляется каскадно
func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}

	logrus.WithField("booking_id", id).Info("Booking deleted")

	invalidate(ctx, s.cache, MutationBookingDelete)
	publish(ctx, s.events, newBookingEvent(EventBookingDeleted, &entity.Booking{ID: id}, s.clock.Now()))
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return booking, nil
}

// ListBookings возвращает бронирования с оборудованием, при необходимости
// предварительно помечая устаревшие как expired
func (s *bookingService) ListBookings(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	if filter.Date != "" {
		if _, err := entity.ParseDate(filter.Date); err != nil {
			verr := entity.NewValidationError()
			verr.Add("date", "must be a date in YYYY-MM-DD format")
			return nil, verr
		}
	}
	if filter.Status != "" {
		if _, err := entity.ParseBookingStatus(string(filter.Status)); err != nil {
			verr := entity.NewValidationError()
			verr.Add("status", "must be one of pending, confirmed, cancelled, expired")
			return nil, verr
		}
	}

	if s.opts.SweepOnRead {
		if _, err := s.SweepExpired(ctx, s.clock.Now()); err != nil {
			logrus.WithError(err).Warn("Sweep before listing failed")
		}
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// SweepExpired переводит все активные бронирования, закончившиеся до now, в expired.
// Повторный вызов с тем же или более поздним now ничего не откатывает.
func (s *bookingService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	date, clock := entity.Moment(now, s.opts.Location)

	count, err := s.bookingRepo.ExpireStale(ctx, date, clock)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired bookings: %w", err)
	}

	if count > 0 {
		logrus.WithFields(logrus.Fields{
			"count": count,
			"date":  date,
			"time":  clock,
		}).Info("Expired stale bookings")

		invalidate(ctx, s.cache, MutationBookingSweep)
		event := newBookingEvent(EventBookingsExpired, nil, now)
		event.Count = count
		publish(ctx, s.events, event)
	}

	return count, nil
}
