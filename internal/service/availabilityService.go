package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

type availabilityService struct {
	equipmentRepo repository.EquipmentRepository
	bookingRepo   repository.BookingRepository
	cache         ViewCache
	clock         Clock
	location      *time.Location
}

func NewAvailabilityService(
	equipmentRepo repository.EquipmentRepository,
	bookingRepo repository.BookingRepository,
	cache ViewCache,
	clock Clock,
	location *time.Location,
) AvailabilityService {
	return &availabilityService{
		equipmentRepo: equipmentRepo,
		bookingRepo:   bookingRepo,
		cache:         cache,
		clock:         clock,
		location:      location,
	}
}

// AvailableEquipment возвращает остаток каждой позиции каталога для окна
func (s *availabilityService) AvailableEquipment(ctx context.Context, query AvailabilityQuery) ([]entity.EquipmentAvailability, error) {
	verr := validateStruct(&query)
	start, end := parseWindow(verr, "date", query.Date, query.StartTime, query.EndTime)
	if !verr.Empty() {
		return nil, verr
	}

	key := fmt.Sprintf("%s|%s|%s|%s", query.Date, start, end, query.ExcludeBookingID)
	return readThrough(ctx, s.cache, entity.ViewAvailability, key, func(ctx context.Context) ([]entity.EquipmentAvailability, error) {
		return availableFor(ctx, s.equipmentRepo, s.bookingRepo, query.Date, start, end, query.ExcludeBookingID)
	})
}

// availableFor runs the resolver against the given repositories, which may be
// bound to a transaction.
func availableFor(
	ctx context.Context,
	equipmentRepo repository.EquipmentRepository,
	bookingRepo repository.BookingRepository,
	date string,
	start, end entity.ClockTime,
	excludeBookingID string,
) ([]entity.EquipmentAvailability, error) {
	catalog, err := equipmentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	usage, err := bookingRepo.ActiveAllocationsOverlapping(ctx, date, start, end, excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overlapping allocations: %w", err)
	}

	return ResolveAvailability(catalog, usage), nil
}

// ResolveAvailability subtracts the summed usage of each equipment item from its
// total, never going below zero. Output follows catalog order.
func ResolveAvailability(catalog []*entity.Equipment, usage []entity.Allocation) []entity.EquipmentAvailability {
	used := sumByEquipment(usage)

	result := make([]entity.EquipmentAvailability, 0, len(catalog))
	for _, item := range catalog {
		available := item.TotalQuantity - used[item.ID]
		if available < 0 {
			available = 0
		}
		result = append(result, entity.EquipmentAvailability{
			Equipment:         *item,
			AvailableQuantity: available,
		})
	}
	return result
}

func sumByEquipment(allocations []entity.Allocation) map[string]int {
	used := make(map[string]int)
	for _, a := range allocations {
		used[a.EquipmentID] += a.Quantity
	}
	return used
}

// FindShortages compares requested allocations with what is left. Unknown equipment
// ids are reported as ErrEquipmentNotFound.
func FindShortages(available []entity.EquipmentAvailability, requested []entity.BookingEquipment) ([]entity.Shortage, error) {
	byID := make(map[string]entity.EquipmentAvailability, len(available))
	for _, a := range available {
		byID[a.ID] = a
	}

	var shortages []entity.Shortage
	for _, req := range requested {
		a, ok := byID[req.EquipmentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrEquipmentNotFound, req.EquipmentID)
		}
		if req.Quantity > a.AvailableQuantity {
			shortages = append(shortages, entity.Shortage{
				EquipmentID: a.ID,
				Name:        a.Name,
				Requested:   req.Quantity,
				Available:   a.AvailableQuantity,
			})
		}
	}
	return shortages, nil
}

// CurrentUsage reports, for every catalog item, the units held right now by
// active bookings running today.
func (s *availabilityService) CurrentUsage(ctx context.Context) ([]entity.EquipmentUsage, error) {
	date, now := entity.Moment(s.clock.Now(), s.location)

	catalog, err := s.equipmentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	allocations, err := s.bookingRepo.ActiveAllocationsAt(ctx, date, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load current allocations: %w", err)
	}

	return ResolveUsage(catalog, allocations), nil
}

func ResolveUsage(catalog []*entity.Equipment, allocations []entity.Allocation) []entity.EquipmentUsage {
	used := sumByEquipment(allocations)

	result := make([]entity.EquipmentUsage, 0, len(catalog))
	for _, item := range catalog {
		inUse := used[item.ID]
		available := item.TotalQuantity - inUse
		if available < 0 {
			available = 0
		}

		var percent float64
		if item.TotalQuantity > 0 {
			percent = float64(inUse) / float64(item.TotalQuantity) * 100
			if percent > 100 {
				percent = 100
			}
		}

		result = append(result, entity.EquipmentUsage{
			Equipment:    *item,
			InUse:        inUse,
			Available:    available,
			UsagePercent: percent,
		})
	}
	return result
}
