package service

import (
	"context"
	"fmt"
	"sort"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

const mostRequestedLimit = 5

type dashboardService struct {
	bookingRepo repository.BookingRepository
	cache       ViewCache
}

func NewDashboardService(bookingRepo repository.BookingRepository, cache ViewCache) DashboardService {
	return &dashboardService{
		bookingRepo: bookingRepo,
		cache:       cache,
	}
}

// Stats собирает сводку для панели администратора.
// ExpiredBookings = всего - активные, поэтому отменённые тоже попадают туда.
func (s *dashboardService) Stats(ctx context.Context) (*entity.DashboardStats, error) {
	return readThrough(ctx, s.cache, entity.ViewStats, "dashboard", s.load)
}

func (s *dashboardService) load(ctx context.Context) (*entity.DashboardStats, error) {
	total, err := s.bookingRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	active, err := s.bookingRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active bookings: %w", err)
	}

	totals, err := s.bookingRepo.EquipmentTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment totals: %w", err)
	}

	return &entity.DashboardStats{
		TotalBookings:          total,
		ActiveBookings:         active,
		ExpiredBookings:        total - active,
		MostRequestedEquipment: TopRequested(totals, mostRequestedLimit),
	}, nil
}

// TopRequested orders by count descending, ties by name, and keeps the first limit.
func TopRequested(totals []entity.EquipmentCount, limit int) []entity.EquipmentCount {
	sorted := make([]entity.EquipmentCount, len(totals))
	copy(sorted, totals)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
