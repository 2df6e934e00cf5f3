package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

type Mutation string

const (
	MutationEquipmentCreate Mutation = "equipment.create"
	MutationEquipmentUpdate Mutation = "equipment.update"
	MutationEquipmentDelete Mutation = "equipment.delete"
	MutationBookingCreate   Mutation = "booking.create"
	MutationBookingUpdate   Mutation = "booking.update"
	MutationBookingDelete   Mutation = "booking.delete"
	MutationBookingSweep    Mutation = "booking.sweep"
	MutationHelpUpdate      Mutation = "help.update"
)

var bookingViews = []entity.View{
	entity.ViewBookings,
	entity.ViewAvailability,
	entity.ViewUsage,
	entity.ViewStats,
}

// Invalidates lists, per mutation, the derived views it makes stale.
var Invalidates = map[Mutation][]entity.View{
	MutationEquipmentCreate: {entity.ViewCatalog, entity.ViewAvailability, entity.ViewUsage},
	MutationEquipmentUpdate: {entity.ViewCatalog, entity.ViewAvailability, entity.ViewUsage, entity.ViewStats},
	MutationEquipmentDelete: {entity.ViewCatalog, entity.ViewAvailability, entity.ViewUsage, entity.ViewStats},
	MutationBookingCreate:   bookingViews,
	MutationBookingUpdate:   bookingViews,
	MutationBookingDelete:   bookingViews,
	MutationBookingSweep:    bookingViews,
	MutationHelpUpdate:      {entity.ViewHelp},
}

// invalidate drops the views touched by m. Cache failures are logged only.
func invalidate(ctx context.Context, cache ViewCache, m Mutation) {
	views := Invalidates[m]
	if len(views) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, views...); err != nil {
		logrus.WithFields(logrus.Fields{
			"mutation": m,
			"views":    views,
			"error":    err,
		}).Warn("Failed to invalidate cached views")
	}
}

// readThrough serves view/key from the cache, loading and storing it on a miss.
func readThrough[T any](ctx context.Context, cache ViewCache, view entity.View, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	found, token, err := cache.Get(ctx, view, key, &cached)
	if err != nil {
		logrus.WithFields(logrus.Fields{"view": view, "error": err}).Warn("Failed to read cached view")
	}
	if found {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil || token == "" {
		return value, err
	}

	if err := cache.Set(ctx, token, value); err != nil {
		logrus.WithFields(logrus.Fields{"view": view, "error": err}).Warn("Failed to cache view")
	}
	return value, nil
}

type noopViewCache struct{}

// NewNoopViewCache returns a cache that never stores anything.
func NewNoopViewCache() ViewCache {
	return noopViewCache{}
}

func (noopViewCache) Get(ctx context.Context, view entity.View, key string, dest interface{}) (bool, string, error) {
	return false, "", nil
}

func (noopViewCache) Set(ctx context.Context, token string, value interface{}) error {
	return nil
}

func (noopViewCache) Invalidate(ctx context.Context, views ...entity.View) error {
	return nil
}
