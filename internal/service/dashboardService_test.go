package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

func TestDashboardStatsCounts(t *testing.T) {
	f := newFixture(enforced())
	notebook := f.store.addEquipment("Notebook", 5)
	f.store.addBooking("2025-03-10", "09:00", "10:00", entity.BookingStatusPending, alloc(notebook, 1))
	f.store.addBooking("2025-03-10", "10:00", "11:00", entity.BookingStatusConfirmed, alloc(notebook, 1))
	f.store.addBooking("2025-03-10", "11:00", "12:00", entity.BookingStatusCancelled, alloc(notebook, 1))

	stats, err := f.dashboard.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.ActiveBookings)
	assert.Equal(t, int64(1), stats.ExpiredBookings)
	assert.Equal(t, []entity.EquipmentCount{{Name: "Notebook", Count: 3}}, stats.MostRequestedEquipment)
}

func TestDashboardMostRequestedCountsEveryStatus(t *testing.T) {
	f := newFixture(enforced())
	notebook := f.store.addEquipment("Notebook", 50)
	tablet := f.store.addEquipment("Tablet", 50)
	f.store.addBooking("2025-03-01", "09:00", "10:00", entity.BookingStatusExpired, alloc(tablet, 7))
	f.store.addBooking("2025-03-10", "09:00", "10:00", entity.BookingStatusPending, alloc(notebook, 4))

	stats, err := f.dashboard.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.MostRequestedEquipment, 2)
	assert.Equal(t, "Tablet", stats.MostRequestedEquipment[0].Name)
	assert.Equal(t, int64(7), stats.MostRequestedEquipment[0].Count)
}

func TestDashboardStatsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(enforced())
	ctx := context.Background()
	notebook := f.store.addEquipment("Notebook", 5)

	stats, err := f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalBookings)

	// direct store writes are invisible until a mutation invalidates the view
	f.store.addBooking("2025-03-10", "09:00", "10:00", entity.BookingStatusPending, alloc(notebook, 1))
	stats, err = f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalBookings)

	_, err = f.bookings.CreateBooking(ctx, createRequest(AllocationRequest{EquipmentID: notebook.ID, Quantity: 1}))
	require.NoError(t, err)

	stats, err = f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
}

func TestTopRequested(t *testing.T) {
	totals := []entity.EquipmentCount{
		{Name: "Speaker", Count: 2},
		{Name: "Tablet", Count: 9},
		{Name: "Microphone", Count: 4},
		{Name: "Notebook", Count: 9},
		{Name: "Projector", Count: 1},
		{Name: "Camera", Count: 4},
		{Name: "Cable", Count: 0},
	}

	top := TopRequested(totals, 5)
	names := make([]string, 0, len(top))
	for _, c := range top {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Notebook", "Tablet", "Camera", "Microphone", "Speaker"}, names)

	// input untouched
	assert.Equal(t, "Speaker", totals[0].Name)
	assert.Len(t, TopRequested(totals[:2], 5), 2)
	assert.Empty(t, TopRequested(nil, 5))
}
