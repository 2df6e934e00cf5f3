package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

func TestEquipmentCRUD(t *testing.T) {
	f := newFixture(enforced())
	ctx := context.Background()

	created, err := f.equipment.CreateEquipment(ctx, &CreateEquipmentRequest{Name: " Tablet ", TotalQuantity: 10, Category: "devices"})
	require.NoError(t, err)
	assert.Equal(t, "Tablet", created.Name)
	assert.Equal(t, Invalidates[MutationEquipmentCreate], f.cache.invalidated)

	list, err := f.equipment.ListEquipment(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := f.equipment.UpdateEquipment(ctx, created.ID, &UpdateEquipmentRequest{TotalQuantity: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TotalQuantity)
	assert.Equal(t, "devices", updated.Category)

	// catalog view was dropped by the update
	list, err = f.equipment.ListEquipment(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, list[0].TotalQuantity)

	require.NoError(t, f.equipment.DeleteEquipment(ctx, created.ID))
	_, err = f.equipment.GetEquipment(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrEquipmentNotFound)
}

func TestEquipmentValidation(t *testing.T) {
	f := newFixture(enforced())
	ctx := context.Background()

	_, err := f.equipment.CreateEquipment(ctx, &CreateEquipmentRequest{Name: "", TotalQuantity: -1, Category: " "})
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "total_quantity")
	assert.Contains(t, verr.Fields, "category")

	e := f.store.addEquipment("Notebook", 3)
	_, err = f.equipment.UpdateEquipment(ctx, e.ID, &UpdateEquipmentRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestDeleteEquipmentInUse(t *testing.T) {
	f := newFixture(enforced())
	notebook := f.store.addEquipment("Notebook", 5)
	f.store.addBooking("2025-03-01", "09:00", "10:00", entity.BookingStatusExpired, alloc(notebook, 1))

	err := f.equipment.DeleteEquipment(context.Background(), notebook.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEquipmentInUse)
	assert.NotErrorIs(t, err, entity.ErrEquipmentNotFound)
	assert.Contains(t, f.store.equipment, notebook.ID)
	assert.Empty(t, f.cache.invalidated)
}

func TestHelpContent(t *testing.T) {
	f := newFixture(enforced())
	ctx := context.Background()

	help, err := f.help.GetHelp(ctx)
	require.NoError(t, err)
	assert.Nil(t, help.HelpText)
	assert.Nil(t, help.EmbedURL)

	help, err = f.help.UpdateHelp(ctx, &UpdateHelpRequest{
		HelpText:     ptr("Reserve com antecedência."),
		HelpVideoURL: ptr("https://youtu.be/abc123"),
	})
	require.NoError(t, err)
	require.NotNil(t, help.EmbedURL)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", *help.EmbedURL)
	assert.Equal(t, []entity.View{entity.ViewHelp}, f.cache.invalidated)

	help, err = f.help.GetHelp(ctx)
	require.NoError(t, err)
	require.NotNil(t, help.HelpText)
	assert.Equal(t, "Reserve com antecedência.", *help.HelpText)

	_, err = f.help.UpdateHelp(ctx, &UpdateHelpRequest{HelpVideoURL: ptr("ftp://example.com/video")})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	help, err = f.help.UpdateHelp(ctx, &UpdateHelpRequest{HelpText: ptr(""), HelpVideoURL: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, help.HelpText)
	assert.Nil(t, help.HelpVideoURL)
}
