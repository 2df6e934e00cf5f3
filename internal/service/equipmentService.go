package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
	cache         ViewCache
}

func NewEquipmentService(equipmentRepo repository.EquipmentRepository, cache ViewCache) EquipmentService {
	return &equipmentService{
		equipmentRepo: equipmentRepo,
		cache:         cache,
	}
}

func (s *equipmentService) ListEquipment(ctx context.Context) ([]*entity.Equipment, error) {
	return readThrough(ctx, s.cache, entity.ViewCatalog, "all", func(ctx context.Context) ([]*entity.Equipment, error) {
		equipment, err := s.equipmentRepo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list equipment: %w", err)
		}
		return equipment, nil
	})
}

func (s *equipmentService) GetEquipment(ctx context.Context, id string) (*entity.Equipment, error) {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment %s: %w", id, err)
	}
	return equipment, nil
}

func (s *equipmentService) CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*entity.Equipment, error) {
	verr := validateStruct(req)
	if blank(req.Name) {
		verr.Add("name", "is required")
	}
	if blank(req.Category) {
		verr.Add("category", "is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	equipment := &entity.Equipment{
		Name:          strings.TrimSpace(req.Name),
		TotalQuantity: req.TotalQuantity,
		Category:      strings.TrimSpace(req.Category),
	}

	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"equipment_id": equipment.ID,
		"name":         equipment.Name,
		"total":        equipment.TotalQuantity,
	}).Info("Equipment created")

	invalidate(ctx, s.cache, MutationEquipmentCreate)
	return equipment, nil
}

func (s *equipmentService) UpdateEquipment(ctx context.Context, id string, req *UpdateEquipmentRequest) (*entity.Equipment, error) {
	verr := validateStruct(req)
	if req.Name != nil && blank(*req.Name) {
		verr.Add("name", "must not be empty")
	}
	if req.Category != nil && blank(*req.Category) {
		verr.Add("category", "must not be empty")
	}
	if !verr.Empty() {
		return nil, verr
	}

	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment %s: %w", id, err)
	}

	if req.Name != nil {
		equipment.Name = strings.TrimSpace(*req.Name)
	}
	if req.TotalQuantity != nil {
		equipment.TotalQuantity = *req.TotalQuantity
	}
	if req.Category != nil {
		equipment.Category = strings.TrimSpace(*req.Category)
	}

	if err := s.equipmentRepo.Update(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to update equipment %s: %w", id, err)
	}

	invalidate(ctx, s.cache, MutationEquipmentUpdate)
	return equipment, nil
}

// DeleteEquipment fails with ErrEquipmentInUse while bookings reference the item.
func (s *equipmentService) DeleteEquipment(ctx context.Context, id string) error {
	if err := s.equipmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete equipment %s: %w", id, err)
	}

	logrus.WithField("equipment_id", id).Info("Equipment deleted")

	invalidate(ctx, s.cache, MutationEquipmentDelete)
	return nil
}
