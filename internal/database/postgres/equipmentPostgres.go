package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

type equipmentRepository struct {
	db querier
}

func NewEquipmentRepository(db *sql.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, equipment *entity.Equipment) error {
	if equipment.ID == "" {
		equipment.ID = uuid.NewString()
	}

	query := `
		INSERT INTO equipment (id, name, total_quantity, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		equipment.ID,
		equipment.Name,
		equipment.TotalQuantity,
		equipment.Category,
		now,
		now,
	).Scan(&equipment.CreatedAt, &equipment.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrWriteNotConfirmed
	}
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", mapPQError(err))
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrEquipmentNotFound
	}

	query := `
		SELECT id, name, total_quantity, category, created_at, updated_at
		FROM equipment
		WHERE id = $1
	`

	var equipment entity.Equipment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.TotalQuantity,
		&equipment.Category,
		&equipment.CreatedAt,
		&equipment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrEquipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment: %w", mapPQError(err))
	}

	return &equipment, nil
}

// GetAll returns the whole catalog ordered by name.
func (r *equipmentRepository) GetAll(ctx context.Context) ([]*entity.Equipment, error) {
	query := `
		SELECT id, name, total_quantity, category, created_at, updated_at
		FROM equipment
		ORDER BY name ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment: %w", err)
	}
	defer rows.Close()

	equipment := make([]*entity.Equipment, 0)
	for rows.Next() {
		var item entity.Equipment
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.TotalQuantity,
			&item.Category,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		equipment = append(equipment, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equipment: %w", err)
	}

	return equipment, nil
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *entity.Equipment) error {
	if _, err := uuid.Parse(equipment.ID); err != nil {
		return entity.ErrEquipmentNotFound
	}

	query := `
		UPDATE equipment
		SET name = $1, total_quantity = $2, category = $3, updated_at = $4
		WHERE id = $5
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		equipment.Name,
		equipment.TotalQuantity,
		equipment.Category,
		now,
		equipment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update equipment: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEquipmentNotFound
	}

	equipment.UpdatedAt = now
	return nil
}

// Delete fails with ErrEquipmentInUse while any allocation still references the item.
func (r *equipmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return entity.ErrEquipmentNotFound
	}

	query := `DELETE FROM equipment WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", mapPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEquipmentNotFound
	}

	return nil
}
