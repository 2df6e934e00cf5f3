package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"foreign key", &pq.Error{Code: "23503", Message: "violates foreign key constraint"}, entity.ErrEquipmentInUse},
		{"insufficient privilege", &pq.Error{Code: "42501", Message: "new row violates row-level security policy"}, entity.ErrPermissionDenied},
		{"check violation", &pq.Error{Code: "23514", Message: "violates check constraint"}, entity.ErrInvalidInput},
		{"wrapped foreign key", fmt.Errorf("exec: %w", &pq.Error{Code: "23503"}), entity.ErrEquipmentInUse},
		{"invalid text representation", &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"}, entity.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPQError(tt.err)
			assert.ErrorIs(t, got, tt.want)

			var pqErr *pq.Error
			assert.True(t, errors.As(got, &pqErr), "driver error stays in the chain")
		})
	}
}

func TestMapPQErrorPassThrough(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	assert.Same(t, unique, mapPQError(unique))
	assert.Equal(t, sql.ErrConnDone, mapPQError(sql.ErrConnDone))
}

func TestHasPQCode(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: pqForeignKeyViolation})
	assert.True(t, hasPQCode(err, pqForeignKeyViolation))
	assert.False(t, hasPQCode(err, pqCheckViolation))
	assert.False(t, hasPQCode(errors.New("plain"), pqForeignKeyViolation))
}
