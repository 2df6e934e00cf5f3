package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pqForeignKeyViolation   = "23503"
	pqCheckViolation        = "23514"
	pqInsufficientPrivilege = "42501"
	pqInvalidTextRepr       = "22P02"
)

// mapPQError turns driver errors with a known SQLSTATE into typed domain errors,
// keeping the original error in the chain.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %w", entity.ErrEquipmentInUse, err)
	case pqInsufficientPrivilege:
		return fmt.Errorf("%w: %w", entity.ErrPermissionDenied, err)
	case pqCheckViolation, pqInvalidTextRepr:
		return fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}
	return err
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
