package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// helpSettingsID is the id of the single admin_settings row.
const helpSettingsID = 1

type settingsRepository struct {
	db querier
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetHelp returns the help content, or an empty record when none was saved yet.
func (r *settingsRepository) GetHelp(ctx context.Context) (*entity.HelpContent, error) {
	query := `
		SELECT id, help_text, help_video_url, updated_at
		FROM admin_settings
		WHERE id = $1
	`

	var (
		help      entity.HelpContent
		text, url sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, helpSettingsID).Scan(&help.ID, &text, &url, &help.UpdatedAt)
	if err == sql.ErrNoRows {
		return &entity.HelpContent{ID: helpSettingsID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get help content: %w", err)
	}

	if text.Valid {
		help.HelpText = &text.String
	}
	if url.Valid {
		help.HelpVideoURL = &url.String
	}
	return &help, nil
}

func (r *settingsRepository) UpsertHelp(ctx context.Context, help *entity.HelpContent) error {
	query := `
		INSERT INTO admin_settings (id, help_text, help_video_url, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET help_text = EXCLUDED.help_text,
		    help_video_url = EXCLUDED.help_video_url,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		helpSettingsID,
		nullString(help.HelpText),
		nullString(help.HelpVideoURL),
		time.Now(),
	).Scan(&help.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrWriteNotConfirmed
	}
	if err != nil {
		return fmt.Errorf("failed to save help content: %w", mapPQError(err))
	}

	help.ID = helpSettingsID
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
