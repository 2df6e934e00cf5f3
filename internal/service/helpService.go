package service

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

type helpService struct {
	settingsRepo repository.SettingsRepository
	cache        ViewCache
}

func NewHelpService(settingsRepo repository.SettingsRepository, cache ViewCache) HelpService {
	return &helpService{
		settingsRepo: settingsRepo,
		cache:        cache,
	}
}

func (s *helpService) GetHelp(ctx context.Context) (*entity.HelpContent, error) {
	return readThrough(ctx, s.cache, entity.ViewHelp, "content", func(ctx context.Context) (*entity.HelpContent, error) {
		help, err := s.settingsRepo.GetHelp(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get help content: %w", err)
		}
		return help.WithEmbedURL(), nil
	})
}

// UpdateHelp overwrites both fields; empty strings clear them.
func (s *helpService) UpdateHelp(ctx context.Context, req *UpdateHelpRequest) (*entity.HelpContent, error) {
	help := &entity.HelpContent{
		HelpText:     trimmedOrNil(req.HelpText),
		HelpVideoURL: trimmedOrNil(req.HelpVideoURL),
	}

	if help.HelpVideoURL != nil && !validVideoURL(*help.HelpVideoURL) {
		verr := entity.NewValidationError()
		verr.Add("help_video_url", "must be an http(s) URL")
		return nil, verr
	}

	if err := s.settingsRepo.UpsertHelp(ctx, help); err != nil {
		return nil, fmt.Errorf("failed to update help content: %w", err)
	}

	invalidate(ctx, s.cache, MutationHelpUpdate)
	return help.WithEmbedURL(), nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
