// Package pacs maintains the PACS configuration list: entries ordered by a
// manual weight, edited one at a time or reordered in bulk.
package pacs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/internal/service/event"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
	apperrors "github.com/luckypig3400/NEC-Backend/pkg/errors"
)

const resourceName = "pacs setting"

type PacsService interface {
	List(ctx context.Context) (*model.DeviceConfigList, error)
	Get(ctx context.Context, id string) (*model.DeviceConfig, error)
	Insert(ctx context.Context, cfg *model.DeviceConfig) (*model.DeviceConfig, error)
	BulkReorder(ctx context.Context, entries []map[string]interface{}) (*model.DeviceConfigList, error)
	PatchOne(ctx context.Context, id string, fields map[string]interface{}) (*model.DeviceConfig, error)
	DeleteOne(ctx context.Context, id string) (*model.DeviceConfig, error)
}

type Service struct {
	repo   repository.DeviceConfigRepository
	events event.Emitter
}

func NewService(repo repository.DeviceConfigRepository, events event.Emitter) *Service {
	if events == nil {
		events = event.Nop{}
	}
	return &Service{repo: repo, events: events}
}

// List returns every entry ordered by weight; equal weights keep insertion order.
func (s *Service) List(ctx context.Context) (*model.DeviceConfigList, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pacs settings: %w", err)
	}

	SortByWeight(configs)

	return &model.DeviceConfigList{
		Results: configs,
		Count:   int64(len(configs)),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.DeviceConfig, error) {
	cfg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to get pacs setting")
	}
	return cfg, nil
}

// Insert stores cfg as given; the weight is not normalized.
func (s *Service) Insert(ctx context.Context, cfg *model.DeviceConfig) (*model.DeviceConfig, error) {
	if cfg == nil {
		return nil, apperrors.NewBadRequest("missing pacs setting", nil)
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create pacs setting: %w", err)
	}

	s.events.Emit(ctx, model.EventPacsCreated, cfg.ID, cfg)
	return cfg, nil
}

// BulkReorder applies each partial entry in order. The first unknown id stops
// the batch with not-found; entries before it stay applied.
func (s *Service) BulkReorder(ctx context.Context, entries []map[string]interface{}) (*model.DeviceConfigList, error) {
	for i, entry := range entries {
		id, ok := entry[model.KeyID].(string)
		if !ok || id == "" {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("entry %d is missing %s", i, model.KeyID), nil)
		}
		if _, err := s.apply(ctx, id, entry); err != nil {
			return nil, err
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventPacsReordered, "", list.Results)
	return list, nil
}

func (s *Service) PatchOne(ctx context.Context, id string, fields map[string]interface{}) (*model.DeviceConfig, error) {
	cfg, err := s.apply(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventPacsUpdated, cfg.ID, cfg)
	return cfg, nil
}

func (s *Service) DeleteOne(ctx context.Context, id string) (*model.DeviceConfig, error) {
	cfg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to delete pacs setting")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, s.wrap(err, "failed to delete pacs setting")
	}

	s.events.Emit(ctx, model.EventPacsDeleted, cfg.ID, cfg)
	return cfg, nil
}

// apply merges fields into the stored entry. The identifier is never rewritten.
func (s *Service) apply(ctx context.Context, id string, fields map[string]interface{}) (*model.DeviceConfig, error) {
	cfg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to update pacs setting")
	}

	storedID := cfg.ID
	if err := document.Merge(cfg, document.Without(fields, model.KeyID)); err != nil {
		return nil, apperrors.NewBadRequest("invalid pacs setting", err)
	}
	cfg.ID = storedID

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, s.wrap(err, "failed to update pacs setting")
	}
	return cfg, nil
}

func (s *Service) wrap(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resourceName, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// SortByWeight orders configs ascending by weight, stable.
func SortByWeight(configs []*model.DeviceConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].Weight < configs[j].Weight
	})
}
