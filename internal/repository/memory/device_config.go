package memory

import (
	"context"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
)

type deviceConfigRepository struct {
	db *DB
}

func NewDeviceConfigRepository(db *DB) repository.DeviceConfigRepository {
	return &deviceConfigRepository{db: db}
}

func (r *deviceConfigRepository) Create(_ context.Context, cfg *model.DeviceConfig) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if cfg.ID == "" {
		cfg.ID = model.NewID()
	}
	id, err := canonical(cfg.ID)
	if err != nil {
		return err
	}
	cfg.ID = id
	r.db.devices = append(r.db.devices, cfg.Clone())
	return nil
}

func (r *deviceConfigRepository) Get(_ context.Context, id string) (*model.DeviceConfig, error) {
	key, err := canonical(id)
	if err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, d := range r.db.devices {
		if d.ID == key {
			return d.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *deviceConfigRepository) Save(_ context.Context, cfg *model.DeviceConfig) error {
	key, err := canonical(cfg.ID)
	if err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, d := range r.db.devices {
		if d.ID == key {
			saved := cfg.Clone()
			saved.ID = key
			r.db.devices[i] = saved
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *deviceConfigRepository) Delete(_ context.Context, id string) error {
	key, err := canonical(id)
	if err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, d := range r.db.devices {
		if d.ID == key {
			r.db.devices = append(r.db.devices[:i], r.db.devices[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *deviceConfigRepository) List(_ context.Context) ([]*model.DeviceConfig, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.DeviceConfig, 0, len(r.db.devices))
	for _, d := range r.db.devices {
		out = append(out, d.Clone())
	}
	return out, nil
}
