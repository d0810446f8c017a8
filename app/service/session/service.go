package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"varconf/app/config"
	"varconf/app/resolver"

	"github.com/samber/do"
)

var (
	_ resolver.Repository = (*Service)(nil)
	_ do.Shutdownable     = (*Service)(nil)
)

// Service persists resolver state as JSON in the configured backend.
type Service struct {
	store Store
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	store, err := Open(cfg.Session)
	if err != nil {
		return nil, err
	}

	slog.Info("Session store opened", "backend", cfg.Session.Backend, "dir", cfg.Session.Dir)

	return NewWithStore(store), nil
}

func NewWithStore(store Store) *Service {
	return &Service{store: store}
}

func Open(cfg config.Session) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Dir)
	case "badger":
		return NewBadgerStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func (s *Service) Load(ctx context.Context, id string) (*resolver.State, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var state resolver.State
	if err = json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if state.Knowledge == nil || state.Handler == nil {
		return nil, fmt.Errorf("session %s is incomplete", id)
	}

	return &state, nil
}

func (s *Service) Save(ctx context.Context, id string, state *resolver.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}

	return s.store.Put(ctx, id, data)
}

func (s *Service) Shutdown() error {
	return s.store.Close()
}
