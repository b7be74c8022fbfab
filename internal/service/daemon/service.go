package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	repository "github.com/oshokin/alarmify/internal/repository/alarms"
	"github.com/oshokin/alarmify/internal/service/engine"
)

// service keeps the engine and the state file in step: every successful
// mutation is saved, and external edits of the file are applied back.
type service struct {
	*engine.Engine

	// repo handles persistent storage of alarm definitions.
	repo repository.Repository
	// mu serializes mutations with their save and with reloads.
	mu sync.Mutex
}

// newService restores the saved alarms into eng. Entries that no longer
// validate are logged and skipped.
func newService(ctx context.Context, eng *engine.Engine, repo repository.Repository) (*service, error) {
	s := &service{
		Engine: eng,
		repo:   repo,
	}

	if repo == nil {
		return s, nil
	}

	requests, err := repo.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		logger.Info(ctx, "No saved alarms, starting empty")

		return s, nil
	default:
		return nil, fmt.Errorf("load alarms: %w", err)
	}

	restored := 0

	for _, req := range requests {
		if _, err = eng.Add(ctx, req); err != nil {
			logger.WarnKV(ctx, "Skipping saved alarm", "time", req.Time, "content_ref", req.Content.Ref, "error", err)

			continue
		}

		restored++
	}

	logger.InfoKV(ctx, "Alarms restored", "count", restored)

	return s, nil
}

// Add registers the alarm and saves the new set.
func (s *service) Add(ctx context.Context, req domain.Request) (domain.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.Engine.Add(ctx, req)
	if err != nil {
		return domain.Definition{}, err
	}

	return def, s.persist(ctx)
}

// Remove drops the first alarm at a time and saves the new set.
func (s *service) Remove(ctx context.Context, at string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.Engine.Remove(ctx, at)
	if err != nil || !removed {
		return removed, err
	}

	return true, s.persist(ctx)
}

// RemoveByID drops one alarm and saves the new set. A failed save is logged;
// the alarm stays removed.
func (s *service) RemoveByID(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Engine.RemoveByID(ctx, id) {
		return false
	}

	if err := s.persist(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarms", "error", err)
	}

	return true
}

// Clear drops every alarm and saves the empty set.
func (s *service) Clear(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.Engine.Clear(ctx)

	if err := s.persist(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarms", "error", err)
	}

	return n
}

// reload applies the state file to the engine: alarms missing from the file
// are removed, the rest are added or replaced. A file with the same content as
// the engine is a no-op, which also absorbs the echo of our own saves.
func (s *service) reload(ctx context.Context) {
	if s.repo == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.repo.Load(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Failed to reload alarms", "error", err)

		return
	}

	wanted := make(map[string]domain.Definition, len(requests))
	ordered := make([]domain.Request, 0, len(requests))

	for _, req := range requests {
		def, _, err := domain.NewDefinition(req)
		if err != nil {
			logger.WarnKV(ctx, "Skipping reloaded alarm", "time", req.Time, "error", err)

			continue
		}

		wanted[def.ID] = def
		ordered = append(ordered, req)
	}

	current := s.List()
	if sameDefinitions(current, wanted) {
		logger.DebugKV(ctx, "State file unchanged", "count", len(wanted))

		return
	}

	removed := 0

	for _, def := range current {
		if _, ok := wanted[def.ID]; !ok {
			s.Engine.RemoveByID(ctx, def.ID)
			removed++
		}
	}

	for _, req := range ordered {
		if _, err = s.Engine.Add(ctx, req); err != nil {
			logger.WarnKV(ctx, "Failed to apply reloaded alarm", "time", req.Time, "error", err)
		}
	}

	logger.InfoKV(ctx, "Alarms reloaded from state file", "count", len(wanted), "removed", removed)
}

// persist saves the current set. Callers hold mu.
func (s *service) persist(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	if err := s.repo.Save(ctx, s.List()); err != nil {
		return fmt.Errorf("persist alarms: %w", err)
	}

	return nil
}

func sameDefinitions(current []domain.Definition, wanted map[string]domain.Definition) bool {
	if len(current) != len(wanted) {
		return false
	}

	for _, def := range current {
		if other, ok := wanted[def.ID]; !ok || other != def {
			return false
		}
	}

	return true
}
