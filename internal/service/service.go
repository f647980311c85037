// Package service provides the business logic for the add-on registry API.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/repos"
	"github.com/mediahubhq/addon-registry-server/internal/telemetry"
)

var (
	// ErrAddonNotFound is returned when an add-on is unknown to every
	// loaded repository.
	ErrAddonNotFound = errors.New("addon not found")
)

// Pinger is implemented by catalog databases that can report liveness.
type Pinger interface {
	Ping() error
}

// UpdateService defines the reconciliation operations exposed by the API.
type UpdateService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// CheckUpdates returns the available updates for the given installed
	// add-ons, preserving input order. Add-ons that are up to date or
	// unknown to every repository are simply absent from the result.
	CheckUpdates(ctx context.Context, installed []*addons.Addon) ([]*addons.Addon, error)

	// CheckAddonUpdate checks a single installed add-on. A nil result with
	// a nil error means the add-on is up to date or unknown.
	CheckAddonUpdate(ctx context.Context, installed *addons.Addon) (*addons.Addon, error)

	// LatestVersion returns the highest installable version of an add-on
	// across all repositories, or ErrAddonNotFound.
	LatestVersion(ctx context.Context, addonID string) (*addons.Addon, error)

	// LatestVersions returns the highest installable version of every
	// known add-on, sorted by add-on ID.
	LatestVersions(ctx context.Context) ([]*addons.Addon, error)
}

// defaultService implements UpdateService on top of the catalog database
// and the reconciliation engine. Every operation performs a fresh catalog
// load: the engine's maps are rebuilt wholesale per call and never cached
// across loads. The mutex serializes load against query on the engine,
// which does no internal locking.
type defaultService struct {
	mu       sync.Mutex
	db       repos.Database
	registry *repos.Registry
	mode     repos.UpdateMode
}

var _ UpdateService = (*defaultService)(nil)

// NewService creates the default UpdateService.
func NewService(db repos.Database, registry *repos.Registry, mode repos.UpdateMode) UpdateService {
	return &defaultService{
		db:       db,
		registry: registry,
		mode:     mode,
	}
}

func (s *defaultService) CheckReadiness(_ context.Context) error {
	if pinger, ok := s.db.(Pinger); ok {
		return pinger.Ping()
	}
	return nil
}

func (s *defaultService) CheckUpdates(ctx context.Context, installed []*addons.Addon) ([]*addons.Addon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := repos.New(addons.NewManagerFromInstalled(installed), s.registry, s.mode)
	if err := s.load(func() error { return engine.LoadAddons(ctx, s.db) }); err != nil {
		return nil, err
	}

	telemetry.UpdateChecks.Add(float64(len(installed)))
	updates := engine.CheckAll(installed)
	telemetry.UpdatesFound.Add(float64(len(updates)))
	return updates, nil
}

func (s *defaultService) CheckAddonUpdate(ctx context.Context, installed *addons.Addon) (*addons.Addon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := repos.New(addons.NewManagerFromInstalled([]*addons.Addon{installed}), s.registry, s.mode)
	if err := s.load(func() error { return engine.LoadAddonsByID(ctx, s.db, installed.ID) }); err != nil {
		return nil, err
	}

	telemetry.UpdateChecks.Inc()
	update := engine.CheckOne(installed)
	if update != nil {
		telemetry.UpdatesFound.Inc()
	}
	return update, nil
}

func (s *defaultService) LatestVersion(ctx context.Context, addonID string) (*addons.Addon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := repos.New(addons.NewManagerFromInstalled(nil), s.registry, s.mode)
	if err := s.load(func() error { return engine.LoadAddonsByID(ctx, s.db, addonID) }); err != nil {
		return nil, err
	}

	latest, ok := engine.LatestVersion(addonID)
	if !ok {
		return nil, ErrAddonNotFound
	}
	return latest, nil
}

func (s *defaultService) LatestVersions(ctx context.Context) ([]*addons.Addon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := repos.New(addons.NewManagerFromInstalled(nil), s.registry, s.mode)
	if err := s.load(func() error { return engine.LoadAddons(ctx, s.db) }); err != nil {
		return nil, err
	}

	return engine.LatestVersions(), nil
}

func (s *defaultService) load(loadFn func() error) error {
	if err := loadFn(); err != nil {
		telemetry.CatalogLoads.WithLabelValues(telemetry.OutcomeError).Inc()
		return err
	}
	telemetry.CatalogLoads.WithLabelValues(telemetry.OutcomeOK).Inc()
	return nil
}
