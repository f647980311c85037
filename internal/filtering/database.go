package filtering

import (
	"context"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/repos"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

// filteredDatabase wraps a catalog database and drops records whose add-on
// ID does not pass the configured include/exclude patterns.
type filteredDatabase struct {
	inner   repos.Database
	filter  NameFilter
	include []string
	exclude []string
}

var _ repos.Database = (*filteredDatabase)(nil)

// NewFilteredDatabase decorates db with ID filtering. With no patterns
// configured the database is returned unwrapped.
func NewFilteredDatabase(db repos.Database, include, exclude []string) repos.Database {
	if len(include) == 0 && len(exclude) == 0 {
		return db
	}
	return &filteredDatabase{
		inner:   db,
		filter:  NewDefaultNameFilter(),
		include: include,
		exclude: exclude,
	}
}

func (f *filteredDatabase) GetRepositoryContent(ctx context.Context) ([]*addons.Addon, error) {
	all, err := f.inner.GetRepositoryContent(ctx)
	if err != nil {
		return nil, err
	}
	return f.apply(all), nil
}

func (f *filteredDatabase) FindByAddonID(ctx context.Context, addonID string) ([]*addons.Addon, error) {
	all, err := f.inner.FindByAddonID(ctx, addonID)
	if err != nil {
		return nil, err
	}
	return f.apply(all), nil
}

func (f *filteredDatabase) apply(all []*addons.Addon) []*addons.Addon {
	kept := make([]*addons.Addon, 0, len(all))
	for _, addon := range all {
		include, reason := f.filter.ShouldInclude(addon.ID, f.include, f.exclude)
		if !include {
			logger.Debugf("filtered out add-on %s: %s", addon.ID, reason)
			continue
		}
		kept = append(kept, addon)
	}
	return kept
}
