package bundle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/refis-sim/refis-sim/internal/refis"
	"github.com/refis-sim/refis-sim/internal/simulation"
)

// Service exports and imports simulation snapshots.
type Service struct {
	repo  simulation.Repository
	cache *simulation.Cache
}

// NewService constructs the bundle service on top of the shared store.
// The cache may be nil when no consolidation views are kept.
func NewService(repo simulation.Repository, cache *simulation.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Export captures the full store as a bundle. Items, groups and the
// counters load concurrently.
func (s *Service) Export(ctx context.Context) (Bundle, error) {
	b := Bundle{Version: Version}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.repo.ListItems(ctx, "")
		if err != nil {
			return err
		}
		b.Items = items
		return nil
	})
	g.Go(func() error {
		groups, err := s.repo.ListGroups(ctx, "")
		if err != nil {
			return err
		}
		b.Groups = groups
		return nil
	})
	g.Go(func() error {
		nextItem, nextGroup, err := s.repo.NextIDs(ctx)
		if err != nil {
			return err
		}
		b.NextItemID, b.NextGroupID = nextItem, nextGroup
		return nil
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}

	if b.Items == nil {
		b.Items = []refis.Item{}
	}
	if b.Groups == nil {
		b.Groups = []refis.Group{}
	}
	return b, nil
}

// Import replaces the whole store with the bundle contents after
// normalisation. The swap is atomic: a failing bundle leaves the store
// untouched. A successful swap orphans the cached consolidation views,
// which are built from the replaced rows.
func (s *Service) Import(ctx context.Context, b Bundle) (Bundle, error) {
	if err := b.Normalize(); err != nil {
		return Bundle{}, err
	}
	if err := s.repo.Replace(ctx, b.Items, b.Groups); err != nil {
		return Bundle{}, err
	}
	s.cache.Bump(ctx)
	return b, nil
}
