package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/archive-export/internal/archive"
	"github.com/angelmondragon/archive-export/pkg/logger"
)

// storeLister is the slice of the archive client the resolver needs.
type storeLister interface {
	ListStores(ctx context.Context, baseURL string) ([]archive.Store, error)
}

// Resolver lists exportable stores for a region.
type Resolver interface {
	Resolve(ctx context.Context, baseURL string) ([]archive.Store, error)
}

type service struct {
	lister     storeLister
	demoGroups map[string]struct{}
	logg       *logger.Logger
}

// NewResolver builds a resolver that drops stores whose group is one of demoGroups.
func NewResolver(lister storeLister, demoGroups []string, logg *logger.Logger) (Resolver, error) {
	if lister == nil {
		return nil, fmt.Errorf("store lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	groups := make(map[string]struct{}, len(demoGroups))
	for _, g := range demoGroups {
		if key := normalizeGroup(g); key != "" {
			groups[key] = struct{}{}
		}
	}
	return &service{lister: lister, demoGroups: groups, logg: logg}, nil
}

func (s *service) Resolve(ctx context.Context, baseURL string) ([]archive.Store, error) {
	all, err := s.lister.ListStores(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]archive.Store, 0, len(all))
	for _, store := range all {
		if _, dup := seen[store.ID]; dup {
			continue
		}
		seen[store.ID] = struct{}{}
		if s.isDemo(store) {
			s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
				"store_id": store.ID,
				"group":    store.Group,
			}), "skipping demo store")
			continue
		}
		out = append(out, store)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"listed":   len(all),
		"exported": len(out),
	}), "stores resolved")
	return out, nil
}

func (s *service) isDemo(store archive.Store) bool {
	_, ok := s.demoGroups[normalizeGroup(store.Group)]
	return ok
}

func normalizeGroup(group string) string {
	return strings.ToLower(strings.TrimSpace(group))
}
