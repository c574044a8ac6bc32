package stores

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/archive-export/internal/archive"
	"github.com/angelmondragon/archive-export/pkg/logger"
)

type stubLister struct {
	stores  []archive.Store
	err     error
	calls   int
	baseURL string
}

func (s *stubLister) ListStores(_ context.Context, baseURL string) ([]archive.Store, error) {
	s.calls++
	s.baseURL = baseURL
	return s.stores, s.err
}

func TestResolveExcludesDemoGroups(t *testing.T) {
	lister := &stubLister{stores: []archive.Store{
		{ID: "1", Group: "retail"},
		{ID: "12", Group: "Demo "},
		{ID: "3", Group: "internal"},
		{ID: "4"},
		{ID: "1", Group: "retail"},
	}}
	resolver, err := NewResolver(lister, []string{"demo", "INTERNAL", ""}, logger.Nop())
	require.NoError(t, err)

	stores, err := resolver.Resolve(context.Background(), "http://archive.test")
	require.NoError(t, err)

	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, "http://archive.test", lister.baseURL)
	assert.Equal(t, []archive.Store{{ID: "1", Group: "retail"}, {ID: "4"}}, stores)
}

func TestResolveWithoutDemoGroupsKeepsEverything(t *testing.T) {
	lister := &stubLister{stores: []archive.Store{{ID: "1", Group: "demo"}}}
	resolver, err := NewResolver(lister, nil, logger.Nop())
	require.NoError(t, err)

	stores, err := resolver.Resolve(context.Background(), "http://archive.test")
	require.NoError(t, err)
	assert.Len(t, stores, 1)
}

func TestResolvePropagatesListingErrors(t *testing.T) {
	boom := errors.New("dial tcp: timeout")
	resolver, err := NewResolver(&stubLister{err: boom}, []string{"demo"}, logger.Nop())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "http://archive.test")
	require.ErrorIs(t, err, boom)
}

func TestNewResolverValidates(t *testing.T) {
	_, err := NewResolver(nil, nil, logger.Nop())
	assert.Error(t, err)
	_, err = NewResolver(&stubLister{}, nil, nil)
	assert.Error(t, err)
}
