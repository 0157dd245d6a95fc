package graph

import (
	"context"
	"fmt"
)

// EntityKind distinguishes the owner of an attribute set.
type EntityKind uint8

const (
	NodeEntity EntityKind = iota
	EdgeEntity
)

func (k EntityKind) String() string {
	if k == EdgeEntity {
		return "edge"
	}
	return "node"
}

// AttributeLoader reads every persisted attribute row of one entity.
type AttributeLoader interface {
	LoadAttributes(ctx context.Context, kind EntityKind, id int64) (*Attributes, error)
}

type cacheState uint8

const (
	cacheEmpty cacheState = iota
	cacheLoaded
)

// AttributeStore is the lazily populated attribute set of a node or edge.
//
// The store starts empty. The first read loads all persisted rows for the
// owning entity once and caches them. Attribute rows written to the backing
// store afterwards, through any other path, are not visible to an already
// loaded AttributeStore. Create a fresh Node or Edge view to observe them.
//
// An AttributeStore is not safe for concurrent use.
type AttributeStore struct {
	kind   EntityKind
	id     int64
	loader AttributeLoader
	state  cacheState
	attrs  *Attributes
}

// NewAttributeStore returns an empty store owned by (kind, id).
func NewAttributeStore(kind EntityKind, id int64, loader AttributeLoader) *AttributeStore {
	return &AttributeStore{kind: kind, id: id, loader: loader}
}

// Loaded reports whether the cache has been populated.
func (s *AttributeStore) Loaded() bool {
	return s.state == cacheLoaded
}

// EnsureLoaded populates the cache from the loader. It is a no-op once loaded.
// A failed load leaves the store empty so a later call retries.
func (s *AttributeStore) EnsureLoaded(ctx context.Context) error {
	if s.state == cacheLoaded {
		return nil
	}
	if s.loader == nil {
		return fmt.Errorf("load %s %d attributes: no loader", s.kind, s.id)
	}
	attrs, err := s.loader.LoadAttributes(ctx, s.kind, s.id)
	if err != nil {
		return fmt.Errorf("load %s %d attributes: %w", s.kind, s.id, err)
	}
	if attrs == nil {
		attrs = NewAttributes()
	}
	s.attrs = attrs
	s.state = cacheLoaded
	return nil
}

// Get returns all values for name, loading the cache on first use.
func (s *AttributeStore) Get(ctx context.Context, name string) ([]Value, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.attrs.All(name), nil
}

// Keys returns attribute names, loading the cache on first use.
func (s *AttributeStore) Keys(ctx context.Context) ([]string, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.attrs.Keys(), nil
}

// Snapshot returns a copy of the cached attributes, loading them on first use.
func (s *AttributeStore) Snapshot(ctx context.Context) (*Attributes, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.attrs.Clone(), nil
}

// Cached returns the cached attributes without loading.
// It returns nil while the store is empty.
func (s *AttributeStore) Cached() *Attributes {
	if s.state != cacheLoaded {
		return nil
	}
	return s.attrs
}
