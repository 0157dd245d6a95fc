// Package graph holds the in-memory view types of the attributed graph.
//
// Node and Edge are transient views: they carry identity and a lazily
// populated AttributeStore. The persisted rows are owned by the store package,
// which implements AttributeLoader.
//
// # Attribute cache
//
// An AttributeStore has two states, empty and loaded. EnsureLoaded moves it
// from empty to loaded exactly once. Writes made to the backing store after
// that point are not reflected in the cached copy.
package graph
