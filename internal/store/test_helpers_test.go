package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ingestString ingests an edge list given as lines.
func ingestString(t *testing.T, s *Store, lines ...string) IngestReport {
	t.Helper()
	report, err := s.Ingest(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	return report
}
