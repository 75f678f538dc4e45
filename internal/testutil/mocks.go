// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"lakeload/internal/domain"
)

// === Raw Store Mock ===

// MockRawStore implements domain.RawStore in memory.
type MockRawStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutFn   func(ctx context.Context, key string, content []byte) error
	Prefix  string
}

// NewMockRawStore returns an empty store whose URIs are prefix + key.
func NewMockRawStore(prefix string) *MockRawStore {
	return &MockRawStore{Objects: map[string][]byte{}, Prefix: prefix}
}

// Put implements the interface method for testing.
func (m *MockRawStore) Put(ctx context.Context, key string, content []byte) error {
	if m.PutFn != nil {
		if err := m.PutFn(ctx, key, content); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects == nil {
		m.Objects = map[string][]byte{}
	}
	m.Objects[key] = append([]byte(nil), content...)
	return nil
}

// Get implements the interface method for testing.
func (m *MockRawStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[key]
	if !ok {
		return nil, domain.ErrNotFound("raw object %q not found", key)
	}
	return data, nil
}

// URI implements the interface method for testing.
func (m *MockRawStore) URI(key string) string {
	return m.Prefix + key
}

// === Fetcher Mock ===

// MockFetcher implements domain.Fetcher from a URL to body map.
type MockFetcher struct {
	Bodies  map[string][]byte
	FetchFn func(ctx context.Context, url string) ([]byte, error)
}

// Fetch implements the interface method for testing.
func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, url)
	}
	body, ok := m.Bodies[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: 404}
	}
	return body, nil
}

// === Table Writer Mock ===

// MockTableWriter implements domain.TableWriter and records every call as
// "table<-sourceURI".
type MockTableWriter struct {
	ReplaceTableFn func(ctx context.Context, ds domain.Dataset, sourceURI string) (*domain.TableResult, error)
	Calls          []string
}

// ReplaceTable implements the interface method for testing.
func (m *MockTableWriter) ReplaceTable(ctx context.Context, ds domain.Dataset, sourceURI string) (*domain.TableResult, error) {
	m.Calls = append(m.Calls, ds.Table+"<-"+sourceURI)
	if m.ReplaceTableFn != nil {
		return m.ReplaceTableFn(ctx, ds, sourceURI)
	}
	return &domain.TableResult{Dataset: ds.Name, Table: ds.Table}, nil
}

// === Table Inspector Mock ===

// MockTableInspector implements domain.TableInspector for testing.
type MockTableInspector struct {
	DescribeTableFn func(ctx context.Context, table string) (*domain.TableInfo, error)
	ListSnapshotsFn func(ctx context.Context) ([]domain.Snapshot, error)
}

// DescribeTable implements the interface method for testing.
func (m *MockTableInspector) DescribeTable(ctx context.Context, table string) (*domain.TableInfo, error) {
	if m.DescribeTableFn != nil {
		return m.DescribeTableFn(ctx, table)
	}
	panic("unexpected call to MockTableInspector.DescribeTable")
}

// ListSnapshots implements the interface method for testing.
func (m *MockTableInspector) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	if m.ListSnapshotsFn != nil {
		return m.ListSnapshotsFn(ctx)
	}
	return nil, nil
}
