// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blogem/devlog-collector/models"
)

// MockLogStore is a mock implementation of repositories.LogStore
type MockLogStore struct {
	mock.Mock
}

// NewMockLogStore creates a MockLogStore whose expectations are asserted on cleanup
func NewMockLogStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLogStore {
	m := &MockLogStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLogStore) Append(record models.LogRecord) {
	m.Called(record)
}

func (m *MockLogStore) Snapshot(n int) []models.LogRecord {
	args := m.Called(n)
	records, _ := args.Get(0).([]models.LogRecord)
	return records
}

func (m *MockLogStore) SnapshotWithSize(n int) ([]models.LogRecord, int) {
	args := m.Called(n)
	records, _ := args.Get(0).([]models.LogRecord)
	return records, args.Int(1)
}

func (m *MockLogStore) All() []models.LogRecord {
	args := m.Called()
	records, _ := args.Get(0).([]models.LogRecord)
	return records
}

func (m *MockLogStore) Clear() {
	m.Called()
}

func (m *MockLogStore) Size() int {
	return m.Called().Int(0)
}

func (m *MockLogStore) Capacity() int {
	return m.Called().Int(0)
}

// MockAuditRepository is a mock implementation of repositories.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

// NewMockAuditRepository creates a MockAuditRepository whose expectations are asserted on cleanup
func NewMockAuditRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuditRepository {
	m := &MockAuditRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]models.AuditLogEntry)
	return entries, args.Error(1)
}
