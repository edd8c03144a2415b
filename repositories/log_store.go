package repositories

import (
	"sync"

	"github.com/blogem/devlog-collector/models"
)

// DefaultLogCapacity is the number of records a log store keeps unless told otherwise
const DefaultLogCapacity = 1000

// LogStore interface defines the bounded in-memory log buffer operations
type LogStore interface {
	Append(record models.LogRecord)
	Snapshot(n int) []models.LogRecord
	SnapshotWithSize(n int) ([]models.LogRecord, int)
	All() []models.LogRecord
	Clear()
	Size() int
	Capacity() int
}

// memoryLogStore implements LogStore as a fixed-size ring buffer.
// All reads and writes of buf, head and size happen under mu.
type memoryLogStore struct {
	mu   sync.RWMutex
	buf  []models.LogRecord
	head int // index of the oldest record
	size int
}

// NewLogStore creates a new log store holding at most capacity records
func NewLogStore(capacity int) LogStore {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &memoryLogStore{
		buf: make([]models.LogRecord, capacity),
	}
}

// Append adds record as the newest entry, evicting the oldest when full
func (s *memoryLogStore) Append(record models.LogRecord) {
	record = record.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	if s.size < capacity {
		s.buf[(s.head+s.size)%capacity] = record
		s.size++
		return
	}

	// Full: overwrite the oldest slot and advance head
	s.buf[s.head] = record
	s.head = (s.head + 1) % capacity
}

// Snapshot returns up to n of the most recent records, newest first
func (s *memoryLogStore) Snapshot(n int) []models.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest(n)
}

// SnapshotWithSize is Snapshot plus the total record count, both taken
// under the same read lock
func (s *memoryLogStore) SnapshotWithSize(n int) ([]models.LogRecord, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest(n), s.size
}

// newest copies up to n records, newest first. Caller must hold mu.
func (s *memoryLogStore) newest(n int) []models.LogRecord {
	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return []models.LogRecord{}
	}

	out := make([]models.LogRecord, n)
	for i := 0; i < n; i++ {
		out[i] = s.at(s.size - 1 - i).Clone()
	}
	return out
}

// All returns every retained record, oldest first
func (s *memoryLogStore) All() []models.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LogRecord, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.at(i).Clone()
	}
	return out
}

// Clear removes every record
func (s *memoryLogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop references so cleared records can be collected
	for i := range s.buf {
		s.buf[i] = models.LogRecord{}
	}
	s.head = 0
	s.size = 0
}

// Size returns the current record count
func (s *memoryLogStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the maximum number of records kept
func (s *memoryLogStore) Capacity() int {
	return len(s.buf)
}

// at returns the i-th oldest record. Caller must hold mu.
func (s *memoryLogStore) at(i int) models.LogRecord {
	return s.buf[(s.head+i)%len(s.buf)]
}
