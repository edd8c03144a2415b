package services

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/repositories"
)

// LogService interface defines the log collection business logic
type LogService interface {
	Ingest(ctx context.Context, record *models.LogRecord, peerAddr string) models.LogRecord
	Dashboard(ctx context.Context, recent int) *models.DashboardData
	Export(ctx context.Context) []models.LogRecord
	Clear(ctx context.Context)
	Count(ctx context.Context) int
}

// logService implements LogService interface
type logService struct {
	store repositories.LogStore
	now   func() time.Time
	echo  io.Writer
}

// LogServiceOption configures a log service
type LogServiceOption func(*logService)

// WithClock overrides the clock used for server timestamps
func WithClock(now func() time.Time) LogServiceOption {
	return func(s *logService) {
		s.now = now
	}
}

// WithEcho prints one console line per ingested record to w. A nil w disables it.
func WithEcho(w io.Writer) LogServiceOption {
	return func(s *logService) {
		s.echo = w
	}
}

// NewLogService creates a new log service backed by store
func NewLogService(store repositories.LogStore, opts ...LogServiceOption) LogService {
	s := &logService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stamps the server-side fields on record and appends it to the store
func (s *logService) Ingest(ctx context.Context, record *models.LogRecord, peerAddr string) models.LogRecord {
	stored := *record
	stored.ServerTimestamp = s.now().Format(time.RFC3339Nano)
	stored.ClientIP = PeerHost(peerAddr)

	s.store.Append(stored)

	if s.echo != nil {
		fmt.Fprintf(s.echo, "📝 [%s] %s: %s - %s\n", stored.Timestamp, stored.Level, stored.Tag, stored.Message)
	}

	return stored
}

// Dashboard returns the total count and the most recent records, newest first
func (s *logService) Dashboard(ctx context.Context, recent int) *models.DashboardData {
	recentLogs, total := s.store.SnapshotWithSize(recent)
	return &models.DashboardData{
		TotalLogs:  total,
		Capacity:   s.store.Capacity(),
		RenderedAt: s.now(),
		Recent:     recentLogs,
	}
}

// Export returns every retained record, oldest first
func (s *logService) Export(ctx context.Context) []models.LogRecord {
	return s.store.All()
}

// Clear removes every record from the store
func (s *logService) Clear(ctx context.Context) {
	s.store.Clear()
}

// Count returns the number of retained records
func (s *logService) Count(ctx context.Context) int {
	return s.store.Size()
}

// PeerHost strips the port from a connection's remote address
func PeerHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
