package repositories

import (
	"database/sql"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	Logs  LogStore
	Audit AuditRepository // nil when no audit database is configured
}

// NewRepositories creates and initializes all repositories.
// db may be nil, in which case auditing is disabled.
func NewRepositories(capacity int, db *sql.DB) *Repositories {
	repos := &Repositories{
		Logs: NewLogStore(capacity),
	}
	if db != nil {
		repos.Audit = NewAuditRepository(db)
	}
	return repos
}
