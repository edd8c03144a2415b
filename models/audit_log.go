package models

import "time"

// AuditLogEntry represents a single collector mutation (ingest or clear)
type AuditLogEntry struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
}
