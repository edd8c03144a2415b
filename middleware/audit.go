package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/repositories"
	"github.com/blogem/devlog-collector/services"
)

// auditWriteTimeout bounds a single audit insert
const auditWriteTimeout = 5 * time.Second

// AuditLogger middleware records every request that mutates the log store
func AuditLogger(auditRepo repositories.AuditRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutation(r) {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := &models.AuditLogEntry{
				RequestID: requestID(r),
				Timestamp: time.Now(),
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    ww.Status(),
				UserAgent: r.UserAgent(),
				IPAddress: services.PeerHost(r.RemoteAddr),
			}

			// Log asynchronously to avoid blocking the response
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
				defer cancel()
				if err := auditRepo.Create(ctx, entry); err != nil {
					log.Printf("Failed to create audit log: %v", err)
				}
			}()
		})
	}
}

// isMutation reports whether r changes the log store
func isMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return r.URL.Path == "/clear"
}

// requestID returns the chi request id, or a fresh uuid when none was assigned
func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
