package controllers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/services"
)

// maxLogBodyBytes caps a single ingest body after decompression
const maxLogBodyBytes = 1 << 20

// LogController handles log ingest, export and clear requests
type LogController struct {
	services *services.Services
}

// NewLogController creates a new log controller
func NewLogController(services *services.Services) *LogController {
	return &LogController{
		services: services,
	}
}

// Ingest handles POST /log
func (c *LogController) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLogBodyBytes))
	if err != nil {
		c.ingestError(w, fmt.Errorf("failed to read body: %w", err))
		return
	}

	record, err := models.ParseLogRecord(body)
	if err != nil {
		c.ingestError(w, err)
		return
	}

	c.services.Logs.Ingest(r.Context(), record, r.RemoteAddr)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *LogController) ingestError(w http.ResponseWriter, err error) {
	log.Printf("❌ Error processing log: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"status": "error",
		"error":  "Error processing log: " + err.Error(),
	})
}

// Export handles GET /logs
func (c *LogController) Export(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.services.Logs.Export(r.Context()))
}

// Clear handles GET /clear
func (c *LogController) Clear(w http.ResponseWriter, r *http.Request) {
	c.services.Logs.Clear(r.Context())

	// Redirect back to the dashboard
	http.Redirect(w, r, "/", http.StatusFound)
}
