package controllers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"syscall"

	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/services"
)

//go:embed templates/*.html
var templateFiles embed.FS

// pageTemplates is parsed once; every page shares layout.html
var pageTemplates = template.Must(template.New("layout.html").ParseFS(templateFiles, "templates/layout.html", "templates/dashboard.html"))

// renderTemplate renders the layout with the provided data
func renderTemplate(w io.Writer, data interface{}) error {
	return pageTemplates.ExecuteTemplate(w, "layout.html", data)
}

// writeJSON writes v as a JSON response with the given status code.
// v is encoded before any header goes out, so an encode failure becomes a 500.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logWriteError(err)
	}
}

// logWriteError reports a failed response write. A peer that went away is not worth a log line.
func logWriteError(err error) {
	if isClientGone(err) {
		return
	}
	log.Printf("Failed to write response: %v", err)
}

// isClientGone reports whether err means the peer closed the connection
func isClientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

// Controllers holds all controller instances
type Controllers struct {
	Dashboard *DashboardController
	Logs      *LogController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, settings models.DashboardSettings) *Controllers {
	return &Controllers{
		Dashboard: NewDashboardController(services, settings),
		Logs:      NewLogController(services),
	}
}
