package controllers

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/services"
)

// DefaultDashboardSettings matches what the collector shows when nothing is configured
var DefaultDashboardSettings = models.DashboardSettings{
	Title:          "Debug Log Dashboard",
	RefreshSeconds: 5,
	Recent:         50,
}

// DashboardController handles dashboard-related requests
type DashboardController struct {
	services *services.Services
	settings atomic.Pointer[models.DashboardSettings]
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services, settings models.DashboardSettings) *DashboardController {
	c := &DashboardController{
		services: services,
	}
	c.UpdateSettings(settings)
	return c
}

// UpdateSettings swaps the display settings used by subsequent requests.
// Zero values fall back to the defaults.
func (c *DashboardController) UpdateSettings(settings models.DashboardSettings) {
	if settings.Title == "" {
		settings.Title = DefaultDashboardSettings.Title
	}
	if settings.RefreshSeconds <= 0 {
		settings.RefreshSeconds = DefaultDashboardSettings.RefreshSeconds
	}
	if settings.Recent <= 0 {
		settings.Recent = DefaultDashboardSettings.Recent
	}
	c.settings.Store(&settings)
}

// Settings returns the display settings currently in use
func (c *DashboardController) Settings() models.DashboardSettings {
	return *c.settings.Load()
}

// Index handles GET /
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	settings := c.Settings()
	data := c.services.Logs.Dashboard(r.Context(), settings.Recent)

	// Render fully before writing so a template failure can still become a 500
	var page bytes.Buffer
	if err := RenderDashboard(&page, settings, data); err != nil {
		log.Printf("Failed to render dashboard: %v", err)
		http.Error(w, "Failed to render dashboard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := page.WriteTo(w); err != nil {
		logWriteError(err)
	}
}

// RenderDashboard writes the dashboard page for data to w
func RenderDashboard(w io.Writer, settings models.DashboardSettings, data *models.DashboardData) error {
	templateData := struct {
		Title          string
		RefreshSeconds int
		Data           *models.DashboardData
	}{
		Title:          settings.Title,
		RefreshSeconds: settings.RefreshSeconds,
		Data:           data,
	}

	return renderTemplate(w, templateData)
}
