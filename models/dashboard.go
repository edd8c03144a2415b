package models

import "time"

// DashboardData holds everything the dashboard page needs from the log store
type DashboardData struct {
	TotalLogs  int
	Capacity   int
	RenderedAt time.Time
	Recent     []LogRecord // newest first
}

// DashboardSettings are the display options of the dashboard page
type DashboardSettings struct {
	Title          string `yaml:"title"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	Recent         int    `yaml:"recent"`
}

// LastUpdate formats the render time the way the dashboard shows it
func (d *DashboardData) LastUpdate() string {
	return d.RenderedAt.Format("15:04:05")
}
