package services

import (
	"github.com/blogem/devlog-collector/repositories"
)

// Services holds all service instances
type Services struct {
	Logs LogService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, opts ...LogServiceOption) *Services {
	return &Services{
		Logs: NewLogService(repos.Logs, opts...),
	}
}
