package services

import (
	"context"
	"time"
)

// HealthResult is the body of the health endpoint
type HealthResult struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Database  string `json:"database"`
	RateLimit string `json:"rate_limit"`
}

// HealthService reports liveness of the service and its dependencies
type HealthService struct {
	name    string
	version string
	pingDB  func(ctx context.Context) error
	backend func() string
}

// NewHealthService creates a new health service. pingDB checks the
// database; backend names the active rate limit store.
func NewHealthService(name, version string, pingDB func(ctx context.Context) error, backend func() string) *HealthService {
	return &HealthService{name: name, version: version, pingDB: pingDB, backend: backend}
}

// Check reports "healthy" when the database answers, "degraded" otherwise
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	res := &HealthResult{
		Status:    "healthy",
		Service:   s.name,
		Version:   s.version,
		Database:  "ok",
		RateLimit: s.backend(),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pingDB(ctx); err != nil {
		res.Status = "degraded"
		res.Database = "unavailable"
	}
	return res
}
