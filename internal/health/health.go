package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatus is satisfied by *cache.Cache
type CacheStatus interface {
	IsHealthy() bool
}

type HealthChecker struct {
	db    Pinger
	cache CacheStatus
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Redis    RedisHealth    `json:"redis"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// RedisHealth is informational: without Redis the service falls back to in-process locks
type RedisHealth struct {
	Status string `json:"status"`
}

func NewHealthChecker(db Pinger, cache CacheStatus) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// CheckBasic reports unhealthy only when the ledger database is unreachable
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	redis := RedisHealth{Status: "fallback"}
	if h.cache != nil && h.cache.IsHealthy() {
		redis.Status = "healthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redis,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	if h.db == nil {
		return DatabaseHealth{Status: "unhealthy"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
