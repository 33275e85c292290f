package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness for the /health endpoint
type HealthChecker struct {
	mu          sync.RWMutex
	lastCycle   time.Time
	lastPrice   float64
	isConnected bool
	emergency   bool
	errors      []string
}

// HealthStatus is the JSON body of the health endpoint
type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	LastCycle     time.Time `json:"last_cycle"`
	LastPrice     float64   `json:"last_price"`
	IsConnected   bool      `json:"is_connected"`
	EmergencyStop bool      `json:"emergency_stop"`
	Uptime        string    `json:"uptime"`
	Errors        []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// MarkCycle records a completed signal cycle
func (h *HealthChecker) MarkCycle(lastPrice float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastPrice = lastPrice
}

// SetConnected records exchange connectivity
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// SetEmergency records the emergency stop state
func (h *HealthChecker) SetEmergency(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emergency = active
}

// AddError records a subsystem error for the health report
func (h *HealthChecker) AddError(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, message)
	if len(h.errors) > 20 {
		h.errors = h.errors[len(h.errors)-20:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastCycle) > time.Hour {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		LastCycle:     h.lastCycle,
		LastPrice:     h.lastPrice,
		IsConnected:   h.isConnected,
		EmergencyStop: h.emergency,
		Uptime:        time.Since(startTime).String(),
		Errors:        h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
