// Package health provides a registry of named subsystem health checkers.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// Status is the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker checks one subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named checkers and runs them on demand.
type Registry struct {
	checkers []Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker.
func (r *Registry) Register(check Checker) {
	r.checkers = append(r.checkers, check)
}

// CheckAll runs every checker and returns the aggregate plus per-subsystem
// results.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	healthy := true
	statuses := make([]Status, len(r.checkers))
	for i, check := range r.checkers {
		statuses[i] = check(ctx)
		if !statuses[i].Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}

// Database builds a checker that pings a sql.DB.
func Database(name string, db *sql.DB) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		return Status{Name: name, Healthy: true}
	}
}

// Endpoint builds a checker that GETs a URL and requires a 2xx response.
func Endpoint(name, url string) Checker {
	client := &http.Client{Timeout: 3 * time.Second}
	return func(ctx context.Context) Status {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		resp, err := client.Do(req)
		if err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return Status{Name: name, Healthy: false, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return Status{Name: name, Healthy: true}
	}
}
