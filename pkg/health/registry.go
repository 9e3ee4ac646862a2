// Package health aggregates readiness checks over the service's
// backing dependencies.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Checker reports whether one backing dependency is reachable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Report is the aggregated outcome of one Check run. Checks maps each
// dependency name to "ok" or its error text.
type Report struct {
	Healthy  bool              `json:"healthy"`
	Checks   map[string]string `json:"checks"`
	Duration time.Duration     `json:"duration"`
}

// Registry holds the named dependency checks.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a named check, replacing any previous one under the
// same name.
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs every registered check concurrently and aggregates the
// results. The report is unhealthy as soon as one check fails.
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.RUnlock()

	start := time.Now()
	report := Report{Healthy: true, Checks: make(map[string]string, len(checkers))}

	type outcome struct {
		name string
		err  error
	}
	results := make(chan outcome, len(checkers))
	var wg sync.WaitGroup
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			results <- outcome{name: name, err: checker.HealthCheck(ctx)}
		}(name, checker)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			report.Healthy = false
			report.Checks[res.name] = res.err.Error()
			continue
		}
		report.Checks[res.name] = "ok"
	}
	report.Duration = time.Since(start)
	return report
}

// CheckOne runs a single named check.
func (r *Registry) CheckOne(ctx context.Context, name string) error {
	r.mu.RLock()
	checker, ok := r.checkers[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown health check: %s", name)
	}
	return checker.HealthCheck(ctx)
}
