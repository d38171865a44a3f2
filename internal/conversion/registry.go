package conversion

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry serves conversions from a cached Engine.
//
// The engine starts on the built-in tables. RefreshCache replaces it with
// tables loaded from the Repository; an empty store keeps the built-in
// tables. A store that breaks a table invariant is rejected and the
// previous engine stays active.
//
// All public methods are thread-safe.
type Registry struct {
	repo     Repository
	engine   *Engine
	source   string
	engineMu sync.RWMutex
	logger   Logger
}

// Catalog sources reported by Registry.Source.
const (
	SourceBuiltin  = "builtin"
	SourceDatabase = "database"
)

// NewRegistry creates a registry over the given repository.
// A nil repository serves the built-in tables only.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		engine: DefaultEngine(),
		source: SourceBuiltin,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads factor tables from the repository.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}

	catalog, err := r.repo.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("loading conversion catalog: %w", err)
	}

	if len(catalog) == 0 {
		r.logger.Warn("conversion catalog store is empty, using built-in tables")
		return nil
	}

	engine, err := NewEngine(catalog)
	if err != nil {
		return fmt.Errorf("validating conversion catalog: %w", err)
	}

	r.engineMu.Lock()
	r.engine = engine
	r.source = SourceDatabase
	r.engineMu.Unlock()

	r.logger.Info("conversion catalog refreshed", "regions", len(catalog))
	return nil
}

// Engine returns the active engine.
func (r *Registry) Engine() *Engine {
	r.engineMu.RLock()
	defer r.engineMu.RUnlock()
	return r.engine
}

// Source reports where the active tables came from: SourceBuiltin or SourceDatabase.
func (r *Registry) Source() string {
	r.engineMu.RLock()
	defer r.engineMu.RUnlock()
	return r.source
}

// Convert converts using the active engine. See Engine.Convert.
func (r *Registry) Convert(req Request) string {
	return r.Engine().Convert(req)
}

// Evaluate converts using the active engine. See Engine.Evaluate.
func (r *Registry) Evaluate(req Request) (Result, error) {
	return r.Engine().Evaluate(req)
}
