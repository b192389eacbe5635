// Package registry maps database types to engine constructors. The engine
// is chosen once when a run starts and never switched afterwards.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/mssql"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/mysql"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/oracle"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/postgres"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Registration describes one supported engine.
type Registration struct {
	Type        domain.DatabaseType
	DisplayName string
	Open        port.EngineFactory
	// Validator, when set, returns the checker for generated statistic SQL.
	Validator func() port.QueryValidator
}

// Registry holds the known engines keyed by database type.
type Registry struct {
	engines map[domain.DatabaseType]Registration
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{engines: make(map[domain.DatabaseType]Registration)}
}

// Default returns a registry with every built-in engine.
func Default() *Registry {
	r := New()
	r.Register(Registration{
		Type:        domain.PostgreSQL,
		DisplayName: "PostgreSQL",
		Open:        postgres.Open,
		Validator:   func() port.QueryValidator { return domain.NewPgQueryValidator() },
	})
	r.Register(Registration{Type: domain.MSSQL, DisplayName: "Microsoft SQL Server", Open: mssql.Open})
	r.Register(Registration{Type: domain.MySQL, DisplayName: "MySQL / MariaDB", Open: mysql.Open})
	r.Register(Registration{Type: domain.Oracle, DisplayName: "Oracle", Open: oracle.Open})
	return r
}

// Register adds or replaces an engine.
func (r *Registry) Register(reg Registration) {
	r.engines[reg.Type] = reg
}

// Lookup returns the registration for t.
func (r *Registry) Lookup(t domain.DatabaseType) (Registration, error) {
	reg, ok := r.engines[t]
	if !ok {
		return Registration{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedDatabase, t)
	}
	return reg, nil
}

// Types lists the registered database types in sorted order.
func (r *Registry) Types() []domain.DatabaseType {
	out := make([]domain.DatabaseType, 0, len(r.engines))
	for t := range r.engines {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Open connects the engine registered for t and returns it with its
// statement validator, which may be nil.
func (r *Registry) Open(ctx context.Context, t domain.DatabaseType, url string, opts port.EngineOptions, logger *slog.Logger) (port.Engine, port.QueryValidator, error) {
	reg, err := r.Lookup(t)
	if err != nil {
		return nil, nil, err
	}
	engine, err := reg.Open(ctx, url, opts, logger)
	if err != nil {
		return nil, nil, &domain.ConnectionError{Op: "connect to " + reg.DisplayName, Err: err}
	}
	var validator port.QueryValidator
	if reg.Validator != nil {
		validator = reg.Validator()
	}
	logger.InfoContext(ctx, "connected to source",
		slog.String("db_type", string(t)),
		slog.String("host", engine.Target().DatabaseHost),
		slog.String("database", engine.Target().DatabaseName),
	)
	return engine, validator, nil
}
