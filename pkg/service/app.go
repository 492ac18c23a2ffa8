package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Suhaibinator/SHooks/pkg/hook"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config configures an App.
type Config struct {
	Logger     *zap.Logger           // Logger for failed calls; nil disables logging
	Registerer prometheus.Registerer // Registry for call metrics; nil disables metrics
	Namespace  string                // Namespace for call metrics
}

// App is a registry of services. Every call goes through the service's
// before chain, the service method, then its after chain.
type App struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	services map[string]*mounted

	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

type mounted struct {
	path    string
	service Service
	hooks   Hooks
}

// NewApp creates an App.
func NewApp(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{
		logger:   logger,
		services: make(map[string]*mounted),
	}

	if config.Registerer != nil {
		app.calls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "service_calls_total",
			Help:      "Service calls by path, method and outcome.",
		}, []string{"path", "method", "outcome"})
		app.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "service_call_duration_seconds",
			Help:      "Duration of service calls including hooks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"})
		config.Registerer.MustRegister(app.calls, app.duration)
	}

	return app
}

// CleanPath strips leading and trailing slashes from a service path.
func CleanPath(path string) string {
	return strings.Trim(path, "/")
}

// Use mounts svc at path with the given hooks. Path may contain route
// parameters such as /stores/:storeId/candies. Mounting a path twice
// replaces the earlier service.
func (a *App) Use(path string, svc Service, hooks *Hooks) {
	m := &mounted{path: CleanPath(path), service: svc}
	if hooks != nil {
		m.hooks = *hooks
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.services[m.path] = m
}

// Paths returns the mounted service paths in sorted order.
func (a *App) Paths() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	paths := make([]string, 0, len(a.services))
	for p := range a.services {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Service returns a Getter that loads records from the service at path
// through its hooks.
func (a *App) Service(path string) hook.Getter {
	return &boundService{app: a, path: CleanPath(path)}
}

type boundService struct {
	app  *App
	path string
}

func (s *boundService) Get(ctx context.Context, id string, params *hook.Params) (any, error) {
	return s.app.Call(ctx, s.path, hook.Get, id, nil, params)
}

// Call performs method on the service at path.
// A before hook that sets a result short-circuits the service method.
func (a *App) Call(ctx context.Context, path string, method hook.Method, id string, data map[string]any, params *hook.Params) (any, error) {
	path = CleanPath(path)

	a.mu.RLock()
	m, ok := a.services[path]
	a.mu.RUnlock()
	if !ok {
		return nil, hook.NotFound(fmt.Sprintf("no service at %q", path))
	}

	if params == nil {
		params = &hook.Params{}
	}

	c := hook.NewContext(ctx, method, path)
	c.ID = id
	c.Data = data
	c.Params = params
	c.Service = a.Service(path)

	start := time.Now()
	err := a.run(m, c)
	a.observe(path, method, start, err)

	if err != nil {
		a.logger.Debug("Service call failed",
			zap.Error(err),
			zap.String("path", path),
			zap.String("method", string(method)),
			zap.String("provider", string(params.Provider)),
		)
		return nil, err
	}
	return c.Result, nil
}

func (a *App) run(m *mounted, c *hook.Context) error {
	c.Type = hook.Before
	if err := m.hooks.Before.For(c.Method).Run(c); err != nil {
		return err
	}

	if c.Result == nil {
		if err := dispatch(m.service, c); err != nil {
			return err
		}
	}

	c.Type = hook.After
	return m.hooks.After.For(c.Method).Run(c)
}

func (a *App) observe(path string, method hook.Method, start time.Time, err error) {
	if a.calls == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = hook.AsError(err).Name
	}
	a.calls.WithLabelValues(path, string(method), outcome).Inc()
	a.duration.WithLabelValues(path, string(method)).Observe(time.Since(start).Seconds())
}
