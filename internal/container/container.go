package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/ai"
	"github.com/garyjia/fatura-reader/internal/config"
	"github.com/garyjia/fatura-reader/internal/export"
	httpserver "github.com/garyjia/fatura-reader/internal/interfaces/http"
	"github.com/garyjia/fatura-reader/internal/report"
	"github.com/garyjia/fatura-reader/internal/session"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Overrides for tests and offline runs
	completer ai.Completer
	converter report.Converter

	pipeline *PipelineBundle
	exporter *export.Exporter
	sessions *session.Store
	auth     *httpserver.Authenticator
	server   *httpserver.Server

	// Lifecycle
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ready  atomic.Bool
	closed atomic.Bool
}

// Option customizes a container before Start
type Option func(*Container)

// WithCompleter replaces the configured model client
func WithCompleter(c ai.Completer) Option {
	return func(ct *Container) { ct.completer = c }
}

// WithConverter replaces the headless Chrome converter
func WithConverter(c report.Converter) Option {
	return func(ct *Container) { ct.converter = c }
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	c := &Container{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components:
// 1. Pipeline (reader, model client, validator, derivation, renderer)
// 2. Exporter and session store
// 3. Authenticator and HTTP server
// 4. Session sweeper
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Pipeline
	bundle, err := ProvidePipeline(c.ctx, c.config, c.completer, c.converter, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	c.pipeline = bundle
	c.logger.Info("Pipeline initialized",
		zap.String("provider", c.config.Model.Provider),
		zap.String("model", c.config.Model.Name),
		zap.String("variant", c.config.Pipeline.Variant))

	// Step 2: Exporter and sessions
	c.exporter = export.NewExporter(c.config.Render.IncludeSummary, c.logger)
	c.sessions = session.NewStore(c.config.Session.TTL, c.logger)

	// Step 3: Auth and HTTP
	c.auth, err = httpserver.NewAuthenticator(httpserver.AuthConfig{
		Username: c.config.Auth.Username,
		Password: c.config.Auth.Password,
		Secret:   c.config.Auth.JWTSecret,
		TokenTTL: c.config.Auth.TokenTTL,
	}, c.sessions, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize authenticator: %w", err)
	}
	c.server = httpserver.NewServer(httpserver.ServerConfig{
		Host:         c.config.Server.Host,
		Port:         c.config.Server.Port,
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
		MaxUploadMB:  c.config.Server.MaxUploadMB,
		ArchiveName:  c.config.Render.ArchiveName,
	}, bundle.Processor, c.exporter, c.sessions, c.auth, c.logger)

	// Step 4: Sweeper
	if c.config.Session.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweep(c.config.Session.SweepInterval)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Run serves HTTP until ctx is canceled
func (c *Container) Run(ctx context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	return c.server.Start(ctx)
}

// Close stops the sweeper and the HTTP server.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var errs []error
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, ok bool, msg string) {
		if !ok {
			status.Components[name] = ComponentHealth{Healthy: false, Message: "not initialized"}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true, Message: msg}
	}

	check("pipeline", c.pipeline != nil, c.config.Model.Provider)
	sessions := ""
	if c.sessions != nil {
		sessions = fmt.Sprintf("live sessions: %d", c.sessions.Len())
	}
	check("sessions", c.sessions != nil, sessions)
	check("http", c.server != nil, "")

	return status
}

// Pipeline returns the per-invoice components
func (c *Container) Pipeline() *PipelineBundle {
	return c.pipeline
}

// Server returns the HTTP server
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// Sessions returns the session store
func (c *Container) Sessions() *session.Store {
	return c.sessions
}

func (c *Container) sweep(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sessions.Sweep()
		}
	}
}
