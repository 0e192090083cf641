// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runoshun/taskstream/internal/domain"
	"github.com/runoshun/taskstream/internal/infra/config"
	"github.com/runoshun/taskstream/internal/infra/logging"
	"github.com/runoshun/taskstream/internal/infra/producer"
	"github.com/runoshun/taskstream/internal/infra/sse"
	"github.com/runoshun/taskstream/internal/session"
)

// Config holds the application paths.
type Config struct {
	ProjectDir string // Directory holding .taskstream.toml; relative plan paths resolve against it
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for the
// session controller and the demo producer.
type Container struct {
	// Ports (interfaces bound to implementations)
	Transport     domain.Transport
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	SessionLog    domain.Logger

	// Pointer fields
	Logger    *slog.Logger // Process log on stderr
	AppConfig *domain.Config
	closeLog  func() error

	// Configuration
	Config Config
}

// New creates a new Container for the project in dir.
// An unreadable config file falls back to the defaults with a warning.
func New(dir string) (*Container, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	cfg := Config{ProjectDir: absDir}

	configLoader := config.NewLoader(absDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		appConfig = domain.NewDefaultConfig()
		appConfig.Warnings = append(appConfig.Warnings, fmt.Sprintf("config not loaded: %v", err))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(appConfig.Log.Level),
	}))
	sessionLog := logging.New(appConfig.Log.Dir, logging.ParseLevel(appConfig.Log.Level))

	return &Container{
		Transport:     sse.New(sse.WithOpenTimeout(appConfig.Stream.OpenTimeout.Std())),
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(absDir),
		SessionLog:    sessionLog,
		Logger:        logger,
		AppConfig:     appConfig,
		closeLog:      sessionLog.Close,
		Config:        cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
// Config files are read from and written to cfg.ProjectDir only.
func NewWithDeps(cfg Config, appConfig *domain.Config, transport domain.Transport, logger *slog.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	return &Container{
		Transport:     transport,
		ConfigLoader:  config.NewLoaderWithGlobalDir(cfg.ProjectDir, ""),
		ConfigManager: config.NewManagerWithGlobalDir(cfg.ProjectDir, ""),
		SessionLog:    logging.Nop(),
		Logger:        logger,
		AppConfig:     appConfig,
		Config:        cfg,
	}
}

// Close releases log files.
func (c *Container) Close() error {
	if c.closeLog == nil {
		return nil
	}
	return c.closeLog()
}

// SetEndpoint overrides the configured stream endpoint.
func (c *Container) SetEndpoint(endpoint string) {
	c.AppConfig.Stream.Endpoint = endpoint
}

// NewController returns a session controller streaming from the configured
// endpoint and publishing to pub.
func (c *Container) NewController(pub session.Publisher) *session.Controller {
	return session.NewController(c.Transport, c.AppConfig.Stream.Endpoint,
		session.WithPublisher(pub),
		session.WithLogger(c.SessionLog),
	)
}

// NewProducer returns the demo producer configured by [serve].
func (c *Container) NewProducer() (*producer.Server, error) {
	serve := c.AppConfig.Serve
	var planner producer.Planner = producer.OutlinePlanner{}
	if serve.Plan != "" {
		path := serve.Plan
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Config.ProjectDir, path)
		}
		plan, err := producer.LoadPlanFile(path)
		if err != nil {
			return nil, err
		}
		planner = plan
	}
	return producer.New(producer.Options{
		Planner:    planner,
		Logger:     c.Logger,
		ChunkDelay: serve.ChunkDelay.Std(),
		ChunkSize:  serve.ChunkSize,
		MaxTasks:   serve.MaxTasks,
	}), nil
}
