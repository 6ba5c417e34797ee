package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tmoosting/tactical-tangle/internal/cache"
	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/internal/dispatcher"
	"github.com/tmoosting/tactical-tangle/internal/editor"
	"github.com/tmoosting/tactical-tangle/internal/influx"
	"github.com/tmoosting/tactical-tangle/internal/logging"
	intOtel "github.com/tmoosting/tactical-tangle/internal/otel"
	"github.com/tmoosting/tactical-tangle/internal/roster"
	"github.com/tmoosting/tactical-tangle/internal/storage"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

const (
	logName = "formation"

	telemetryBuffer = 1000
)

// app is one CLI session: logging, storage and the editor service.
type app struct {
	start   time.Time
	session string

	logs    *logging.SlogManager
	logger  *slog.Logger
	logFile *os.File
	graylog io.Closer
	otel    *intOtel.Provider
	influx  *influx.Manager

	backend    storage.Backend
	service    *editor.Service
	dispatcher *dispatcher.Dispatcher
	roster     []core.Character

	closed bool
}

// newApp loads configuration from configDir and wires every component.
// A missing config file falls back to defaults.
func newApp(ctx context.Context, configDir string, stderr io.Writer) (*app, error) {
	a := &app{start: time.Now(), session: uuid.NewString(), logs: logging.NewSlogManager()}

	// console logging until the session log file exists
	a.logs.Setup(logging.Options{File: stderr, Level: "warn"})
	a.logger = a.logs.Logger()

	if err := config.Load(configDir); err != nil {
		config.LoadDefaults()
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	if err := a.setupLogging(ctx); err != nil {
		return nil, err
	}

	if err := a.setupRoster(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.setupService(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) setupLogging(ctx context.Context) error {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := logging.LogFilePath(logsDir, logName, a.start)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		a.otel, err = intOtel.New(ctx, intOtel.FromConfig(otelCfg, f))
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	opts := logging.Options{
		File:        f,
		Level:       config.GetString("logLevel"),
		ServiceName: otelCfg.ServiceName,
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("session", a.session), slog.String("storage", config.GetStorageConfig().Type)}
		},
	}
	if a.otel != nil {
		opts.Provider = a.otel.LoggerProvider()
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, otelCfg.ServiceName)
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "address", gl.Address, "error", err)
		} else {
			opts.Graylog = w
			a.graylog = w
		}
	}

	a.logs.Setup(opts)
	a.logger = a.logs.Logger()
	a.logger.Info("Logging to file", "path", path)
	return nil
}

func (a *app) setupRoster(ctx context.Context) error {
	cfg := config.GetRosterConfig()
	if cfg.Source == "" || cfg.Source == "none" {
		return nil
	}
	p, err := roster.NewProvider(cfg)
	if err != nil {
		return err
	}
	chars, err := p.Characters(ctx)
	if err != nil {
		a.logger.Warn("Failed to load roster, character assignment is limited", "source", cfg.Source, "error", err)
		chars = []core.Character{}
	}
	a.roster = chars
	a.logger.Info("Loaded roster", "source", cfg.Source, "characters", len(chars))
	return nil
}

func (a *app) setupService(ctx context.Context) error {
	var err error
	a.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	storageCfg := config.GetStorageConfig()
	a.backend, err = storage.NewBackend(storageCfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := a.backend.Init(); err != nil {
		a.backend = nil
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	a.logger.Info("Storage backend initialized", "type", storageCfg.Type)

	deps := editor.Dependencies{
		Config:  config.GetEditorConfig(),
		Backend: a.backend,
		Logger:  a.logger,
	}
	if a.roster != nil {
		deps.Roster = cache.NewRosterCache(a.roster)
	}

	if ic := config.GetInfluxConfig(); ic.Enabled {
		backup := filepath.Join(config.GetString("logsDir"), fmt.Sprintf("telemetry_%s.lp.gz", a.start.Format("20060102_150405")))
		a.influx = influx.NewManager(ic, zerolog.New(a.logFile).With().Timestamp().Logger(), backup)
		if err := a.influx.Connect(ctx); err != nil {
			a.logger.Warn("Telemetry disabled", "error", err)
			a.influx = nil
		} else {
			editor.RegisterTelemetry(a.dispatcher, a.influx, telemetryBuffer)
			deps.Observer = editor.DispatchObserver{Dispatcher: a.dispatcher}
		}
	}

	a.service, err = editor.NewService(deps)
	if err != nil {
		return fmt.Errorf("failed to create editor: %w", err)
	}
	a.service.RegisterHandlers(a.dispatcher)
	return nil
}

// Close persists every army and releases the session resources. It is
// safe to call more than once.
func (a *app) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	switch {
	case a.service != nil:
		if err := a.service.Close(); err != nil {
			errs = append(errs, err)
		}
	case a.backend != nil:
		if err := a.backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.dispatcher != nil {
		// drain queued telemetry before its sink closes
		a.dispatcher.Close()
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing telemetry: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.logs.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.logger.Info("Session closed", "duration", time.Since(a.start))
	if a.graylog != nil {
		if err := a.graylog.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// exportPath returns the file the backend wrote on Close, if any.
func (a *app) exportPath() string {
	if e, ok := a.backend.(storage.Exporter); ok {
		return e.ExportedFilePath()
	}
	return ""
}
