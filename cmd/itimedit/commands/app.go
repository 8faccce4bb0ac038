package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/backend"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/config"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/notify"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/prefs"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/retry"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/timer"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/workspace"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// app bundles the wired client services for a command invocation.
type app struct {
	cfg        *types.Config
	client     backend.Client
	bus        *event.Bus
	prefs      *prefs.Store
	watcher    *prefs.Watcher
	workspace  *workspace.Manager
	controller *timer.Controller
}

// setupApp loads configuration, initializes logging and wires the client
// services against the configured backend, or the in-memory one when no
// backend URL is set.
func setupApp(ctx context.Context) (*app, error) {
	if configDir != "" {
		// Honored by config.Load and GetConfigDir.
		os.Setenv("ITIMEDIT_CONFIG_DIR", configDir)
	}

	workDir, err := GetWorkDir("")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(level)
	logCfg.Pretty = printLogs
	logCfg.LogToFile = true
	logCfg.LogDir = paths.State
	if !printLogs {
		logCfg.Output = io.Discard
	}
	logging.Init(logCfg)

	var client backend.Client
	if cfg.BackendURL != "" {
		ws, err := backend.Dial(backend.Options{
			BaseURL:   cfg.BackendURL,
			AuthToken: cfg.AuthToken,
		})
		if err != nil {
			return nil, err
		}
		client = ws
	} else {
		logging.Info().Msg("no backend configured, using in-memory backend")
		client = backend.NewFake()
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = paths.PrefsPath()
	}
	store := prefs.New(dataDir)

	bus := event.NewBus()
	notifier := notify.NewBusNotifier(bus)
	policy := policyFromConfig(cfg)
	policy.Notifier = notifier

	ws := workspace.NewManager(store, client, policy, notifier, bus)
	if err := ws.Init(ctx); err != nil {
		client.Close()
		return nil, err
	}

	ctrl := timer.NewController(client, policy, ws, notifier, bus, timer.Options{
		HeartbeatInterval: cfg.Heartbeat.Interval(),
	})
	if err := ctrl.Init(ctx); err != nil {
		ws.Teardown()
		client.Close()
		return nil, err
	}

	watcher, err := prefs.NewWatcher(store, bus)
	if err != nil {
		logging.Warn().Err(err).Msg("preference watching disabled")
	} else {
		watcher.Start()
	}

	return &app{
		cfg:        cfg,
		client:     client,
		bus:        bus,
		prefs:      store,
		watcher:    watcher,
		workspace:  ws,
		controller: ctrl,
	}, nil
}

// teardown releases everything in reverse wiring order.
func (a *app) teardown() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			logging.Warn().Err(err).Msg("stopping preference watcher")
		}
	}
	a.controller.Teardown()
	a.workspace.Teardown()
	if err := a.client.Close(); err != nil {
		logging.Warn().Err(err).Msg("closing backend client")
	}
	if err := a.bus.Close(); err != nil {
		logging.Warn().Err(err).Msg("closing event bus")
	}
	logging.Close()
}

func policyFromConfig(cfg *types.Config) retry.Policy {
	p := retry.Default()
	if cfg.Retry == nil {
		return p
	}
	if cfg.Retry.MaxRetries > 0 {
		p.MaxRetries = cfg.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelayMS > 0 {
		p.BaseDelay = time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
	}
	if cfg.Retry.MaxDelayMS > 0 {
		p.MaxDelay = time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond
	}
	return p
}
