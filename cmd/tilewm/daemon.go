//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/bus"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/monitor"
	"github.com/1broseidon/tilewm/internal/overlay"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/theme"
	"github.com/1broseidon/tilewm/internal/transparency"
	"github.com/1broseidon/tilewm/internal/wm"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the window manager daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	}

	settings, err := cfg.BorderSettings()
	if err != nil {
		return err
	}
	bindings, err := hotkeys.Parse(cfg.Hotkeys)
	if err != nil {
		return err
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()

	b := bus.New(cfg.Runtime.ChannelCapacity, logger)

	overlays := overlay.NewManager(overlay.NewX11Factory(backend.Connection()), backend, overlay.Options{
		CreateTimeout: cfg.Runtime.CreateTimeout(),
		Logger:        logger,
	})
	if err := overlays.DestroyStray(); err != nil {
		logger.Warn("failed to clean up stray overlays", "error", err)
	}
	engine := border.New(settings, backend, overlays, logger)

	manager := wm.New(backend, b, wm.Options{
		Workspaces: cfg.Workspaces,
		Rules:      wm.Rules{Ignore: cfg.IgnoreClasses, Float: cfg.FloatClasses},
		Logger:     logger,
	})
	displays, err := backend.Displays()
	if err != nil {
		return fmt.Errorf("failed to list displays: %w", err)
	}
	manager.SyncDisplays(displays)
	logger.Info("displays detected", "count", len(displays))

	themes := theme.NewManager(engine, logger)
	if !cfg.Theme.IsZero() {
		b.Submit(bus.ThemeControl{Theme: cfg.Theme})
	}

	dumpPath := runtimepath.StateDumpPath()
	dispatcher := bus.NewDispatcher(b, bus.Components{
		WM:            manager,
		Borders:       engine,
		Overlays:      overlays,
		Transparency:  transparency.New(backend, cfg.Transparency.Enabled, uint8(cfg.Transparency.Alpha), logger),
		Themes:        themes,
		Monitors:      monitor.NewReconciliator(backend, manager, b, logger),
		Windows:       backend,
		StateDumpPath: dumpPath,
	}, cfg.Runtime.PollInterval(), logger)

	var server *ipc.Server
	if socketPath != "" {
		server = ipc.NewServerAt(socketPath, b, cfg.Runtime.ReplyTimeout(), logger)
	} else if server, err = ipc.NewServer(b, cfg.Runtime.ReplyTimeout(), logger); err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer server.Stop()

	if len(bindings) > 0 {
		if err := hotkeys.NewHandler(backend, b, logger).Register(bindings); err != nil {
			logger.Warn("some hotkeys were not registered", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.Runtime.ReconcileInterval(),
		Logger:   logger,
	}, backend, b)
	go reconciler.Run(ctx)

	if err := backend.Watch(func(ev platform.Event) {
		b.SubmitEvent(ev)
	}); err != nil {
		return fmt.Errorf("failed to watch windows: %w", err)
	}
	clients, err := backend.ClientWindows()
	if err != nil {
		return fmt.Errorf("failed to list existing windows: %w", err)
	}
	active, _ := backend.ActiveWindow()
	logger.Info("adopted existing windows", "count", manager.Adopt(clients, active))
	go backend.EventLoop()
	defer backend.Quit()

	logger.Info("tilewm daemon started", "state_dump", dumpPath)
	err = dispatcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down on signal")
		return nil
	}
	return err
}
