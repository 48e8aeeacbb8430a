// Package main is the entry point for the hivebard status daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/daemon"
	"github.com/thecrazygm/hivebar/internal/display"
)

const appID = "io.github.thecrazygm.hivebard"

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to the config file")
	headless := flag.Bool("headless", false, "Run without the GTK popup (bar output and control interface only)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("hivebard version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("starting hivebard", "version", version, "config", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Valid config changes restart the daemon internals with the new
	// settings; invalid ones are logged and ignored by the watcher.
	cfgCh := make(chan *config.Config, 1)
	watcher, err := daemon.NewConfigWatcher(logger, path, func(newCfg *config.Config) {
		select {
		case cfgCh <- newCfg:
		default:
		}
	})
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher failed to start", "error", err)
		}
		defer watcher.Stop()
	}

	if *headless {
		go func() {
			sig := <-sigCh
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		}()
		if err := runLoop(ctx, logger, cfg, cfgCh, nil); err != nil {
			os.Exit(1)
		}
		return
	}

	app := adw.NewApplication(appID, 0)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		// No window at startup; the popup appears on demand
		app.Hold()

		go func() {
			if err := runLoop(ctx, logger, cfg, cfgCh, &app.Application); err != nil {
				logger.Error("daemon failed", "error", err)
			}
			glib.IdleAdd(func() {
				app.Quit()
			})
		}()
	})

	// GTK sees no arguments; flags were consumed above
	if status := app.Run([]string{os.Args[0]}); status != 0 {
		os.Exit(status)
	}
}

// runLoop runs the daemon, rebuilding it whenever a new config arrives.
// A nil gtkApp disables the popup.
func runLoop(ctx context.Context, logger *slog.Logger, cfg *config.Config, cfgCh <-chan *config.Config, gtkApp *gtk.Application) error {
	for {
		d, err := daemon.New(logger, cfg)
		if err != nil {
			logger.Error("failed to build daemon", "error", err)
			return err
		}
		if gtkApp != nil && d.Summary() != nil {
			d.SetPopup(display.NewPopup(gtkApp, logger, d.Summary(), cfg.Popup))
		}

		runCtx, cancelRun := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- d.Run(runCtx)
		}()

		select {
		case <-ctx.Done():
			cancelRun()
			<-done
			return nil

		case newCfg := <-cfgCh:
			logger.Info("applying new configuration")
			cfg = newCfg
			cancelRun()
			<-done

		case err := <-done:
			cancelRun()
			if err != nil {
				logger.Error("daemon stopped", "error", err)
			}
			return err
		}
	}
}
