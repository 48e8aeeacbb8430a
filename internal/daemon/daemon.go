package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/thecrazygm/hivebar/internal/audio"
	"github.com/thecrazygm/hivebar/internal/bar"
	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/control"
	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/swallow"
	"github.com/thecrazygm/hivebar/internal/widget"

	"github.com/thecrazygm/hivebar/internal/coingecko"
)

// PopupController is what the daemon needs from the popup; the GTK
// implementation is injected from main once the application is up.
type PopupController interface {
	Toggle()
}

// Daemon assembles the widget engine, bar output, control interface,
// and swallow hooks from one config.
type Daemon struct {
	log     *slog.Logger
	cfg     *config.Config
	engine  *widget.Engine
	summary *widget.Summary
	writer  *bar.Writer
	control *control.Server
	player  *audio.Player

	swallowSession *swallow.X11Session
	swallowMgr     *swallow.Manager

	mu      sync.Mutex
	popup   PopupController
	outputs []widget.Output
}

// New builds a daemon from the config. Setup-time problems (bad ticker
// symbols, bad templates) surface here as ConfigError.
func New(log *slog.Logger, cfg *config.Config) (*Daemon, error) {
	d := &Daemon{log: log, cfg: cfg}

	formatter, err := bar.NewFormatter(cfg.Bar)
	if err != nil {
		return nil, err
	}
	d.writer = bar.NewWriter(log, formatter, cfg.Bar.FIFO)

	d.engine = widget.NewEngine(log, func(outputs []widget.Output) {
		d.mu.Lock()
		d.outputs = outputs
		d.mu.Unlock()
		d.writer.Publish(outputs)
	})

	if err := d.buildWidgets(); err != nil {
		return nil, err
	}

	d.control = control.NewServer(log, control.Handlers{
		TogglePopup: d.togglePopup,
		MarkAsRead:  d.markAsRead,
		Refresh:     d.refresh,
		Status:      d.status,
	})

	if cfg.Swallow.Enabled {
		session, err := swallow.NewX11Session()
		if err != nil {
			return nil, fmt.Errorf("swallow requires an X session: %w", err)
		}
		d.swallowSession = session
		d.swallowMgr = swallow.NewManager(log, session, swallow.GopsutilTree{},
			cfg.Swallow.Terminals, cfg.Swallow.MaxDepth)
	}

	return d, nil
}

func (d *Daemon) buildWidgets() error {
	cfg := d.cfg
	hiveClient := hive.NewClient(cfg.Hive.Nodes, cfg.Hive.Timeout.Duration())

	if cfg.Notifications.Enabled {
		d.summary = widget.NewSummary(d.log, hiveClient, cfg)
		d.engine.Add(d.summary)
		d.engine.Add(widget.NewList(d.summary, cfg.Notifications.MaxShown, d.engine))

		if cfg.Chime.Enabled {
			d.player = audio.NewPlayer(d.log, cfg.Chime.Volume)
			d.summary.Register(audio.NewChime(d.log, d.player, d.summary, cfg.ChimeSound()))
		}
	}

	geckoClient := coingecko.NewClient()
	for _, tc := range cfg.Tickers {
		ticker, err := widget.NewTicker(d.log, geckoClient, tc)
		if err != nil {
			return err
		}
		d.engine.Add(ticker)
	}

	if cfg.Rewards.Enabled {
		d.engine.Add(widget.NewRewards(d.log, hiveClient, cfg.Hive.Account,
			cfg.Rewards.Interval.Duration()))
	}

	if cfg.NowPlaying.Enabled {
		d.engine.Add(widget.NewNowPlaying(d.log, nil, cfg.NowPlaying))
	}

	if cfg.MPRIS.Enabled {
		conn, err := dbus.SessionBus()
		if err != nil {
			return fmt.Errorf("mpris widget requires a session bus: %w", err)
		}
		d.engine.Add(widget.NewMPRIS(d.log, widget.NewMediaBus(conn),
			cfg.MPRIS.Player, cfg.MPRIS.Interval.Duration()))
	}

	return nil
}

// SetPopup injects the popup controller once the GTK application is up.
func (d *Daemon) SetPopup(p PopupController) {
	d.mu.Lock()
	d.popup = p
	d.mu.Unlock()
}

// Summary exposes the notification cache for the popup.
func (d *Daemon) Summary() *widget.Summary {
	return d.summary
}

// Run starts the control interface and the swallow loop, then drives the
// widget engine until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.control.Start(); err != nil {
		return err
	}
	defer d.control.Stop()

	if d.swallowSession != nil {
		go func() {
			if err := d.swallowSession.Run(ctx, d.log, d.swallowMgr); err != nil {
				d.log.Warn("swallow loop stopped", "error", err)
			}
		}()
	}

	d.engine.Run(ctx)

	d.writer.Close()
	if d.player != nil {
		d.player.Close()
	}
	return nil
}

func (d *Daemon) togglePopup() {
	d.mu.Lock()
	popup := d.popup
	d.mu.Unlock()
	if popup == nil {
		d.log.Warn("popup requested but no display is available")
		return
	}
	popup.Toggle()
}

func (d *Daemon) markAsRead(ctx context.Context) (string, error) {
	if d.summary == nil {
		return "notifications widget is disabled", nil
	}
	msg, err := d.summary.MarkAsRead(ctx)
	if err != nil {
		return "", err
	}
	d.engine.Refresh(d.summary.Name())
	return msg, nil
}

func (d *Daemon) refresh(name string) {
	if name == "" {
		d.engine.RefreshAll()
		return
	}
	d.engine.Refresh(name)
}

func (d *Daemon) status() control.StatusSnapshot {
	d.mu.Lock()
	outputs := d.outputs
	d.mu.Unlock()

	snapshot := control.StatusSnapshot{}
	if d.summary != nil {
		snapshot.Unread = d.summary.Count()
	}
	for _, o := range outputs {
		snapshot.Widgets = append(snapshot.Widgets, control.WidgetStatus{
			Name:  o.Name,
			Text:  o.Text,
			Class: o.Class,
		})
	}
	return snapshot
}
