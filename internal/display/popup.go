// Package display renders the notification popup as a GTK4 layer-shell
// overlay.
package display

import (
	"fmt"
	"log/slog"
	"strings"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/model"
)

const popupMargin = 10

// RecordSource supplies the cached notifications to render.
type RecordSource interface {
	Records() []*model.Record
}

// Popup is a transient overlay listing the cached notifications. It
// never fetches; the cache belongs to the summary widget.
type Popup struct {
	app    *gtk.Application
	log    *slog.Logger
	source RecordSource
	cfg    config.PopupConfig

	// Only touched on the GTK main thread
	window *gtk.Window
}

// NewPopup creates the popup controller.
func NewPopup(app *gtk.Application, log *slog.Logger, source RecordSource, cfg config.PopupConfig) *Popup {
	return &Popup{
		app:    app,
		log:    log.With("component", "popup"),
		source: source,
		cfg:    cfg,
	}
}

// Toggle shows or dismisses the popup. Safe to call from any goroutine;
// the work is marshaled onto the GTK main thread.
func (p *Popup) Toggle() {
	glib.IdleAdd(func() {
		if p.window != nil {
			p.dismiss()
			return
		}
		p.show()
	})
}

// Dismiss hides the popup if visible. Safe to call from any goroutine.
func (p *Popup) Dismiss() {
	glib.IdleAdd(func() {
		p.dismiss()
	})
}

func (p *Popup) dismiss() {
	if p.window == nil {
		return
	}
	p.window.Destroy()
	p.window = nil
}

func (p *Popup) show() {
	records := p.source.Records()

	p.window = gtk.NewWindow()
	p.window.SetApplication(p.app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.SetDefaultSize(p.cfg.Width, -1)

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "hivebar-popup")
	p.anchor()

	p.window.SetChild(p.buildList(records))

	// Click anywhere dismisses
	click := gtk.NewGestureClick()
	click.ConnectReleased(func(nPress int, x, y float64) {
		p.dismiss()
	})
	p.window.AddController(click)

	p.window.Present()
	p.log.Debug("popup shown", "records", len(records))
}

func (p *Popup) buildList(records []*model.Record) *gtk.Box {
	box := gtk.NewBox(gtk.OrientationVertical, 6)
	box.SetMarginTop(12)
	box.SetMarginBottom(12)
	box.SetMarginStart(12)
	box.SetMarginEnd(12)

	if len(records) == 0 {
		empty := gtk.NewLabel("No notifications")
		empty.SetXAlign(0)
		box.Append(empty)
		return box
	}

	shown := records
	extra := 0
	if p.cfg.MaxItems > 0 && len(shown) > p.cfg.MaxItems {
		extra = len(shown) - p.cfg.MaxItems
		shown = shown[:p.cfg.MaxItems]
	}

	for _, r := range shown {
		label := gtk.NewLabel("")
		label.SetMarkup(recordMarkup(r))
		label.SetXAlign(0)
		label.SetWrap(true)
		box.Append(label)
	}
	if extra > 0 {
		more := gtk.NewLabel("")
		more.SetMarkup(fmt.Sprintf("<small>+%d more</small>", extra))
		more.SetXAlign(0)
		box.Append(more)
	}
	return box
}

func (p *Popup) anchor() {
	top := strings.HasPrefix(p.cfg.Position, "top")
	if top {
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, popupMargin)
	} else {
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, popupMargin)
	}

	switch {
	case strings.HasSuffix(p.cfg.Position, "left"):
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, popupMargin)
	case strings.HasSuffix(p.cfg.Position, "right"):
		layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, popupMargin)
	}
}

// recordMarkup renders one notification as Pango markup.
func recordMarkup(r *model.Record) string {
	return fmt.Sprintf("<b>%s</b> %s\n<small>%s</small>",
		escapeMarkup(r.Sender()),
		escapeMarkup(r.SummaryTruncated(80)),
		escapeMarkup(r.RelativeTime()))
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}
