package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix   = "org.mpris.MediaPlayer2."
	mprisPath     = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisMetadata = "org.mpris.MediaPlayer2.Player.Metadata"
)

// MediaBus is the slice of the session bus the MPRIS widget needs.
type MediaBus interface {
	// Players lists the bus names of running MPRIS players.
	Players() ([]string, error)
	// Metadata reads the Player Metadata property from a bus name.
	Metadata(dest string) (map[string]dbus.Variant, error)
}

// sessionBus implements MediaBus over a live D-Bus connection.
type sessionBus struct {
	conn *dbus.Conn
}

// NewMediaBus wraps a session bus connection.
func NewMediaBus(conn *dbus.Conn) MediaBus {
	return &sessionBus{conn: conn}
}

func (b *sessionBus) Players() ([]string, error) {
	var names []string
	err := b.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}
	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	return players, nil
}

func (b *sessionBus) Metadata(dest string) (map[string]dbus.Variant, error) {
	variant, err := b.conn.Object(dest, mprisPath).GetProperty(mprisMetadata)
	if err != nil {
		return nil, err
	}
	meta, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", variant.Value())
	}
	return meta, nil
}

// MPRIS shows the current track of an MPRIS media player.
type MPRIS struct {
	log      *slog.Logger
	bus      MediaBus
	player   string // Short name, e.g. "spotify"; empty picks the first player
	interval time.Duration
}

// NewMPRIS builds the media player widget.
func NewMPRIS(log *slog.Logger, bus MediaBus, player string, interval time.Duration) *MPRIS {
	return &MPRIS{
		log:      log.With("widget", "mpris"),
		bus:      bus,
		player:   player,
		interval: interval,
	}
}

// Name implements Widget.
func (w *MPRIS) Name() string {
	return "mpris"
}

// Interval implements Widget.
func (w *MPRIS) Interval() time.Duration {
	return w.interval
}

// Poll implements Widget. No running player renders an empty segment,
// not an error.
func (w *MPRIS) Poll(ctx context.Context) State {
	dest, err := w.resolvePlayer()
	if err != nil {
		w.log.Warn("player lookup failed", "error", err)
		return State{}
	}
	if dest == "" {
		return State{}
	}

	meta, err := w.bus.Metadata(dest)
	if err != nil {
		w.log.Warn("metadata read failed", "player", dest, "error", err)
		return State{}
	}
	return State{Text: FormatTrack(metaString(meta, "xesam:title"), metaArtist(meta))}
}

func (w *MPRIS) resolvePlayer() (string, error) {
	players, err := w.bus.Players()
	if err != nil {
		return "", err
	}
	if w.player != "" {
		want := mprisPrefix + w.player
		for _, p := range players {
			if p == want || strings.HasPrefix(p, want+".") {
				return p, nil
			}
		}
		return "", nil
	}
	if len(players) == 0 {
		return "", nil
	}
	return players[0], nil
}

// FormatTrack joins title and artist, hiding whichever is missing.
func FormatTrack(title, artist string) string {
	title = strings.Join(strings.Fields(title), " ")
	artist = strings.Join(strings.Fields(artist), " ")

	switch {
	case title == "" && artist == "":
		return ""
	case artist == "":
		return title
	case title == "":
		return artist
	default:
		return title + " - " + artist
	}
}

func metaString(meta map[string]dbus.Variant, key string) string {
	if v, ok := meta[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func metaArtist(meta map[string]dbus.Variant) string {
	v, ok := meta["xesam:artist"]
	if !ok {
		return ""
	}
	switch val := v.Value().(type) {
	case []string:
		return strings.Join(val, ", ")
	case string:
		return val
	}
	return ""
}
