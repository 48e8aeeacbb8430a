package audio

import (
	"log/slog"
	"sync"
)

// UnreadSource exposes the current unread count.
type UnreadSource interface {
	Count() int
}

// soundPlayer is satisfied by *Player; tests substitute a fake.
type soundPlayer interface {
	Play(path string) error
}

// Chime plays a sound when the unread count goes up. It registers as a
// summary listener; the count is read back from the source on each
// refresh.
type Chime struct {
	log    *slog.Logger
	player soundPlayer
	source UnreadSource
	sound  string

	mu   sync.Mutex
	last int
}

// NewChime creates a chime listener.
func NewChime(log *slog.Logger, player soundPlayer, source UnreadSource, sound string) *Chime {
	return &Chime{
		log:    log.With("component", "chime"),
		player: player,
		source: source,
		sound:  sound,
	}
}

// Refreshed implements the summary listener. Playback runs off the
// engine goroutine so a slow audio stack cannot delay polling.
func (c *Chime) Refreshed() {
	count := c.source.Count()

	c.mu.Lock()
	rose := count > c.last
	c.last = count
	c.mu.Unlock()

	if !rose {
		return
	}
	go func() {
		if err := c.player.Play(c.sound); err != nil {
			c.log.Warn("failed to play chime", "sound", c.sound, "error", err)
		}
	}()
}
