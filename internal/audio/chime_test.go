package audio

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePlayer struct {
	mu    sync.Mutex
	plays []string
}

func (f *fakePlayer) Play(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, path)
	return nil
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type fakeSource struct {
	n int
}

func (f *fakeSource) Count() int { return f.n }

func waitPlays(t *testing.T, p *fakePlayer, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.count() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, want, p.count())
}

func TestChimePlaysWhenCountRises(t *testing.T) {
	player := &fakePlayer{}
	source := &fakeSource{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	chime := NewChime(log, player, source, "/tmp/ding.wav")

	source.n = 3
	chime.Refreshed()
	waitPlays(t, player, 1)

	// Same count, no new chime
	chime.Refreshed()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, player.count())

	// Count dropped (marked as read), still silent
	source.n = 0
	chime.Refreshed()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, player.count())

	// Rises again
	source.n = 1
	chime.Refreshed()
	waitPlays(t, player, 2)
}

func TestVolumeToDecibels(t *testing.T) {
	assert.Equal(t, float64(-10), volumeToDecibels(0))
	assert.InDelta(t, 0, volumeToDecibels(1), 1e-9)
	assert.InDelta(t, -1, volumeToDecibels(0.5), 1e-9)
}
