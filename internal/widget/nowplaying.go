package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thecrazygm/hivebar/internal/config"
)

const nowPlayingErrorText = "Now Playing: Error"

// NowPlaying polls a local JSON endpoint describing the current track.
type NowPlaying struct {
	log        *slog.Logger
	httpClient *http.Client
	url        string
	verbose    bool
	maxChars   int
	interval   time.Duration
}

// NewNowPlaying builds the now-playing widget. A {channel} placeholder
// in the URL is substituted once at setup time.
func NewNowPlaying(log *slog.Logger, httpClient *http.Client, cfg config.NowPlayingConfig) *NowPlaying {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &NowPlaying{
		log:        log.With("widget", "now-playing"),
		httpClient: httpClient,
		url:        strings.ReplaceAll(cfg.URL, "{channel}", cfg.Channel),
		verbose:    cfg.Verbose,
		maxChars:   cfg.MaxChars,
		interval:   cfg.Interval.Duration(),
	}
}

// Name implements Widget.
func (w *NowPlaying) Name() string {
	return "now-playing"
}

// Interval implements Widget.
func (w *NowPlaying) Interval() time.Duration {
	return w.interval
}

type track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ChannelID  string `json:"channel_id"`
	PlayedAtMS int64  `json:"played_at_ms"`
}

// Poll implements Widget.
func (w *NowPlaying) Poll(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		w.log.Warn("bad now-playing url", "error", err)
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.Warn("now-playing fetch failed", "error", err)
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		w.log.Warn("now-playing fetch failed", "status", resp.StatusCode)
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		w.log.Warn("now-playing returned non-JSON content", "content_type", resp.Header.Get("Content-Type"))
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}

	var tr track
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		w.log.Warn("now-playing decode failed", "error", err)
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}
	if tr.Title == "" || tr.Artist == "" {
		return State{Text: nowPlayingErrorText, Class: ClassError}
	}

	return State{Text: w.format(tr)}
}

func (w *NowPlaying) format(tr track) string {
	text := fmt.Sprintf("%s - %s", tr.Title, tr.Artist)
	if w.verbose {
		if tr.ChannelID != "" {
			text = fmt.Sprintf("[%s] %s", tr.ChannelID, text)
		}
		if tr.PlayedAtMS > 0 {
			playedAt := time.UnixMilli(tr.PlayedAtMS)
			text = fmt.Sprintf("%s (%s)", text, humanize.Time(playedAt))
		}
	}
	return truncate(text, w.maxChars)
}

// truncate cuts text to max runes, appending an ellipsis when cut.
// Zero max means no limit.
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
