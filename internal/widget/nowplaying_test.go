package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thecrazygm/hivebar/internal/config"
)

func nowPlayingWidget(t *testing.T, cfg config.NowPlayingConfig, handler http.HandlerFunc) *NowPlaying {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if cfg.URL == "" {
		cfg.URL = srv.URL
	} else {
		cfg.URL = srv.URL + cfg.URL
	}
	return NewNowPlaying(testLogger(), srv.Client(), cfg)
}

func jsonTrack(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestNowPlayingBasicFormat(t *testing.T) {
	w := nowPlayingWidget(t, config.NowPlayingConfig{},
		jsonTrack(`{"title":"Bohemian Rhapsody","artist":"Queen"}`))

	state := w.Poll(context.Background())
	assert.Equal(t, "Bohemian Rhapsody - Queen", state.Text)
	assert.Empty(t, state.Class)
}

func TestNowPlayingVerboseFormat(t *testing.T) {
	playedAt := time.Now().Add(-3 * time.Minute).UnixMilli()
	w := nowPlayingWidget(t, config.NowPlayingConfig{Verbose: true},
		jsonTrack(`{"title":"Song","artist":"Band","channel_id":"groove","played_at_ms":`+
			strconv.FormatInt(playedAt, 10)+`}`))

	state := w.Poll(context.Background())
	assert.Equal(t, "[groove] Song - Band (3 minutes ago)", state.Text)
}

func TestNowPlayingChannelPlaceholder(t *testing.T) {
	var gotPath string
	w := nowPlayingWidget(t, config.NowPlayingConfig{URL: "/np/{channel}", Channel: "lofi"},
		func(rw http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			jsonTrack(`{"title":"T","artist":"A"}`)(rw, r)
		})

	w.Poll(context.Background())
	assert.Equal(t, "/np/lofi", gotPath)
}

func TestNowPlayingTruncation(t *testing.T) {
	w := nowPlayingWidget(t, config.NowPlayingConfig{MaxChars: 10},
		jsonTrack(`{"title":"A Very Long Title","artist":"Someone"}`))

	state := w.Poll(context.Background())
	assert.Equal(t, "A Very Lo…", state.Text)
}

func TestNowPlayingErrorCases(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
		},
		{
			name: "non-json content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>nope</html>"))
			},
		},
		{
			name:    "missing title",
			handler: jsonTrack(`{"artist":"Queen"}`),
		},
		{
			name:    "missing artist",
			handler: jsonTrack(`{"title":"Song"}`),
		},
		{
			name:    "malformed json",
			handler: jsonTrack(`{"title":`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := nowPlayingWidget(t, config.NowPlayingConfig{}, tt.handler)
			state := w.Poll(context.Background())
			assert.Equal(t, nowPlayingErrorText, state.Text)
			assert.Equal(t, ClassError, state.Class)
		})
	}
}
