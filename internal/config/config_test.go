package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Notifications.Interval.Duration())
	assert.Equal(t, DefaultNotifyLimit, cfg.Notifications.Limit)
	assert.True(t, cfg.Notifications.OnlyUnread)
	assert.Equal(t, BarFormatPlain, cfg.Bar.Format)
	assert.NotEmpty(t, cfg.Hive.Nodes)
	assert.NotEmpty(t, cfg.Swallow.Terminals)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivebar.toml")
	content := `
[hive]
account = "thecrazygm"

[notifications]
interval = "90s"
limit = 10

[[tickers]]
symbol = "BTC"
interval = "5m"

[bar]
format = "waybar"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "thecrazygm", cfg.Hive.Account)
	assert.Equal(t, 90*time.Second, cfg.Notifications.Interval.Duration())
	assert.Equal(t, 10, cfg.Notifications.Limit)
	assert.Equal(t, BarFormatWaybar, cfg.Bar.Format)

	// Untouched sections keep their defaults
	assert.Equal(t, DefaultNotifyIcon, cfg.Notifications.Icon)
	assert.Equal(t, DefaultNodes, cfg.Hive.Nodes)

	require.Len(t, cfg.Tickers, 1)
	assert.Equal(t, "BTC", cfg.Tickers[0].Symbol)
	assert.Equal(t, 5*time.Minute, cfg.Tickers[0].Interval.Duration())
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivebar.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid\ntoml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivebar.toml")
	content := `
[bar]
format = "lemonbar"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bar.format", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "no nodes",
			mutate:    func(c *Config) { c.Hive.Nodes = nil },
			wantField: "hive.nodes",
		},
		{
			name:      "zero notification interval",
			mutate:    func(c *Config) { c.Notifications.Interval = 0 },
			wantField: "notifications.interval",
		},
		{
			name:      "limit out of range",
			mutate:    func(c *Config) { c.Notifications.Limit = 500 },
			wantField: "notifications.limit",
		},
		{
			name:      "ticker without symbol or id",
			mutate:    func(c *Config) { c.Tickers[0].Symbol = "" },
			wantField: "tickers[0]",
		},
		{
			name: "now playing enabled without url",
			mutate: func(c *Config) {
				c.NowPlaying.Enabled = true
			},
			wantField: "now_playing.url",
		},
		{
			name: "channel placeholder without channel",
			mutate: func(c *Config) {
				c.NowPlaying.Enabled = true
				c.NowPlaying.URL = "http://localhost:9999/{channel}/now"
			},
			wantField: "now_playing.channel",
		},
		{
			name: "template format without template",
			mutate: func(c *Config) {
				c.Bar.Format = BarFormatTemplate
			},
			wantField: "bar.template",
		},
		{
			name:      "bad popup position",
			mutate:    func(c *Config) { c.Popup.Position = "center" },
			wantField: "popup.position",
		},
		{
			name: "swallow depth out of range",
			mutate: func(c *Config) {
				c.Swallow.Enabled = true
				c.Swallow.MaxDepth = 0
			},
			wantField: "swallow.max_depth",
		},
		{
			name: "chime enabled without sound",
			mutate: func(c *Config) {
				c.Chime.Enabled = true
			},
			wantField: "chime.sound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "hivebar.toml")

	cfg := DefaultConfig()
	cfg.Hive.Account = "alice"
	cfg.Bar.Separator = " :: "
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Hive.Account)
	assert.Equal(t, " :: ", loaded.Bar.Separator)
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration

	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("30")))
	assert.Equal(t, 30*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	assert.Equal(t, 90*time.Minute, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestWIF(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hive.WIFEnv = "HIVEBAR_TEST_WIF"

	t.Setenv("HIVEBAR_TEST_WIF", "5JTestKey")
	assert.Equal(t, "5JTestKey", cfg.WIF())

	t.Setenv("HIVEBAR_TEST_WIF", "")
	assert.Empty(t, cfg.WIF())
}
