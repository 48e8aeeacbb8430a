// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultNotifyIcon   = "\U0001F514" // bell
	DefaultNotifyEmpty  = "✓"     // check mark
	DefaultNotifyLimit  = 25
	DefaultTickerFormat = "{{.Crypto}}: {{.Symbol}}{{.Amount}}"
	DefaultCurrency     = "usd"
	DefaultSeparator    = " | "
	DefaultSwallowDepth = 8
	DefaultWIFEnv       = "ACTIVE_WIF"
)

// DefaultNodes are the Hive API nodes tried in order.
var DefaultNodes = []string{
	"https://api.hive.blog",
	"https://api.deathwing.me",
	"https://api.openhive.network",
}

// DefaultTerminals is the WM_CLASS allow-list used by the swallow hooks.
var DefaultTerminals = []string{
	"Alacritty", "kitty", "st-256color", "st", "XTerm", "xterm",
	"URxvt", "urxvt", "WezTerm", "org.wezfurlong.wezterm", "foot", "Termite",
}

// Config is the hivebar configuration, shared by the daemon and the CLI.
type Config struct {
	Hive          HiveConfig          `toml:"hive"`
	Notifications NotificationsConfig `toml:"notifications"`
	Tickers       []TickerConfig      `toml:"tickers"`
	Rewards       RewardsConfig       `toml:"rewards"`
	NowPlaying    NowPlayingConfig    `toml:"now_playing"`
	MPRIS         MPRISConfig         `toml:"mpris"`
	Bar           BarConfig           `toml:"bar"`
	Popup         PopupConfig         `toml:"popup"`
	Swallow       SwallowConfig       `toml:"swallow"`
	Chime         ChimeConfig         `toml:"chime"`
}

// HiveConfig holds account and node settings.
type HiveConfig struct {
	Account string   `toml:"account"`
	Nodes   []string `toml:"nodes"`
	WIFEnv  string   `toml:"wif_env"` // Environment variable holding the posting WIF
	Timeout Duration `toml:"timeout"` // Per-request timeout
}

// NotificationsConfig holds the summary widget settings.
type NotificationsConfig struct {
	Enabled    bool     `toml:"enabled"`
	Interval   Duration `toml:"interval"`
	Limit      int      `toml:"limit"`       // Max records fetched per poll
	OnlyUnread bool     `toml:"only_unread"` // Count only records newer than lastread
	Icon       string   `toml:"icon"`
	EmptyText  string   `toml:"empty_text"`
	MaxShown   int      `toml:"max_shown"` // Detail list cap, 0 = unlimited
}

// TickerConfig holds one price ticker widget.
type TickerConfig struct {
	Symbol       string   `toml:"symbol"`
	CryptoID     string   `toml:"crypto_id"` // CoinGecko id override
	Currency     string   `toml:"currency"`
	CurrencySign string   `toml:"currency_sign"`
	Format       string   `toml:"format"`
	ShowChange   bool     `toml:"show_change"` // Include 24h change
	Interval     Duration `toml:"interval"`
}

// RewardsConfig holds the unclaimed-rewards widget settings.
type RewardsConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// NowPlayingConfig holds the now-playing poller settings.
type NowPlayingConfig struct {
	Enabled  bool     `toml:"enabled"`
	URL      string   `toml:"url"` // May contain a {channel} placeholder
	Channel  string   `toml:"channel"`
	Interval Duration `toml:"interval"`
	Verbose  bool     `toml:"verbose"`
	MaxChars int      `toml:"max_chars"` // 0 = no truncation
}

// MPRISConfig holds the media-player widget settings.
type MPRISConfig struct {
	Enabled  bool     `toml:"enabled"`
	Player   string   `toml:"player"` // e.g. "spotify"; empty = first available
	Interval Duration `toml:"interval"`
}

// BarConfig holds the status line output settings.
type BarConfig struct {
	Format    string `toml:"format"` // plain, waybar, template
	Separator string `toml:"separator"`
	Template  string `toml:"template"` // Go template, used when format = "template"
	FIFO      string `toml:"fifo"`     // Write to this path instead of stdout
}

// PopupConfig holds the layer-shell popup settings.
type PopupConfig struct {
	Width    int    `toml:"width"`
	MaxItems int    `toml:"max_items"`
	Position string `toml:"position"` // "top-right", "top-left", etc.
}

// SwallowConfig holds the terminal swallow settings.
type SwallowConfig struct {
	Enabled   bool     `toml:"enabled"`
	Terminals []string `toml:"terminals"`
	MaxDepth  int      `toml:"max_depth"` // Process ancestry walk limit
}

// ChimeConfig holds the notification sound settings.
type ChimeConfig struct {
	Enabled bool   `toml:"enabled"`
	Sound   string `toml:"sound"`  // Path to a wav/ogg/mp3 file
	Volume  int    `toml:"volume"` // 0-100
}

// Valid bar output formats.
const (
	BarFormatPlain    = "plain"
	BarFormatWaybar   = "waybar"
	BarFormatTemplate = "template"
)

// Valid popup positions.
var ValidPositions = []string{
	"top-left", "top-right", "top-center",
	"bottom-left", "bottom-right", "bottom-center",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Hive: HiveConfig{
			Nodes:   append([]string(nil), DefaultNodes...),
			WIFEnv:  DefaultWIFEnv,
			Timeout: Duration(10 * time.Second),
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			Interval:   Duration(5 * time.Minute),
			Limit:      DefaultNotifyLimit,
			OnlyUnread: true,
			Icon:       DefaultNotifyIcon,
			EmptyText:  DefaultNotifyEmpty,
			MaxShown:   10,
		},
		Tickers: []TickerConfig{
			{
				Symbol:       "HIVE",
				Currency:     DefaultCurrency,
				CurrencySign: "$",
				Format:       DefaultTickerFormat,
				Interval:     Duration(10 * time.Minute),
			},
		},
		Rewards: RewardsConfig{
			Enabled:  false,
			Interval: Duration(15 * time.Minute),
		},
		NowPlaying: NowPlayingConfig{
			Enabled:  false,
			Interval: Duration(30 * time.Second),
		},
		MPRIS: MPRISConfig{
			Enabled:  false,
			Interval: Duration(5 * time.Second),
		},
		Bar: BarConfig{
			Format:    BarFormatPlain,
			Separator: DefaultSeparator,
		},
		Popup: PopupConfig{
			Width:    400,
			MaxItems: 10,
			Position: "top-right",
		},
		Swallow: SwallowConfig{
			Enabled:   false,
			Terminals: append([]string(nil), DefaultTerminals...),
			MaxDepth:  DefaultSwallowDepth,
		},
		Chime: ChimeConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hivebar", "hivebar.toml")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Array tables append to a pre-populated slice, so tickers from the
	// file must replace the default entry instead of stacking on it.
	defaultTickers := cfg.Tickers
	cfg.Tickers = nil

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Tickers == nil {
		cfg.Tickers = defaultTickers
	}
	for i := range cfg.Tickers {
		cfg.Tickers[i].applyDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in zero-valued ticker fields.
func (t *TickerConfig) applyDefaults() {
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	if t.CurrencySign == "" && t.Currency == DefaultCurrency {
		t.CurrencySign = "$"
	}
	if t.Format == "" {
		t.Format = DefaultTickerFormat
	}
	if t.Interval == 0 {
		t.Interval = Duration(10 * time.Minute)
	}
}

// Save writes the configuration to the specified path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
// Returns a *ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if len(c.Hive.Nodes) == 0 {
		return NewConfigError("hive.nodes", "at least one API node is required")
	}
	if c.Hive.Timeout.Duration() <= 0 {
		return NewConfigError("hive.timeout", "must be positive, got %s", c.Hive.Timeout.Duration())
	}

	if c.Notifications.Enabled {
		if c.Notifications.Interval.Duration() <= 0 {
			return NewConfigError("notifications.interval", "must be positive")
		}
		if c.Notifications.Limit < 1 || c.Notifications.Limit > 100 {
			return NewConfigError("notifications.limit", "must be between 1 and 100, got %d", c.Notifications.Limit)
		}
	}

	for i, t := range c.Tickers {
		field := fmt.Sprintf("tickers[%d]", i)
		if t.Symbol == "" && t.CryptoID == "" {
			return NewConfigError(field, "symbol or crypto_id is required")
		}
		if t.Interval.Duration() <= 0 {
			return NewConfigError(field+".interval", "must be positive")
		}
	}

	if c.NowPlaying.Enabled {
		if c.NowPlaying.URL == "" {
			return NewConfigError("now_playing.url", "url is required when enabled")
		}
		if strings.Contains(c.NowPlaying.URL, "{channel}") && c.NowPlaying.Channel == "" {
			return NewConfigError("now_playing.channel", "url contains {channel} but no channel is set")
		}
	}

	switch c.Bar.Format {
	case BarFormatPlain, BarFormatWaybar:
	case BarFormatTemplate:
		if c.Bar.Template == "" {
			return NewConfigError("bar.template", "template is required when format = %q", BarFormatTemplate)
		}
	default:
		return NewConfigError("bar.format", "must be one of plain, waybar, template; got %q", c.Bar.Format)
	}

	validPos := false
	for _, p := range ValidPositions {
		if c.Popup.Position == p {
			validPos = true
			break
		}
	}
	if !validPos {
		return NewConfigError("popup.position", "invalid position %q, must be one of: %v", c.Popup.Position, ValidPositions)
	}

	if c.Swallow.Enabled {
		if len(c.Swallow.Terminals) == 0 {
			return NewConfigError("swallow.terminals", "allow-list cannot be empty when enabled")
		}
		if c.Swallow.MaxDepth < 1 || c.Swallow.MaxDepth > 32 {
			return NewConfigError("swallow.max_depth", "must be between 1 and 32, got %d", c.Swallow.MaxDepth)
		}
	}

	if c.Chime.Volume < 0 || c.Chime.Volume > 100 {
		return NewConfigError("chime.volume", "must be between 0 and 100, got %d", c.Chime.Volume)
	}
	if c.Chime.Enabled && c.Chime.Sound == "" {
		return NewConfigError("chime.sound", "sound file is required when enabled")
	}

	return nil
}

// WIF returns the posting key from the configured environment variable.
// Empty when not set; mark-as-read becomes a no-op in that case.
func (c *Config) WIF() string {
	env := c.Hive.WIFEnv
	if env == "" {
		env = DefaultWIFEnv
	}
	return os.Getenv(env)
}

// ChimeSound returns the chime sound path with ~ expanded.
func (c *Config) ChimeSound() string {
	return expandPath(c.Chime.Sound)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
