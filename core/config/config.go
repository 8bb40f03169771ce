// Package config loads the tool panel configuration from an optional file
// and TOOLPANEL_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/spf13/viper"
)

const (
	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
	BackendNone      = "none"

	DeliveryExactlyOnce = "exactly_once"
	DeliveryAtLeastOnce = "at_least_once"

	OutputToolOutput       = "tool.output"
	OutputConversationItem = "conversation.item.create"
)

type Config struct {
	Realtime RealtimeConfig   `mapstructure:"realtime"`
	Panel    PanelConfig      `mapstructure:"panel"`
	Audio    AudioConfig      `mapstructure:"audio"`
	LogLevel string           `mapstructure:"log_level"`
	Catalog  *catalog.Catalog `mapstructure:"-"`
}

type RealtimeConfig struct {
	URL              string        `mapstructure:"url"`
	Model            string        `mapstructure:"model"`
	APIKey           string        `mapstructure:"api_key"`
	TokenURL         string        `mapstructure:"token_url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type PanelConfig struct {
	ContinuationDelay time.Duration `mapstructure:"continuation_delay"`
	OutputFormat      string        `mapstructure:"output_format"`
	Delivery          string        `mapstructure:"delivery"`
	GatePlayback      bool          `mapstructure:"gate_playback"`
	PassThrough       bool          `mapstructure:"pass_through"`
}

type AudioConfig struct {
	Backend  string `mapstructure:"backend"`
	MusicDir string `mapstructure:"music_dir"`
	// BufferFrames is the PortAudio stream buffer size.
	BufferFrames int `mapstructure:"buffer_frames"`
}

// Load reads path (when set) on top of the defaults. Environment variables
// such as TOOLPANEL_REALTIME_API_KEY override both.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOOLPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("realtime.url", "wss://api.openai.com/v1/realtime")
	v.SetDefault("realtime.model", "gpt-4o-realtime-preview")
	v.SetDefault("realtime.api_key", "")
	v.SetDefault("realtime.token_url", "")
	v.SetDefault("realtime.handshake_timeout", "15s")
	v.SetDefault("panel.continuation_delay", "500ms")
	v.SetDefault("panel.output_format", OutputToolOutput)
	v.SetDefault("panel.delivery", DeliveryExactlyOnce)
	v.SetDefault("panel.gate_playback", false)
	v.SetDefault("panel.pass_through", false)
	v.SetDefault("audio.backend", BackendMiniaudio)
	v.SetDefault("audio.music_dir", ".")
	v.SetDefault("audio.buffer_frames", 1024)
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg.Catalog = catalog.Default()
	if raw := v.Get("catalog"); raw != nil {
		songs, err := catalog.Decode(raw)
		if err != nil {
			return Config{}, fmt.Errorf("decode catalog: %w", err)
		}
		cfg.Catalog = songs
	}

	cfg.Realtime.APIKey = os.ExpandEnv(cfg.Realtime.APIKey)
	if cfg.Realtime.APIKey == "" {
		cfg.Realtime.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Audio.MusicDir = os.ExpandEnv(cfg.Audio.MusicDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case BackendMiniaudio, BackendPortaudio, BackendNone:
	default:
		return fmt.Errorf("audio.backend must be one of %s, %s or %s, got %q",
			BackendMiniaudio, BackendPortaudio, BackendNone, c.Audio.Backend)
	}

	switch c.Panel.OutputFormat {
	case OutputToolOutput, OutputConversationItem:
	default:
		return fmt.Errorf("panel.output_format must be %s or %s, got %q",
			OutputToolOutput, OutputConversationItem, c.Panel.OutputFormat)
	}

	switch c.Panel.Delivery {
	case DeliveryExactlyOnce, DeliveryAtLeastOnce:
	default:
		return fmt.Errorf("panel.delivery must be %s or %s, got %q",
			DeliveryExactlyOnce, DeliveryAtLeastOnce, c.Panel.Delivery)
	}

	if c.Realtime.HandshakeTimeout <= 0 {
		return fmt.Errorf("realtime.handshake_timeout must be positive")
	}
	if c.Audio.BufferFrames <= 0 {
		return fmt.Errorf("audio.buffer_frames must be positive")
	}
	if c.Panel.ContinuationDelay < 0 {
		return fmt.Errorf("panel.continuation_delay must not be negative")
	}
	if strings.TrimSpace(c.Realtime.URL) == "" {
		return fmt.Errorf("realtime.url is required")
	}

	return nil
}
