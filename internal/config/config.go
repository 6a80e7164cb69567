package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/danielpatrickdp/symbiote-voice/internal/chaos"
	"github.com/danielpatrickdp/symbiote-voice/internal/dream"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SYMBIOTE_"

// #region types
// Config holds all engine configuration.
type Config struct {
	DBPath         string `toml:"db_path" env:"DB_PATH"`
	BridgeAddr     string `toml:"bridge_addr" env:"BRIDGE_ADDR"` // empty disables the bridge
	CorpusPath     string `toml:"corpus_path" env:"CORPUS_PATH"` // empty uses the built-in corpus
	TickIntervalMS int    `toml:"tick_interval_ms" env:"TICK_INTERVAL_MS"`

	Chaos    ChaosConfig    `toml:"chaos" envPrefix:"CHAOS_"`
	Voice    VoiceConfig    `toml:"voice" envPrefix:"VOICE_"`
	Progress ProgressConfig `toml:"progress" envPrefix:"PROGRESS_"`
	Logging  logging.Config `toml:"logging" envPrefix:"LOG_"`
}

type ChaosConfig struct {
	WindowTicks     int64 `toml:"window_ticks" env:"WINDOW_TICKS"`
	DamageThreshold int   `toml:"damage_threshold" env:"DAMAGE_THRESHOLD"`
}

type VoiceConfig struct {
	// category key -> ticks, e.g. SYMBIOTE_VOICE_COOLDOWNS="combat:200,fall:300"
	Cooldowns map[string]int64 `toml:"cooldowns" env:"COOLDOWNS" envKeyValSeparator:":"`
}

type ProgressConfig struct {
	TouchedAt      int `toml:"touched_at" env:"TOUCHED_AT"`
	StabilizedAt   int `toml:"stabilized_at" env:"STABILIZED_AT"`
	IntegratedAt   int `toml:"integrated_at" env:"INTEGRATED_AT"`
	StallThreshold int `toml:"stall_threshold" env:"STALL_THRESHOLD"`
}

// #endregion types

// #region defaults
// Default returns config with the tuned defaults.
func Default() Config {
	policy := progress.DefaultThresholdPolicy()
	cc := chaos.DefaultConfig()

	cooldowns := make(map[string]int64)
	for c, ticks := range voice.DefaultConfig().Cooldowns {
		cooldowns[c.Key()] = ticks
	}

	return Config{
		DBPath:         "symbiote.db",
		BridgeAddr:     "127.0.0.1:7451",
		TickIntervalMS: 50,
		Chaos: ChaosConfig{
			WindowTicks:     cc.WindowTicks,
			DamageThreshold: cc.DamageThreshold,
		},
		Voice: VoiceConfig{Cooldowns: cooldowns},
		Progress: ProgressConfig{
			TouchedAt:      policy.TouchedAt,
			StabilizedAt:   policy.StabilizedAt,
			IntegratedAt:   policy.IntegratedAt,
			StallThreshold: dream.DefaultConfig().StallThreshold,
		},
		Logging: logging.DefaultConfig(),
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults, then applies SYMBIOTE_* environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, env.Options{Prefix: EnvPrefix})
}

func load(path string, opts env.Options) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML to path.
func Write(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// #endregion load

// #region validate
// Validate checks ranges and ordering.
func (c Config) Validate() error {
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive, got %d", c.TickIntervalMS)
	}
	if c.Chaos.WindowTicks <= 0 || c.Chaos.DamageThreshold <= 0 {
		return fmt.Errorf("chaos window_ticks and damage_threshold must be positive")
	}
	p := c.Progress
	if p.TouchedAt <= 0 || p.TouchedAt >= p.StabilizedAt || p.StabilizedAt >= p.IntegratedAt {
		return fmt.Errorf("progress thresholds must satisfy 0 < touched_at < stabilized_at < integrated_at, got %d/%d/%d",
			p.TouchedAt, p.StabilizedAt, p.IntegratedAt)
	}
	if p.StallThreshold < 0 || p.StallThreshold > progress.MaxStallScore {
		return fmt.Errorf("stall_threshold must be within 0..%d, got %d", progress.MaxStallScore, p.StallThreshold)
	}
	if _, err := c.VoiceConfig(); err != nil {
		return err
	}
	return nil
}

// #endregion validate

// #region component-configs
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c Config) ChaosConfig() chaos.Config {
	return chaos.Config{WindowTicks: c.Chaos.WindowTicks, DamageThreshold: c.Chaos.DamageThreshold}
}

func (c Config) Policy() progress.ThresholdPolicy {
	return progress.ThresholdPolicy{
		TouchedAt:    c.Progress.TouchedAt,
		StabilizedAt: c.Progress.StabilizedAt,
		IntegratedAt: c.Progress.IntegratedAt,
	}
}

func (c Config) DreamConfig() dream.Config {
	return dream.Config{StallThreshold: c.Progress.StallThreshold}
}

// VoiceConfig resolves cooldown category keys. Categories left out have no cooldown.
func (c Config) VoiceConfig() (voice.Config, error) {
	vc := voice.Config{Cooldowns: make(map[observation.Category]int64, len(c.Voice.Cooldowns))}
	for key, ticks := range c.Voice.Cooldowns {
		cat, ok := observation.ParseCategory(key)
		if !ok {
			return voice.Config{}, fmt.Errorf("voice cooldown for unknown category %q", key)
		}
		if ticks < 0 {
			return voice.Config{}, fmt.Errorf("voice cooldown for %s must not be negative", key)
		}
		vc.Cooldowns[cat] = ticks
	}
	return vc, nil
}

// #endregion component-configs
