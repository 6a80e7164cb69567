package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbiote.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func noEnv(vars map[string]string) env.Options {
	if vars == nil {
		vars = map[string]string{}
	}
	return env.Options{Prefix: EnvPrefix, Environment: vars}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, progress.DefaultThresholdPolicy(), cfg.Policy())
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, int64(60), cfg.ChaosConfig().WindowTicks)
	assert.Equal(t, 50, cfg.DreamConfig().StallThreshold)

	vc, err := cfg.VoiceConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(200), vc.Cooldowns[observation.CombatDamage])
	assert.Len(t, vc.Cooldowns, len(observation.Categories()))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.toml"), noEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = load("", noEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
db_path = "/var/lib/symbiote/progress.db"
tick_interval_ms = 25

[chaos]
damage_threshold = 8

[voice.cooldowns]
combat = 50

[logging]
level = "debug"
development = true
`)
	cfg, err := load(path, noEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/symbiote/progress.db", cfg.DBPath)
	assert.Equal(t, 25*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 8, cfg.Chaos.DamageThreshold)
	assert.Equal(t, int64(60), cfg.Chaos.WindowTicks, "untouched keys keep defaults")
	assert.Equal(t, int64(50), cfg.Voice.Cooldowns["combat"])
	assert.Equal(t, int64(300), cfg.Voice.Cooldowns["fall"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, `bridge_addr = "0.0.0.0:9000"`)
	cfg, err := load(path, noEnv(map[string]string{
		"SYMBIOTE_BRIDGE_ADDR":              "127.0.0.1:9999",
		"SYMBIOTE_CHAOS_WINDOW_TICKS":       "120",
		"SYMBIOTE_PROGRESS_TOUCHED_AT":      "2",
		"SYMBIOTE_PROGRESS_STALL_THRESHOLD": "75",
		"SYMBIOTE_VOICE_COOLDOWNS":          "combat:10,sleep:20",
		"SYMBIOTE_LOG_LEVEL":                "warn",
	}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.BridgeAddr)
	assert.Equal(t, int64(120), cfg.Chaos.WindowTicks)
	assert.Equal(t, 2, cfg.Progress.TouchedAt)
	assert.Equal(t, 75, cfg.Progress.StallThreshold)
	assert.Equal(t, map[string]int64{"combat": 10, "sleep": 20}, cfg.Voice.Cooldowns)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := load(writeFile(t, `tick_interval_ms = "fast"`), noEnv(nil))
	assert.ErrorContains(t, err, "parse config")

	_, err = load(writeFile(t, "db_path = \n"), noEnv(nil))
	assert.Error(t, err)

	_, err = load("", noEnv(map[string]string{"SYMBIOTE_TICK_INTERVAL_MS": "soon"}))
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero tick":          func(c *Config) { c.TickIntervalMS = 0 },
		"zero window":        func(c *Config) { c.Chaos.WindowTicks = 0 },
		"negative threshold": func(c *Config) { c.Chaos.DamageThreshold = -1 },
		"unordered policy":   func(c *Config) { c.Progress.StabilizedAt = c.Progress.IntegratedAt },
		"zero touched":       func(c *Config) { c.Progress.TouchedAt = 0 },
		"stall over 100":     func(c *Config) { c.Progress.StallThreshold = 101 },
		"unknown cooldown":   func(c *Config) { c.Voice.Cooldowns["weather"] = 10 },
		"negative cooldown":  func(c *Config) { c.Voice.Cooldowns["combat"] = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	want := Default()
	want.CorpusPath = "/etc/symbiote/corpus.yaml"
	require.NoError(t, Write(path, want))

	got, err := load(path, noEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
