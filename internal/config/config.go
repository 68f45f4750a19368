// Package config loads the bot's YAML configuration, mirroring the
// teacher's Default*/Load* convention.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BotConfig covers everything the operator can tune without a redeploy:
// network ports, per-game default timeouts, and feature toggles.
type BotConfig struct {
	BindAddress  string `yaml:"bind_address"`
	GamePort     int    `yaml:"game_port"`
	DiscoveryPort int   `yaml:"discovery_port"`
	LogLevel     string `yaml:"log_level"`

	Game GameDefaults `yaml:"game"`

	CrossPlayMode      string `yaml:"cross_play_mode"`       // "off", "only", "force"
	UnsafeNameHandler  string `yaml:"unsafe_name_handler"`   // "censor", "deny", "allow"
	DesyncHandler      string `yaml:"desync_handler"`        // "ignore", "notify", "drop"
	LeaverHandler      string `yaml:"leaver_handler"`        // "immediate", "defer"
}

// GameDefaults holds the per-game defaults read from the `game` section
// of the config file. Nothing in this repository copies them into a
// game.Config; callers of bot.Host.HostGame pass their own.
type GameDefaults struct {
	LobbyTimeoutSeconds      int64 `yaml:"lobby_timeout_seconds"`
	LobbyOwnerTimeoutSeconds int64 `yaml:"lobby_owner_timeout_seconds"`
	LoadingTimeoutSeconds    int64 `yaml:"loading_timeout_seconds"`
	PlayingTimeoutSeconds    int64 `yaml:"playing_timeout_seconds"`
	LacksMapKickDelaySeconds int64 `yaml:"lacks_map_kick_delay_seconds"`
	LatencyMS                int   `yaml:"latency_ms"`
	SyncLimit                int   `yaml:"sync_limit"`
	SyncLimitSafe            int   `yaml:"sync_limit_safe"`
	DefaultPauses            int   `yaml:"default_pauses"`
	MaxUploadBytesPerSecond  int   `yaml:"max_upload_bytes_per_second"`
}

// DefaultBotConfig matches the reference defaults named throughout §4.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		BindAddress:   "0.0.0.0",
		GamePort:      6112,
		DiscoveryPort: 6112,
		LogLevel:      "info",
		Game: GameDefaults{
			LobbyTimeoutSeconds:      600,
			LobbyOwnerTimeoutSeconds: 120,
			LoadingTimeoutSeconds:    900,
			PlayingTimeoutSeconds:    18_000,
			LacksMapKickDelaySeconds: 60,
			LatencyMS:                100,
			SyncLimit:                32,
			SyncLimitSafe:            8,
			DefaultPauses:            3,
			MaxUploadBytesPerSecond:  1 << 20,
		},
		CrossPlayMode:     "off",
		UnsafeNameHandler: "censor",
		DesyncHandler:     "notify",
		LeaverHandler:     "defer",
	}
}

// LoadBotConfig loads the bot config from a YAML file. If the file
// doesn't exist, defaults are returned unchanged.
func LoadBotConfig(path string) (BotConfig, error) {
	cfg := DefaultBotConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ConfigPathFromEnv returns the HOSTBOT_CONFIG override, or fallback if
// unset.
func ConfigPathFromEnv(fallback string) string {
	if p := os.Getenv("HOSTBOT_CONFIG"); p != "" {
		return p
	}
	return fallback
}
