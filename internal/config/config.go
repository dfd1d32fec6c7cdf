package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/efreitasn/makeamarket/internal/engine"
)

// EnvPrefix prefixes every environment variable, e.g. MAKEAMARKET_GAME_ROUNDS.
const EnvPrefix = "MAKEAMARKET"

// Config holds all runtime configuration for the game.
type Config struct {
	LogLevel string
	Game     GameConfig
	Server   ServerConfig
}

// GameConfig holds the parameters every new game is dealt with.
type GameConfig struct {
	Opponents int
	Rounds    int
	MinValue  int64
	MaxValue  int64
	HardMode  bool
	Seed      uint64 // 0 draws a time-based seed
	Strategy  string
	Pace      time.Duration
}

// Values returns the hidden value range.
func (g GameConfig) Values() engine.ValueRange {
	return engine.ValueRange{Min: g.MinValue, Max: g.MaxValue}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LeaderboardSize int

	// SettledRetention is how long a settled game stays readable.
	SettledRetention time.Duration
	ReapInterval     time.Duration
}

// Load reads configuration from an optional .env file and environment
// variables prefixed with MAKEAMARKET_, applies defaults, and validates
// values. It returns an error for any invalid value.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}
	var err error

	cfg.LogLevel = strings.ToLower(cast.ToString(v.Get("log.level")))
	if !isValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log.level: %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}

	if cfg.Game, err = loadGame(v); err != nil {
		return nil, err
	}
	if cfg.Server, err = loadServer(v); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("game.opponents", 4)
	v.SetDefault("game.rounds", 10)
	v.SetDefault("game.min_value", 1)
	v.SetDefault("game.max_value", 10)
	v.SetDefault("game.hard_mode", false)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.strategy", engine.StrategyBaseline)
	v.SetDefault("game.pace", "1s")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.leaderboard_size", 10)
	v.SetDefault("server.settled_retention", "10m")
	v.SetDefault("server.reap_interval", "1m")
}

func loadGame(v *viper.Viper) (GameConfig, error) {
	var (
		g   GameConfig
		err error
	)

	if g.Opponents, err = getInt(v, "game.opponents"); err != nil {
		return g, err
	}
	if g.Opponents < 1 {
		return g, fmt.Errorf("invalid game.opponents: %d, must be >= 1", g.Opponents)
	}

	if g.Rounds, err = getInt(v, "game.rounds"); err != nil {
		return g, err
	}
	if g.Rounds < 1 {
		return g, fmt.Errorf("invalid game.rounds: %d, must be >= 1", g.Rounds)
	}

	if g.MinValue, err = getInt64(v, "game.min_value"); err != nil {
		return g, err
	}
	if g.MaxValue, err = getInt64(v, "game.max_value"); err != nil {
		return g, err
	}
	game := engine.Config{Opponents: g.Opponents, Rounds: g.Rounds, Values: g.Values()}
	if err := game.Validate(); err != nil {
		return g, fmt.Errorf("invalid game value range: %w", err)
	}

	if g.HardMode, err = cast.ToBoolE(v.Get("game.hard_mode")); err != nil {
		return g, fmt.Errorf("invalid game.hard_mode: %w", err)
	}
	if g.Seed, err = cast.ToUint64E(v.Get("game.seed")); err != nil {
		return g, fmt.Errorf("invalid game.seed: %w", err)
	}

	g.Strategy = strings.ToLower(strings.TrimSpace(cast.ToString(v.Get("game.strategy"))))
	if _, err := engine.StrategyByName(g.Strategy); err != nil {
		return g, fmt.Errorf("invalid game.strategy: %w", err)
	}

	if g.Pace, err = getDuration(v, "game.pace"); err != nil {
		return g, err
	}
	if g.Pace < 0 {
		return g, fmt.Errorf("invalid game.pace: %s, must be >= 0", g.Pace)
	}
	return g, nil
}

func loadServer(v *viper.Viper) (ServerConfig, error) {
	var (
		s   ServerConfig
		err error
	)

	if s.Port, err = getInt(v, "server.port"); err != nil {
		return s, err
	}
	if s.Port < 1 || s.Port > 65535 {
		return s, fmt.Errorf("invalid server.port: %d, must be in 1..65535", s.Port)
	}

	for key, dst := range map[string]*time.Duration{
		"server.read_timeout":     &s.ReadTimeout,
		"server.write_timeout":    &s.WriteTimeout,
		"server.idle_timeout":     &s.IdleTimeout,
		"server.shutdown_timeout": &s.ShutdownTimeout,
	} {
		if *dst, err = getDuration(v, key); err != nil {
			return s, err
		}
	}

	s.CORSOrigins = splitList(cast.ToString(v.Get("server.cors_origins")))
	if len(s.CORSOrigins) == 0 {
		return s, errors.New("invalid server.cors_origins: must list at least one origin")
	}

	if s.LeaderboardSize, err = getInt(v, "server.leaderboard_size"); err != nil {
		return s, err
	}
	if s.LeaderboardSize < 1 {
		return s, fmt.Errorf("invalid server.leaderboard_size: %d, must be >= 1", s.LeaderboardSize)
	}

	for key, dst := range map[string]*time.Duration{
		"server.settled_retention": &s.SettledRetention,
		"server.reap_interval":     &s.ReapInterval,
	} {
		if *dst, err = getDuration(v, key); err != nil {
			return s, err
		}
		if *dst <= 0 {
			return s, fmt.Errorf("invalid %s: %s, must be > 0", key, *dst)
		}
	}
	return s, nil
}

func getInt(v *viper.Viper, key string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getInt64(v *viper.Viper, key string) (int64, error) {
	n, err := cast.ToInt64E(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := cast.ToDurationE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
