// Package config loads server configuration from the environment and an
// optional JSONC config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

// SecureEnvPath is checked before the local .env file so deployments can keep
// API keys out of the install directory.
const SecureEnvPath = "/etc/zmachine/.env"

// Config holds all server configuration.
type Config struct {
	Port     int    `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DataDir is where game story files live; SaveRoot defaults to
	// DataDir/saves when unset.
	DataDir  string `env:"ZMACHINE_DATA_DIR" envDefault:"."`
	SaveRoot string `env:"ZMACHINE_SAVE_DIR"`
	WebDir   string `env:"ZMACHINE_WEB_DIR" envDefault:"web"`

	// Interpreter settings.
	FrotzPath      string        `env:"DFROTZ_PATH" envDefault:"dfrotz"`
	CommandTimeout time.Duration `env:"ZMACHINE_COMMAND_TIMEOUT" envDefault:"15s"`

	// Session expiry.
	SessionMaxAge time.Duration `env:"ZMACHINE_SESSION_MAX_AGE" envDefault:"24h"`
	SweepInterval time.Duration `env:"ZMACHINE_SWEEP_INTERVAL" envDefault:"1h"`

	// AI enhancement settings.
	AIEnabled   bool   `env:"ENABLE_AI_ENHANCEMENT"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	MaxAITokens int    `env:"MAX_AI_TOKENS" envDefault:"150"`
	PromptsDir  string `env:"ZMACHINE_PROMPTS_DIR" envDefault:"robot_prompts"`

	// ConfigFile is an optional JSONC file overriding game definitions.
	ConfigFile string `env:"ZMACHINE_CONFIG" envDefault:"zmachine.jsonc"`

	games []game.Definition
}

// fileConfig is the shape of the optional JSONC config file.
type fileConfig struct {
	DataDir  string            `json:"dataDir,omitempty"`
	SaveRoot string            `json:"saveDir,omitempty"`
	Games    []game.Definition `json:"games,omitempty"`
}

// Load reads .env files, parses the environment, and applies the optional
// config file. Values already present in the environment win over .env
// entries, matching godotenv semantics.
func Load() (*Config, error) {
	loadDotenv()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	fileGames, err := cfg.applyFile()
	if err != nil {
		return nil, err
	}

	if cfg.SaveRoot == "" {
		cfg.SaveRoot = filepath.Join(cfg.DataDir, "saves")
	}

	cfg.games = game.DefaultDefinitions(cfg.DataDir)
	cfg.games = append(cfg.games, fileGames...)

	return cfg, nil
}

// loadDotenv loads the secure .env location first, then a local .env.
func loadDotenv() {
	if _, err := os.Stat(SecureEnvPath); err == nil {
		if err := godotenv.Load(SecureEnvPath); err == nil {
			logging.Info().Str("path", SecureEnvPath).Msg("loaded environment from secure location")
			return
		}
	}
	if err := godotenv.Load(); err == nil {
		logging.Info().Msg("loaded environment from local .env")
		return
	}
	logging.Debug().Msg("no .env file found, using process environment")
}

// applyFile reads the optional JSONC config file. A missing file is not an
// error; a malformed one is.
func (c *Config) applyFile() ([]game.Definition, error) {
	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(c.ConfigFile), err)
	}

	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.SaveRoot != "" {
		c.SaveRoot = fc.SaveRoot
	}
	return fc.Games, nil
}

// Games returns the configured game definitions, defaults first, file
// overrides after (NewRegistry resolves duplicates in favor of the file).
func (c *Config) Games() []game.Definition {
	return c.games
}
