package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// envConfigDir points at the directory holding config.yaml.
	envConfigDir      = "WIRECHAT_CONFIG_DIR"
	envPrefix         = "WIRECHAT"
	defaultConfigName = "config.yaml"
)

// Load resolves the room server configuration and reports which file it used.
// Sources, lowest first: Default(), the YAML file, WIRECHAT_* variables.
// Command-line flags are merged afterwards by the caller through UpdateFrom.
// A missing file is seeded with the defaults so operators have a template.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	cfg := Default()
	path := resolveConfigPath(explicitPath)
	v := newViper(cfg, path)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		logger.Debug().Str("path", path).Msg("config file loaded")
	case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
		if seedErr := writeDefaultConfig(path, cfg); seedErr != nil {
			// Defaults and env still apply without a file.
			logger.Warn().Err(seedErr).Str("path", path).Msg("cannot seed config file")
		} else {
			logger.Info().Str("path", path).Msg("seeded config file with defaults")
		}
	default:
		return cfg, path, fmt.Errorf("config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, path, nil
}

// newViper registers every key with its default so env lookups see it.
func newViper(cfg Config, path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	defaults := map[string]any{
		"addr":                cfg.Addr,
		"read_header_timeout": cfg.ReadHeaderTimeout,
		"shutdown_timeout":    cfg.ShutdownTimeout,
		"log_level":           cfg.LogLevel,
		"database_path":       cfg.DatabasePath,
		"default_room":        cfg.DefaultRoom,
		"jwt_secret":          cfg.JWTSecret,
		"jwt_issuer":          cfg.JWTIssuer,
		"jwt_audience":        cfg.JWTAudience,
		"jwt_ttl":             cfg.JWTTTL,
		"max_message_bytes":   cfg.MaxMessageBytes,
		"client_buffer":       cfg.ClientBuffer,
		"allowed_origins":     cfg.AllowedOrigins,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		return filepath.Join(dir, defaultConfigName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, defaultConfigName)
	}
	return defaultConfigName
}

func writeDefaultConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	// The file carries jwt_secret.
	return os.WriteFile(path, data, 0o600)
}
