package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	DatabaseURL string     `mapstructure:"database_url"`
	ServerPort  string     `mapstructure:"server_port"`
	JWTSecret   string     `mapstructure:"jwt_secret"`
	LogLevel    string     `mapstructure:"log_level"`
	CORS        CORSConfig `mapstructure:"cors"`
}

// Load reads config.yaml from the current directory or ./config. Any key can
// be overridden with an ADMINGATE_ environment variable, e.g.
// ADMINGATE_JWT_SECRET or ADMINGATE_CORS_ALLOWED_ORIGINS.
func Load() (*Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("admingate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	// Registered so AutomaticEnv can populate them without a file entry.
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret must be set")
	}

	return &cfg, nil
}
