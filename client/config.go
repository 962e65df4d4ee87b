package client

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultConfigFile = "chat-client.toml"
	EnvPrefix         = "CHAT"
)

// Config is the client configuration. Sources are layered: defaults, then the
// TOML file, then CHAT_* environment variables, then command-line flags.
type Config struct {
	ServerAddress string        `toml:"server_address" envconfig:"SERVER_ADDRESS"`
	ServerPort    int           `toml:"server_port" envconfig:"SERVER_PORT"`
	DownloadDir   string        `toml:"download_dir" envconfig:"DOWNLOAD_DIR"`
	IOTimeout     time.Duration `toml:"io_timeout" envconfig:"IO_TIMEOUT"`
	Colors        bool          `toml:"colors" envconfig:"COLORS"`
	LogLevel      string        `toml:"log_level" envconfig:"LOG_LEVEL"`
	RoleTags      bool          `toml:"role_tags" envconfig:"ROLE_TAGS"`
}

func DefaultConfig() Config {
	return Config{
		ServerAddress: "localhost",
		ServerPort:    12345,
		DownloadDir:   "Downloads",
		IOTimeout:     30 * time.Second,
		Colors:        true,
		LogLevel:      "WARN",
		RoleTags:      true,
	}
}

// LoadConfig reads path over the defaults; a missing file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address must not be empty")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port %d out of range", c.ServerPort)
	}
	if c.IOTimeout <= 0 {
		return fmt.Errorf("io_timeout must be positive")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download_dir must not be empty")
	}
	return nil
}

func (c Config) Endpoint() string {
	return net.JoinHostPort(c.ServerAddress, strconv.Itoa(c.ServerPort))
}
