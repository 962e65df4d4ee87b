package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR is the control endpoint of a running relay; the suite is skipped when empty
	RelayAddr  string `envconfig:"RELAY_ADDR"`
	HealthAddr string `envconfig:"HEALTH_ADDR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours     bool   `envconfig:"E2E_COLOURS" default:"true"`
	QuitKeyword string `envconfig:"QUIT_KEYWORD" default:"quit"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
