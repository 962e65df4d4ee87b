package internal

import (
	"testing"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var cfg Config

	// When nothing is set in the environment
	err := env.Unmarshal(env.EnvSet{}, &cfg)

	// Then the documented defaults apply and validate
	req.NoError(err)
	req.NoError(cfg.Validate())
	req.Equal("0.0.0.0:12345", cfg.Address())
	req.Equal("quit", cfg.QuitKeyword)
	req.False(cfg.UniqueNames)
	req.True(cfg.RelayRoleTags)
	req.Equal(4096, cfg.RelayChunkSize)
	req.Empty(cfg.BadgerFilepath)

	coordinator := cfg.Coordinator()
	req.Empty(coordinator.ListenHost)
	req.Equal(cfg.RelayAcceptTimeout, coordinator.Relay.AcceptTimeout)
}

func TestConfig_Overrides_And_Validation(t *testing.T) {
	req := require.New(t)
	environ := env.EnvSet{
		"HOST":                 "127.0.0.1",
		"PORT":                 "4000",
		"UNIQUE_NAMES":         "true",
		"RELAY_ACCEPT_TIMEOUT": "5s",
	}

	var cfg Config
	err := env.Unmarshal(environ, &cfg)
	req.NoError(err)
	req.NoError(cfg.Validate())
	req.True(cfg.UniqueNames)
	req.Equal("127.0.0.1", cfg.Coordinator().ListenHost)

	// When the chunk size is absurd
	cfg.RelayChunkSize = 1
	req.Error(cfg.Validate())
}
