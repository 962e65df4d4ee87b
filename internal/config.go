package internal

import (
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the relay server configuration, decoded from the environment.
type Config struct {
	Host          string `env:"HOST,default=0.0.0.0" validate:"omitempty,hostname|ip"`
	Port          int    `env:"PORT,default=12345" validate:"gte=0,lte=65535"`
	AdvertiseHost string `env:"ADVERTISE_HOST"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	QuitKeyword   string `env:"QUIT_KEYWORD,default=quit" validate:"required"`
	UniqueNames   bool   `env:"UNIQUE_NAMES,default=false"`

	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gte=0"`
	RelayAcceptTimeout    time.Duration `env:"RELAY_ACCEPT_TIMEOUT,default=60s" validate:"gt=0"`
	RelayIOTimeout        time.Duration `env:"RELAY_IO_TIMEOUT,default=30s" validate:"gt=0"`
	RelayProgressInterval time.Duration `env:"RELAY_PROGRESS_INTERVAL,default=5s" validate:"gt=0"`
	RelayChunkSize        int           `env:"RELAY_CHUNK_SIZE,default=4096" validate:"gte=512,lte=1048576"`
	RelayRoleTags         bool          `env:"RELAY_ROLE_TAGS,default=true"`

	OfferTTL           time.Duration `env:"OFFER_TTL,default=10m" validate:"gte=0"`
	OfferSweepInterval time.Duration `env:"OFFER_SWEEP_INTERVAL,default=30s" validate:"gt=0"`

	BadgerFilepath string        `env:"BADGER_FILEPATH"`
	JournalTTL     time.Duration `env:"JOURNAL_TTL,default=168h" validate:"gte=0"`

	HealthPort      int           `env:"HEALTH_PORT,default=0" validate:"gte=0,lte=65535"`
	DebugPort       int           `env:"DEBUG_PORT,default=0" validate:"gte=0,lte=65535"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	MDNSAnnounce    bool          `env:"MDNS_ANNOUNCE,default=false"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) HealthAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HealthPort))
}

func (c Config) DebugAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.DebugPort))
}

func (c Config) Coordinator() runtime.CoordinatorConfig {
	listenHost := c.Host
	if ip := net.ParseIP(c.Host); ip != nil && ip.IsUnspecified() {
		listenHost = ""
	}
	return runtime.CoordinatorConfig{
		ListenHost: listenHost,
		Relay: workers.RelayConfig{
			AcceptTimeout:    c.RelayAcceptTimeout,
			IOTimeout:        c.RelayIOTimeout,
			ProgressInterval: c.RelayProgressInterval,
			ChunkSize:        c.RelayChunkSize,
			RoleTags:         c.RelayRoleTags,
		},
	}
}
