// Package ops loads and validates the runtime configuration.
package ops

import (
	"os"
	"time"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"main/internal/contracts"
	"main/internal/gateway"
	"main/internal/risk"
)

const (
	defaultCommandQueueSize    = 4096
	defaultResponseBufferSize  = 1024
	defaultRefreshIntervalSecs = 15
)

// FileConfig mirrors the YAML config layout.
type FileConfig struct {
	Gateway   gateway.Config  `yaml:"gateway"`
	Contracts ContractsConfig `yaml:"contracts"`
	Risk      risk.Config     `yaml:"risk"`
	Bus       BusConfig       `yaml:"bus"`

	// StrategySocket, when set, serves command/response frames to
	// out-of-process strategies on this Unix socket path.
	StrategySocket     string `yaml:"strategySocket"`
	AccountRefreshSecs int    `yaml:"accountRefreshSecs"`
}

// ContractsConfig selects the reference-table source. Exactly one of
// File and Postgres may be set; neither means the gateway query is the
// source of truth.
type ContractsConfig struct {
	File     string          `yaml:"file"`
	Postgres *PostgresConfig `yaml:"postgres"`
}

// PostgresConfig describes the contract reference database.
type PostgresConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"sslMode"`
	ConnString string `yaml:"connString"`
	TableName  string `yaml:"tableName"`
}

// BusConfig sizes the strategy-facing queues.
type BusConfig struct {
	CommandQueueSize   int `yaml:"commandQueueSize"`
	ResponseBufferSize int `yaml:"responseBufferSize"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Gateway   gateway.Config
	Contracts ContractsConfig
	Risk      risk.Config

	StrategySocket     string
	CommandQueueSize   int
	ResponseBufferSize int
	AccountRefresh     time.Duration
}

// Load reads a YAML config file and resolves defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Contracts.File != "" && cfg.Contracts.Postgres != nil {
		return Loaded{}, errors.New("contracts: file and postgres sources are mutually exclusive")
	}
	if cfg.Bus.CommandQueueSize < 0 || cfg.Bus.ResponseBufferSize < 0 {
		return Loaded{}, errors.New("bus: queue sizes must not be negative")
	}
	if cfg.AccountRefreshSecs < 0 {
		return Loaded{}, errors.New("accountRefreshSecs must not be negative")
	}
	for _, name := range cfg.Risk.Rules {
		if _, err := risk.NewRule(name); err != nil {
			return Loaded{}, errors.Wrap(err, "risk config")
		}
	}

	loaded := Loaded{
		Gateway:            cfg.Gateway,
		Contracts:          cfg.Contracts,
		Risk:               cfg.Risk,
		StrategySocket:     cfg.StrategySocket,
		CommandQueueSize:   cfg.Bus.CommandQueueSize,
		ResponseBufferSize: cfg.Bus.ResponseBufferSize,
		AccountRefresh:     time.Duration(cfg.AccountRefreshSecs) * time.Second,
	}
	if loaded.CommandQueueSize == 0 {
		loaded.CommandQueueSize = defaultCommandQueueSize
	}
	if loaded.ResponseBufferSize == 0 {
		loaded.ResponseBufferSize = defaultResponseBufferSize
	}
	if loaded.AccountRefresh == 0 {
		loaded.AccountRefresh = defaultRefreshIntervalSecs * time.Second
	}
	return loaded, nil
}

// LoadContracts builds the contract table from the configured source.
// A nil table means the caller should fall back to the gateway query.
func (l Loaded) LoadContracts() (*contracts.Table, error) {
	switch {
	case l.Contracts.File != "":
		return contracts.LoadFile(l.Contracts.File)
	case l.Contracts.Postgres != nil:
		pg := l.Contracts.Postgres
		return contracts.LoadPostgres(contracts.PostgresOption{
			Host:       pg.Host,
			Port:       pg.Port,
			User:       pg.User,
			Password:   pg.Password,
			Database:   pg.Database,
			SSLMode:    pg.SSLMode,
			ConnString: pg.ConnString,
			TableName:  pg.TableName,
		})
	default:
		return nil, nil
	}
}
