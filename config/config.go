package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradeledger/chain"
)

// Config is the complete client configuration.
type Config struct {
	Network NetworkConfig `json:"network" yaml:"network"`
	Program ProgramConfig `json:"program" yaml:"program"`
	Submit  SubmitConfig  `json:"submit" yaml:"submit"`
	Signer  SignerConfig  `json:"signer" yaml:"signer"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// NetworkConfig locates the RPC node.
type NetworkConfig struct {
	RPCURL         string `json:"rpc_url" yaml:"rpc_url"`
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"` // e.g. "30s"
}

// ProgramConfig identifies the on-chain program and the shared ledger account.
type ProgramConfig struct {
	ProgramID     string `json:"program_id" yaml:"program_id"`
	LedgerAddress string `json:"ledger_address" yaml:"ledger_address"`
}

// SubmitConfig bounds the confirmation wait.
type SubmitConfig struct {
	ConfirmTimeout string `json:"confirm_timeout,omitempty" yaml:"confirm_timeout,omitempty"` // e.g. "30s"
	PollInterval   string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`     // e.g. "500ms"
}

// SignerConfig locates the local keypair, if any.
type SignerConfig struct {
	KeypairPath string `json:"keypair_path,omitempty" yaml:"keypair_path,omitempty"`
}

// JournalConfig selects the local submission journal backend.
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Network.RPCURL == "" {
		return fmt.Errorf("network.rpc_url is required")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("network.request_timeout: %w", err)
	}
	if c.Program.ProgramID == "" {
		return fmt.Errorf("program.program_id is required")
	}
	if _, err := chain.ParseAddress(c.Program.ProgramID); err != nil {
		return fmt.Errorf("program.program_id: %w", err)
	}
	if c.Program.LedgerAddress == "" {
		return fmt.Errorf("program.ledger_address is required")
	}
	if _, err := chain.ParseAddress(c.Program.LedgerAddress); err != nil {
		return fmt.Errorf("program.ledger_address: %w", err)
	}
	if d, err := c.ConfirmTimeout(); err != nil {
		return fmt.Errorf("submit.confirm_timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("submit.confirm_timeout must be positive")
	}
	if d, err := c.PollInterval(); err != nil {
		return fmt.Errorf("submit.poll_interval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("submit.poll_interval must be positive")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// RequestTimeout parses the HTTP request timeout, defaulting to 30s.
func (c *Config) RequestTimeout() (time.Duration, error) {
	return durationOr(c.Network.RequestTimeout, 30*time.Second)
}

// ConfirmTimeout parses the confirmation window, defaulting to 30s.
func (c *Config) ConfirmTimeout() (time.Duration, error) {
	return durationOr(c.Submit.ConfirmTimeout, 30*time.Second)
}

// PollInterval parses the confirmation poll cadence, defaulting to 500ms.
func (c *Config) PollInterval() (time.Duration, error) {
	return durationOr(c.Submit.PollInterval, 500*time.Millisecond)
}

// ProgramID returns the parsed program address. Call Validate first.
func (c *Config) ProgramID() (chain.Address, error) {
	return chain.ParseAddress(c.Program.ProgramID)
}

// LedgerAddress returns the parsed ledger account address. Call Validate first.
func (c *Config) LedgerAddress() (chain.Address, error) {
	return chain.ParseAddress(c.Program.LedgerAddress)
}

func durationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// Default returns a configuration pointing at the devnet deployment.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			RPCURL: chain.DevnetURL,
		},
		Program: ProgramConfig{
			ProgramID:     "7fCTzxzei5se329Gtbhr7cu2C8Qmx1gK7NVFagFKXuBd",
			LedgerAddress: "4TCULn9sm7PKjiAQE3s2KQGq3G5eQDTNaPyU5srRRdU9",
		},
		Submit: SubmitConfig{
			ConfirmTimeout: "30s",
			PollInterval:   "500ms",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
