// Package config provides configuration types and defaults for namebridge.
package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/log"
)

// Network profile names.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Config holds all configuration options for namebridge.
type Config struct {
	LogLevel     string                   `mapstructure:"log_level"`
	Network      string                   `mapstructure:"network"` // default profile for requests
	Registration RegistrationConfig       `mapstructure:"registration"`
	Bridge       BridgeConfig             `mapstructure:"bridge"`
	Networks     map[string]NetworkConfig `mapstructure:"networks"`
	Store        StoreConfig              `mapstructure:"store"`
	Transport    TransportConfig          `mapstructure:"transport"`
	Tracing      TracingConfig            `mapstructure:"tracing"`
	Flags        map[string]bool          `mapstructure:"flags"`
	// Wallets maps a chat user id to the addresses they have linked.
	Wallets map[string][]string `mapstructure:"wallets"`
}

// RegistrationConfig tunes the commit-reveal saga and the required-amount math.
type RegistrationConfig struct {
	// BufferPercent inflates (cost + gas reserve) to absorb price drift.
	BufferPercent uint64 `mapstructure:"buffer_percent"`
	// GasReserve is an ETH amount ("0.01") added to the registration cost.
	GasReserve string `mapstructure:"gas_reserve"`
	// Duration is the default registration length.
	Duration time.Duration `mapstructure:"duration"`
	// MinCommitmentAge must elapse between commit confirmation and reveal.
	MinCommitmentAge time.Duration `mapstructure:"min_commitment_age"`
	// MaxCommitmentAge is how long a commitment stays usable on-chain; it is
	// also the TTL of the commitment store.
	MaxCommitmentAge time.Duration `mapstructure:"max_commitment_age"`
	ReverseRecord    bool          `mapstructure:"reverse_record"`
}

// BridgeConfig tunes the Across client and fill polling.
type BridgeConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
}

// NetworkConfig describes one deployment profile.
type NetworkConfig struct {
	DestinationRPC     string `mapstructure:"destination_rpc"`
	SourceRPC          string `mapstructure:"source_rpc"`
	DestinationChainID uint64 `mapstructure:"destination_chain_id"`
	SourceChainID      uint64 `mapstructure:"source_chain_id"`
	BridgeAPI          string `mapstructure:"bridge_api"`
	Controller         string `mapstructure:"controller"`
	Registry           string `mapstructure:"registry"`
	PublicResolver     string `mapstructure:"public_resolver"`
	SourceWETH         string `mapstructure:"source_weth"`
	DestinationWETH    string `mapstructure:"destination_weth"`
}

// StoreConfig sets the correlation store TTLs and the sweep cadence.
type StoreConfig struct {
	SelectionTTL  time.Duration `mapstructure:"selection_ttl"`
	BridgeTTL     time.Duration `mapstructure:"bridge_ttl"`
	SubdomainTTL  time.Duration `mapstructure:"subdomain_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// TransportConfig configures the inbound/outbound edges.
type TransportConfig struct {
	NATS NATSConfig `mapstructure:"nats"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// NATSConfig names the subjects used on the message bus.
type NATSConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	URL             string `mapstructure:"url"`
	RequestSubject  string `mapstructure:"request_subject"`
	ResponseSubject string `mapstructure:"response_subject"`
	ActionSubject   string `mapstructure:"action_subject"`
	NoticeSubject   string `mapstructure:"notice_subject"`
}

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TracingConfig holds distributed tracing configuration for the engine.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/namebridge/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns ~/.config/namebridge/traces/traces.jsonl or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "namebridge", "traces", "traces.jsonl")
}

// DefaultNetworks returns the built-in mainnet and testnet profiles.
func DefaultNetworks() map[string]NetworkConfig {
	return map[string]NetworkConfig{
		NetworkMainnet: {
			DestinationRPC:     "https://ethereum-rpc.publicnode.com",
			SourceRPC:          "https://mainnet.base.org",
			DestinationChainID: chain.MainnetChainID,
			SourceChainID:      chain.BaseChainID,
			BridgeAPI:          "https://app.across.to/api",
			Controller:         "0x253553366Da8546fC250F225fe3d25d0C782303b",
			Registry:           "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e",
			PublicResolver:     "0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63",
			SourceWETH:         "0x4200000000000000000000000000000000000006",
			DestinationWETH:    "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		},
		NetworkTestnet: {
			DestinationRPC:     "https://ethereum-sepolia-rpc.publicnode.com",
			SourceRPC:          "https://sepolia.base.org",
			DestinationChainID: chain.SepoliaChainID,
			SourceChainID:      chain.BaseSepoliaChainID,
			BridgeAPI:          "https://testnet.across.to/api",
			Controller:         "0xFED6a969AaA60E4961FCD3EBF1A2e8913ac65B72",
			Registry:           "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e",
			PublicResolver:     "0x8FADE66B79cC9f707aB26799354482EB93a5B7dD",
			SourceWETH:         "0x4200000000000000000000000000000000000006",
			DestinationWETH:    "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14",
		},
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Network:  NetworkMainnet,
		Registration: RegistrationConfig{
			BufferPercent:    10,
			GasReserve:       "0.01",
			Duration:         365 * 24 * time.Hour,
			MinCommitmentAge: 60 * time.Second,
			MaxCommitmentAge: 24 * time.Hour,
			ReverseRecord:    false,
		},
		Bridge: BridgeConfig{
			Timeout:         10 * time.Second,
			PollInterval:    15 * time.Second,
			MaxPollAttempts: 40,
		},
		Networks: DefaultNetworks(),
		Store: StoreConfig{
			SelectionTTL:  15 * time.Minute,
			BridgeTTL:     2 * time.Hour,
			SubdomainTTL:  30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Transport: TransportConfig{
			NATS: NATSConfig{
				Enabled:         false,
				URL:             "nats://127.0.0.1:4222",
				RequestSubject:  "namebridge.requests",
				ResponseSubject: "namebridge.responses",
				ActionSubject:   "namebridge.actions",
				NoticeSubject:   "namebridge.notices",
			},
			HTTP: HTTPConfig{
				Enabled: true,
				Addr:    "localhost:19998",
			},
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags:   flags.Defaults(),
		Wallets: map[string][]string{},
	}
}

// Validate checks the whole configuration.
func Validate(c Config) error {
	if err := ValidateRegistration(c.Registration); err != nil {
		return err
	}
	if err := ValidateBridge(c.Bridge); err != nil {
		return err
	}
	if _, ok := c.Networks[c.Network]; !ok {
		return fmt.Errorf("network %q is not defined under networks", c.Network)
	}
	for name := range c.Networks {
		if _, err := c.ChainNetwork(name); err != nil {
			return err
		}
	}
	if err := ValidateStore(c.Store, c.Registration); err != nil {
		return err
	}
	if err := ValidateTransport(c.Transport); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return ValidateWallets(c.Wallets)
}

// ValidateRegistration checks the commit-reveal timings and amount settings.
func ValidateRegistration(r RegistrationConfig) error {
	if r.BufferPercent > 100 {
		return fmt.Errorf("registration.buffer_percent must be at most 100, got %d", r.BufferPercent)
	}
	if _, err := funding.ParseEther(r.GasReserve); err != nil {
		return fmt.Errorf("registration.gas_reserve: %w", err)
	}
	if r.Duration < 28*24*time.Hour {
		return fmt.Errorf("registration.duration must be at least 28 days, got %s", r.Duration)
	}
	if r.MinCommitmentAge <= 0 {
		return fmt.Errorf("registration.min_commitment_age must be positive")
	}
	if r.MaxCommitmentAge <= r.MinCommitmentAge {
		return fmt.Errorf("registration.max_commitment_age (%s) must exceed min_commitment_age (%s)",
			r.MaxCommitmentAge, r.MinCommitmentAge)
	}
	return nil
}

// ValidateBridge checks polling settings.
func ValidateBridge(b BridgeConfig) error {
	if b.PollInterval <= 0 {
		return fmt.Errorf("bridge.poll_interval must be positive")
	}
	if b.MaxPollAttempts <= 0 {
		return fmt.Errorf("bridge.max_poll_attempts must be positive")
	}
	return nil
}

// ValidateStore checks TTLs and the sweep interval.
func ValidateStore(s StoreConfig, r RegistrationConfig) error {
	for name, ttl := range map[string]time.Duration{
		"store.selection_ttl":  s.SelectionTTL,
		"store.bridge_ttl":     s.BridgeTTL,
		"store.subdomain_ttl":  s.SubdomainTTL,
		"store.sweep_interval": s.SweepInterval,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// ValidateTransport checks that enabled transports are addressable.
func ValidateTransport(t TransportConfig) error {
	if t.NATS.Enabled {
		if _, err := url.Parse(t.NATS.URL); err != nil || t.NATS.URL == "" {
			return fmt.Errorf("transport.nats.url is invalid: %q", t.NATS.URL)
		}
		if t.NATS.RequestSubject == "" || t.NATS.ResponseSubject == "" ||
			t.NATS.ActionSubject == "" || t.NATS.NoticeSubject == "" {
			return fmt.Errorf("transport.nats subjects must all be set")
		}
	}
	if t.HTTP.Enabled && t.HTTP.Addr == "" {
		return fmt.Errorf("transport.http.addr is required when http is enabled")
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// ValidateWallets checks that every linked wallet is a hex address.
func ValidateWallets(wallets map[string][]string) error {
	for user, addrs := range wallets {
		for _, a := range addrs {
			if !common.IsHexAddress(a) {
				return fmt.Errorf("wallets.%s: %q is not an address", user, a)
			}
		}
	}
	return nil
}

// GasReserveWei parses the configured gas reserve.
func (r RegistrationConfig) GasReserveWei() (*big.Int, error) {
	return funding.ParseEther(r.GasReserve)
}

// DurationSeconds is the registration duration as the controller expects it.
func (r RegistrationConfig) DurationSeconds() *big.Int {
	return big.NewInt(int64(r.Duration / time.Second))
}

// ChainNetwork resolves a named profile into a chain.Network.
func (c Config) ChainNetwork(name string) (chain.Network, error) {
	nc, ok := c.Networks[name]
	if !ok {
		return chain.Network{}, fmt.Errorf("unknown network %q", name)
	}
	addrs := map[string]string{
		"controller":       nc.Controller,
		"registry":         nc.Registry,
		"public_resolver":  nc.PublicResolver,
		"source_weth":      nc.SourceWETH,
		"destination_weth": nc.DestinationWETH,
	}
	for field, a := range addrs {
		if !common.IsHexAddress(a) {
			return chain.Network{}, fmt.Errorf("networks.%s.%s: %q is not an address", name, field, a)
		}
	}
	net := chain.Network{
		Name:               name,
		Testnet:            name != NetworkMainnet,
		DestinationChainID: nc.DestinationChainID,
		SourceChainID:      nc.SourceChainID,
		Controller:         common.HexToAddress(nc.Controller),
		Registry:           common.HexToAddress(nc.Registry),
		PublicResolver:     common.HexToAddress(nc.PublicResolver),
		SourceWETH:         common.HexToAddress(nc.SourceWETH),
		DestinationWETH:    common.HexToAddress(nc.DestinationWETH),
	}
	if err := net.Validate(); err != nil {
		return chain.Network{}, err
	}
	return net, nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# namebridge configuration

# Log level: debug, info, warn, error
log_level: info

# Profile used for requests unless a testnet command is issued
network: mainnet

registration:
  buffer_percent: 10        # Inflate (price + gas_reserve) by this percentage
  gas_reserve: "0.01"       # ETH kept aside for gas on the destination chain
  duration: 8760h           # Default registration length (1 year)
  min_commitment_age: 60s   # Wait between commit confirmation and reveal
  max_commitment_age: 24h   # Commitments expire on-chain after this
  reverse_record: false

bridge:
  timeout: 10s
  poll_interval: 15s        # How often a submitted deposit is checked
  max_poll_attempts: 40

store:
  selection_ttl: 15m        # Wallet selection prompts
  bridge_ttl: 2h            # Bridge and transfer operations
  subdomain_ttl: 30m
  sweep_interval: 1m

transport:
  nats:
    enabled: false
    url: nats://127.0.0.1:4222
    request_subject: namebridge.requests
    response_subject: namebridge.responses
    action_subject: namebridge.actions
    notice_subject: namebridge.notices
  http:
    enabled: true
    addr: localhost:19998

# Feature flags
flags:
  testnet-commands: false
  bridge-polling: true
  transfer-chaining: true

# Linked wallets per chat user id. Managed with "namebridge wallets link".
# wallets:
#   "123456789":
#     - 0x0000000000000000000000000000000000000001

# Network profiles (built-in defaults shown; override RPC endpoints here)
# networks:
#   mainnet:
#     destination_rpc: https://ethereum-rpc.publicnode.com
#     source_rpc: https://mainnet.base.org
#
# Distributed tracing
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 0.1
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
