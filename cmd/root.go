package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/log"
)

const (
	envPrefix         = "NAMEBRIDGE"
	localConfigPath   = ".namebridge/config.yaml"
	defaultDebugLog   = "namebridge.log"
	debugEnv          = envPrefix + "_DEBUG"
	debugLogPathEnv   = envPrefix + "_LOG"
	userConfigDirName = "namebridge"
)

var (
	version     = "dev"
	cfgFile     string
	debugFlag   bool
	networkFlag string
	cfg         config.Config
)

var rootCmd = &cobra.Command{
	Use:   "namebridge",
	Short: "Acquire ENS names for chat users, bridging funds when needed",
	Long: `namebridge runs the orchestration engine that registers ENS names on behalf
of chat users. It decides how each request can be paid for, drives the
commit-reveal registration, bridges funds from Base through Across when the
user's ETH sits on the wrong chain, and assigns subdomains.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if networkFlag != "" {
			cfg.Network = networkFlag
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .namebridge/config.yaml or ~/.config/namebridge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs to "+defaultDebugLog+" (or $"+debugLogPathEnv+")")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "",
		"network profile for requests: mainnet or testnet")
}

func initConfig() {
	setDefaults(config.Defaults())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .namebridge/config.yaml (current directory)
		// 2. ~/.config/namebridge/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", userConfigDirName))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, continue with defaults and no config file.
		}
	}

	loaded, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; using defaults\n", err)
		loaded = config.Defaults()
	}
	cfg = loaded
}

// loadConfig decodes the current viper state over the defaults.
func loadConfig() (config.Config, error) {
	out := config.Defaults()
	if err := viper.Unmarshal(&out); err != nil {
		return config.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return out, nil
}

// configPath is where wallet links are saved.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

func setDefaults(d config.Config) {
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("network", d.Network)

	viper.SetDefault("registration.buffer_percent", d.Registration.BufferPercent)
	viper.SetDefault("registration.gas_reserve", d.Registration.GasReserve)
	viper.SetDefault("registration.duration", d.Registration.Duration)
	viper.SetDefault("registration.min_commitment_age", d.Registration.MinCommitmentAge)
	viper.SetDefault("registration.max_commitment_age", d.Registration.MaxCommitmentAge)
	viper.SetDefault("registration.reverse_record", d.Registration.ReverseRecord)

	viper.SetDefault("bridge.timeout", d.Bridge.Timeout)
	viper.SetDefault("bridge.poll_interval", d.Bridge.PollInterval)
	viper.SetDefault("bridge.max_poll_attempts", d.Bridge.MaxPollAttempts)

	for name, n := range d.Networks {
		prefix := "networks." + name + "."
		viper.SetDefault(prefix+"destination_rpc", n.DestinationRPC)
		viper.SetDefault(prefix+"source_rpc", n.SourceRPC)
		viper.SetDefault(prefix+"destination_chain_id", n.DestinationChainID)
		viper.SetDefault(prefix+"source_chain_id", n.SourceChainID)
		viper.SetDefault(prefix+"bridge_api", n.BridgeAPI)
		viper.SetDefault(prefix+"controller", n.Controller)
		viper.SetDefault(prefix+"registry", n.Registry)
		viper.SetDefault(prefix+"public_resolver", n.PublicResolver)
		viper.SetDefault(prefix+"source_weth", n.SourceWETH)
		viper.SetDefault(prefix+"destination_weth", n.DestinationWETH)
	}

	viper.SetDefault("store.selection_ttl", d.Store.SelectionTTL)
	viper.SetDefault("store.bridge_ttl", d.Store.BridgeTTL)
	viper.SetDefault("store.subdomain_ttl", d.Store.SubdomainTTL)
	viper.SetDefault("store.sweep_interval", d.Store.SweepInterval)

	viper.SetDefault("transport.nats.enabled", d.Transport.NATS.Enabled)
	viper.SetDefault("transport.nats.url", d.Transport.NATS.URL)
	viper.SetDefault("transport.nats.request_subject", d.Transport.NATS.RequestSubject)
	viper.SetDefault("transport.nats.response_subject", d.Transport.NATS.ResponseSubject)
	viper.SetDefault("transport.nats.action_subject", d.Transport.NATS.ActionSubject)
	viper.SetDefault("transport.nats.notice_subject", d.Transport.NATS.NoticeSubject)
	viper.SetDefault("transport.http.enabled", d.Transport.HTTP.Enabled)
	viper.SetDefault("transport.http.addr", d.Transport.HTTP.Addr)

	viper.SetDefault("tracing.enabled", d.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", d.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)

	for name, on := range d.Flags {
		viper.SetDefault("flags."+name, on)
	}
}

// initLogging enables file logging in debug mode and stderr logging at the
// configured level otherwise. The returned function closes the log file.
func initLogging() (func(), error) {
	if debugFlag || os.Getenv(debugEnv) != "" {
		path := os.Getenv(debugLogPathEnv)
		if path == "" {
			path = defaultDebugLog
		}
		cleanup, err := log.Init(path)
		if err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
		log.SetMinLevel(log.LevelDebug)
		log.Info(log.CatConfig, "namebridge starting", "debug", true, "log_path", path, "version", version)
		return cleanup, nil
	}
	log.InitWithWriter(os.Stderr, log.ParseLevel(cfg.LogLevel))
	return func() {}, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
