package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/namebridge/internal/chain/walletlink"
	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/engine"
	"github.com/zjrosen/namebridge/internal/orchestration/metrics"
	"github.com/zjrosen/namebridge/internal/orchestration/tracing"
	"github.com/zjrosen/namebridge/internal/transport"
	"github.com/zjrosen/namebridge/internal/transport/httpapi"
	"github.com/zjrosen/namebridge/internal/transport/natsbus"
	"github.com/zjrosen/namebridge/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration engine",
	Long: `Run the engine with the transports enabled in the config. Requests arrive
over NATS and the HTTP API; prompts and notices leave over NATS.

Edits to the config file are picked up while running: buffer percent, gas
reserve and linked wallets change in place. Everything else needs a restart.

Example:
  namebridge serve
  namebridge serve --addr :8080
  namebridge serve --network testnet`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP API address (overrides transport.http.addr)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collab, err := dialCollaborators(ctx, cfg)
	if err != nil {
		return err
	}
	defer collab.close()

	provider, err := tracing.NewProvider(tracingConfig(cfg.Tracing))
	if err != nil {
		return fmt.Errorf("creating tracing provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatOrch, "tracing shutdown failed", err)
		}
	}()

	m := metrics.New()
	ecfg, err := engineConfig(cfg, collab)
	if err != nil {
		return err
	}
	ecfg.Metrics = m
	ecfg.Tracer = provider.Tracer()

	eng, err := engine.New(ecfg)
	if err != nil {
		return err
	}
	decoder := transport.NewDecoder(cfg.Registration.Duration)

	var bus *natsbus.Bus
	if nc := cfg.Transport.NATS; nc.Enabled {
		conn, err := natsbus.Connect(nc.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		bus = natsbus.New(conn, natsbus.Subjects{
			Request:  nc.RequestSubject,
			Response: nc.ResponseSubject,
			Action:   nc.ActionSubject,
			Notice:   nc.NoticeSubject,
		}, decoder, eng)
		eng.AddSink(bus)
	}

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Drain()

	if bus != nil {
		if err := bus.Start(); err != nil {
			return err
		}
		defer bus.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	if path := viper.ConfigFileUsed(); path != "" {
		g.Go(func() error {
			watchConfig(gctx, path, eng, collab.wallets)
			return nil
		})
	}
	if cfg.Transport.HTTP.Enabled || serveAddr != "" {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Transport.HTTP.Addr
		}
		api := httpapi.New(eng, decoder, m.Handler())
		g.Go(func() error {
			return api.ListenAndServe(gctx, addr)
		})
	}

	log.Info(log.CatConfig, "namebridge serving",
		"network", cfg.Network,
		"nats", cfg.Transport.NATS.Enabled,
		"http", cfg.Transport.HTTP.Enabled || serveAddr != "")
	fmt.Println("namebridge running. Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	<-ctx.Done()
	fmt.Println("\nshutting down...")
	return nil
}

// reloader accepts new tunables at runtime.
type reloader interface {
	Reload(t command.Tunables) error
}

// watchConfig re-reads the config file after every change until ctx ends.
func watchConfig(ctx context.Context, path string, r reloader, wallets *walletlink.Registry) {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.ErrorErr(log.CatConfig, "config watcher unavailable", err, "path", path)
		return
	}
	changes, err := w.Start()
	if err != nil {
		log.ErrorErr(log.CatConfig, "config watcher unavailable", err, "path", path)
		_ = w.Stop()
		return
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := reloadConfig(r, wallets); err != nil {
				log.ErrorErr(log.CatConfig, "config reload rejected", err, "path", path)
			}
		}
	}
}

// reloadConfig applies the hot-reloadable subset of the config file. A file
// that fails validation leaves the running settings untouched.
func reloadConfig(r reloader, wallets *walletlink.Registry) error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	next, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.ValidateRegistration(next.Registration); err != nil {
		return err
	}
	if err := config.ValidateWallets(next.Wallets); err != nil {
		return err
	}
	linked, err := walletlink.FromConfig(next.Wallets)
	if err != nil {
		return err
	}
	t, err := tunables(next)
	if err != nil {
		return err
	}
	if err := r.Reload(t); err != nil {
		return fmt.Errorf("submitting reload: %w", err)
	}
	wallets.Replace(linked)

	cfg.Registration.BufferPercent = next.Registration.BufferPercent
	cfg.Registration.GasReserve = next.Registration.GasReserve
	cfg.Wallets = next.Wallets
	log.Info(log.CatConfig, "config reloaded",
		"buffer_percent", t.BufferPercent,
		"gas_reserve", next.Registration.GasReserve,
		"users", len(next.Wallets))
	return nil
}
