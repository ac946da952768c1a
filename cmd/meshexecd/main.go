package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgemesh/meshexec/internal/config"
	"github.com/edgemesh/meshexec/internal/dispatch"
	"github.com/edgemesh/meshexec/internal/logging"
	"github.com/edgemesh/meshexec/internal/observability"
	"github.com/edgemesh/meshexec/internal/overlay"
	"github.com/edgemesh/meshexec/internal/server"
	"github.com/edgemesh/meshexec/internal/tools"
	"github.com/edgemesh/meshexec/internal/transport"
	"github.com/rs/zerolog/log"
)

const drainTimeout = 90 * time.Second

func main() {
	var configPath string
	var localPath string
	flag.StringVar(&configPath, "config", "", "service config file (toml)")
	flag.StringVar(&localPath, "local", "meshexecd.toml", "optional local override file (toml)")
	flag.Parse()

	logging.ConfigureRuntime()
	if err := run(configPath, localPath); err != nil {
		fmt.Fprintf(os.Stderr, "meshexecd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, localPath string) error {
	cfg, err := loadDaemonConfig(configPath, localPath)
	if err != nil {
		return err
	}
	observability.InitLogger(cfg.Name)

	tailnet := overlay.NewTailnet(overlay.TailnetConfig{
		Hostname: cfg.Overlay.Hostname,
		StateDir: cfg.Overlay.StateDir,
		AuthKey:  os.Getenv(cfg.Overlay.AuthKeyEnv),
		CLIPath:  cfg.Overlay.CLIPath,
	}, nil)

	upCtx, upCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := tailnet.Up(upCtx); err != nil {
		// Executions against a down overlay fail per-request; the HTTP
		// surface still comes up so /health reports the state.
		log.Warn().Err(err).Msg("overlay_up_failed")
	}
	upCancel()

	primary, err := buildPrimary(cfg, tailnet)
	if err != nil {
		return err
	}
	chain := transport.NewChain(tailnet, primary, transport.ChainConfig{
		User:           cfg.Exec.User,
		OverallTimeout: time.Duration(cfg.Exec.OverallTimeoutSeconds) * time.Second,
		ProbeTimeout:   time.Duration(cfg.Exec.ProbeTimeoutSeconds) * time.Second,
		Node:           cfg.Name,
	})

	dispatcher := dispatch.NewDispatcher(dispatch.NewStore(), chain, cfg.Name)
	node := server.Appear(cfg.Name, cfg.Addr, cfg.CorsOrigins, dispatcher, tailnet)
	node.RegisterRoutes()

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: node.HTTPRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("node", cfg.Name).
			Str("addr", cfg.Addr).
			Str("transport", cfg.Exec.Transport).
			Msg("meshexecd_listening")
		serveErr <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http_shutdown_failed")
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("drain_incomplete")
		return err
	}
	log.Info().Msg("meshexecd_stopped")
	return nil
}

func buildPrimary(cfg config.ServiceConfig, network overlay.Network) (transport.Executor, error) {
	connect := time.Duration(cfg.Exec.ConnectTimeoutSeconds) * time.Second
	switch cfg.Exec.Transport {
	case config.TransportCLI:
		return transport.CLISSH{
			Runner:            tools.ExecRunner{},
			Binary:            cfg.Exec.SSHBinary,
			ConnectTimeout:    connect,
			KeepaliveInterval: time.Duration(cfg.Exec.KeepaliveSeconds) * time.Second,
		}, nil
	case config.TransportNative:
		return transport.NativeSSH{
			Network:        network,
			KeyPath:        cfg.Exec.SSHKeyPath,
			KnownHostsPath: cfg.Exec.KnownHostsPath,
			ConnectTimeout: connect,
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Exec.Transport)
	}
}
