package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
	"statcan-proxy/src/server"
	"statcan-proxy/src/utils/configloader"
)

// RunServer starts the proxy and blocks until SIGINT or SIGTERM
func RunServer(configPath string, port int, origin string) error {
	cfg := configloader.LoadForServer(configPath, port, origin)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := startGateway(ctx, cfg)
	if err != nil {
		return err
	}
	return waitAndStop(ctx, gateway)
}

func startGateway(ctx context.Context, cfg *config.Config) (*server.HTTPGateway, error) {
	gateway, err := server.NewHTTPGateway(cfg.ListenAddr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	if err := gateway.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start gateway: %w", err)
	}

	common.CLILogger.Info("StatCan proxy started on %s", gateway.Address())
	common.CLILogger.Info("Proxy endpoint: http://%s%s -> %s", gateway.Address(), server.PathStatCan, cfg.Upstream.URL)
	common.CLILogger.Info("Health check endpoint: http://%s%s", gateway.Address(), server.PathHealth)
	common.CLILogger.Info("Allowed origin: %s", cfg.Server.AllowedOrigin)
	return gateway, nil
}

// waitAndStop blocks until ctx ends, then shuts the gateway down within common.ShutdownTimeout
func waitAndStop(ctx context.Context, gateway *server.HTTPGateway) error {
	<-ctx.Done()
	common.CLILogger.Info("Received shutdown signal, stopping proxy...")

	shutdownCtx, cancel := common.CreateContext(common.ShutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- gateway.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			common.CLILogger.Warn("Proxy stopped with error: %v", err)
			return err
		}
		common.CLILogger.Info("Proxy stopped successfully")
	case <-shutdownCtx.Done():
		common.CLILogger.Warn("Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
	return nil
}

// InitConfig writes the default configuration to path, or the default path when empty
func InitConfig(path string, overwrite bool) error {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.GenerateDefaultConfig(path); err != nil {
		return err
	}
	common.CLILogger.Info("Wrote default configuration to %s", path)
	return nil
}
