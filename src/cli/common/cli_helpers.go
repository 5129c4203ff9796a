package common

import (
	"fmt"

	"statcan-proxy/src/aggregator"
	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/types"
	"statcan-proxy/src/server"
	"statcan-proxy/src/utils/configloader"
)

// LoadConfigForCLI loads client configuration; a non-empty backendURL wins over file and env
func LoadConfigForCLI(configPath, backendURL string) (*config.Config, error) {
	cfg := configloader.LoadForClient(configPath, backendURL)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CreateFetcher returns the proxy client, or the in-process forwarder when direct is set.
// The description names where batches go.
func CreateFetcher(cfg *config.Config, direct bool) (types.VectorFetcher, string) {
	if direct {
		fwd := server.NewForwarder(cfg.Upstream)
		return fwd, "direct " + fwd.Endpoint()
	}
	client := aggregator.NewProxyClient(cfg.Client)
	return client, "proxy " + client.Endpoint()
}
