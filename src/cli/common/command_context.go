package common

import (
	"context"
	"time"

	"statcan-proxy/src/aggregator"
	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
	"statcan-proxy/src/internal/types"
)

// CommandContext encapsulates the lifecycle of a client-side CLI command
type CommandContext struct {
	Config  *config.Config
	Fetcher types.VectorFetcher
	Loader  *aggregator.Loader
	Target  string
	Context context.Context
	Cancel  context.CancelFunc
}

// CommandContextOptions configures CommandContext creation
type CommandContextOptions struct {
	Timeout    time.Duration // zero leaves the context without a deadline
	BackendURL string
	Direct     bool // call the provider in-process
}

// NewCommandContext loads configuration and builds the fetcher and loader
func NewCommandContext(configPath string, opts CommandContextOptions) (*CommandContext, error) {
	cfg, err := LoadConfigForCLI(configPath, opts.BackendURL)
	if err != nil {
		return nil, err
	}

	fetcher, target := CreateFetcher(cfg, opts.Direct)
	ctx, cancel := common.WithOptionalTimeout(context.Background(), opts.Timeout)
	common.CLILogger.Debug("Loading datasets via %s", target)

	return &CommandContext{
		Config:  cfg,
		Fetcher: fetcher,
		Loader:  aggregator.NewLoader(fetcher),
		Target:  target,
		Context: ctx,
		Cancel:  cancel,
	}, nil
}

// Cleanup releases the command context
func (c *CommandContext) Cleanup() {
	if c.Cancel != nil {
		c.Cancel()
	}
}
