package cli

import (
	"fmt"
	"io"

	"statcan-proxy/src/aggregator"
	clicommon "statcan-proxy/src/cli/common"
	"statcan-proxy/src/internal/common"
)

// FetchOptions selects the fetch target and output format
type FetchOptions struct {
	BackendURL string
	Direct     bool
	JSON       bool
}

// RunFetch loads the named datasets (all when none) concurrently and writes
// each one's terminal state to out. It fails after printing when any dataset failed.
func RunFetch(out io.Writer, configPath string, opts FetchOptions, names []string) error {
	datasets, err := aggregator.Select(names...)
	if err != nil {
		return err
	}

	cmdCtx, err := clicommon.NewCommandContext(configPath, clicommon.CommandContextOptions{
		BackendURL: opts.BackendURL,
		Direct:     opts.Direct,
	})
	if err != nil {
		return err
	}
	defer cmdCtx.Cleanup()

	view := aggregator.NewView(aggregator.Names(datasets)...)
	defer view.Close()

	common.CLILogger.Info("Loading %d datasets via %s", len(datasets), cmdCtx.Target)
	_, errs := cmdCtx.Loader.LoadView(cmdCtx.Context, view, datasets)
	states, err := view.Wait(cmdCtx.Context)
	if err != nil {
		return fmt.Errorf("waiting for datasets: %w", err)
	}

	if opts.JSON {
		err = writeStatesJSON(out, datasets, states)
	} else {
		err = writeStatesTable(out, datasets, states)
	}
	if err != nil {
		return err
	}

	if errs.HasErrors() {
		common.CLILogger.Warn("%s", errs.GetErrorSummary())
		return fmt.Errorf("%d of %d datasets failed", errs.GetErrorCount(), len(datasets))
	}
	return nil
}

// ShowDatasets lists the catalog and its pages
func ShowDatasets(out io.Writer) error {
	return writeCatalog(out, aggregator.Catalog(), aggregator.Pages())
}
