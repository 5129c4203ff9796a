package cli

import (
	"github.com/spf13/cobra"

	"statcan-proxy/src/internal/common"
	versionpkg "statcan-proxy/src/internal/version"
)

// CLI Constants
const (
	CmdServer     = "server"
	CmdFetch      = "fetch"
	CmdDatasets   = "datasets"
	CmdConfig     = "config"
	CmdConfigInit = "init"
	CmdVersion    = "version"
	FlagConfig    = "config"
	FlagPort      = "port"
	FlagOrigin    = "origin"
	FlagBackend   = "backend"
	FlagDirect    = "direct"
	FlagJSON      = "json"
	FlagForce     = "force"
	FlagVerbose   = "verbose"
)

// CLI Variables
var (
	configPath string
	port       int
	origin     string
	backendURL string
	direct     bool
	formatJSON bool
	force      bool
	verbose    bool
)

// newRootCmd builds a fresh command tree. Registering the flags resets the
// bound variables to their defaults, so every call starts from a clean state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "statcan-proxy",
		Short: "StatCan vector proxy and housing dataset client",
		Long: `statcan-proxy relays batches of Statistics Canada vector queries to the
Web Data Service and loads the housing datasets built from them.

QUICK START:
  statcan-proxy server                     # Start the proxy (port 3001)
  statcan-proxy fetch                      # Load every dataset through the proxy
  statcan-proxy fetch --direct mortgage    # Load one dataset straight from StatCan

AVAILABLE COMMANDS:
  statcan-proxy server                     # POST /api/statcan, GET /health
  statcan-proxy fetch [dataset|page...]    # Load datasets concurrently and print their state
  statcan-proxy datasets                   # List datasets and pages
  statcan-proxy config init [path]         # Write the default configuration
  statcan-proxy version                    # Show version

ENVIRONMENT:
  PORT, CLIENT_URL, STATCAN_URL, BACKEND_URL, STATCAN_TIMEOUT override the configuration file.
  STATCAN_PROXY_DEBUG=true enables debug logging.

Use 'statcan-proxy <command> --help' for detailed command information.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serverCmd := &cobra.Command{
		Use:   CmdServer,
		Short: "Start the proxy server",
		Long: `Start the HTTP proxy. POST /api/statcan forwards one batch of
{vectorId, latestN} queries to the provider and relays the response unchanged.

Only the configured client origin may call the proxy from a browser.

Examples:
  statcan-proxy server
  statcan-proxy server --port 8081 --origin https://housing.example.ca`,
		RunE: runServerCmd,
	}

	fetchCmd := &cobra.Command{
		Use:   CmdFetch + " [dataset|page...]",
		Short: "Load datasets and print their state",
		Long: `Mount the selected datasets, load them concurrently and print each one's
terminal state. A failed dataset never hides the others.

Without arguments every dataset is loaded. Page names select their datasets.

Examples:
  statcan-proxy fetch
  statcan-proxy fetch regional-affordability
  statcan-proxy fetch --direct --json affordability`,
		RunE: runFetchCmd,
	}

	datasetsCmd := &cobra.Command{
		Use:   CmdDatasets,
		Short: "List datasets and pages",
		RunE:  runDatasetsCmd,
	}

	configCmd := &cobra.Command{
		Use:   CmdConfig,
		Short: "Manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configInitCmd := &cobra.Command{
		Use:   CmdConfigInit + " [path]",
		Short: "Write the default configuration file",
		Long: `Write the default configuration as YAML. The path defaults to
~/.statcan-proxy/config.yaml. Existing files are kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConfigInitCmd,
	}

	versionCmd := &cobra.Command{
		Use:   CmdVersion,
		Short: "Show version information",
		RunE:  runVersionCmd,
	}

	// Server command flags
	serverCmd.Flags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (optional, will use defaults if not provided)")
	serverCmd.Flags().IntVarP(&port, FlagPort, "p", 0, "Server port (overrides config and PORT)")
	serverCmd.Flags().StringVar(&origin, FlagOrigin, "", "Allowed client origin (overrides config and CLIENT_URL)")

	// Fetch command flags
	fetchCmd.Flags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (optional)")
	fetchCmd.Flags().StringVar(&backendURL, FlagBackend, "", "Proxy base URL (overrides config and BACKEND_URL)")
	fetchCmd.Flags().BoolVar(&direct, FlagDirect, false, "Call the provider in-process instead of through the proxy")
	fetchCmd.Flags().BoolVar(&formatJSON, FlagJSON, false, "Output in JSON format")

	// Config command flags
	configInitCmd.Flags().BoolVarP(&force, FlagForce, "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	// Version command flags
	versionCmd.Flags().BoolVarP(&verbose, FlagVerbose, "v", false, "Show detailed version information")

	rootCmd.AddCommand(serverCmd, fetchCmd, datasetsCmd, configCmd, versionCmd)
	return rootCmd
}

// Command runner functions

func runServerCmd(cmd *cobra.Command, args []string) error {
	return RunServer(configPath, port, origin)
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	return RunFetch(cmd.OutOrStdout(), configPath, FetchOptions{
		BackendURL: backendURL,
		Direct:     direct,
		JSON:       formatJSON,
	}, args)
}

func runDatasetsCmd(cmd *cobra.Command, args []string) error {
	return ShowDatasets(cmd.OutOrStdout())
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	return InitConfig(path, force)
}

func runVersionCmd(cmd *cobra.Command, args []string) error {
	if verbose {
		common.CLILogger.Info("%s", versionpkg.GetFullVersionInfo())
		return nil
	}
	common.CLILogger.Info("statcan-proxy %s", versionpkg.GetVersion())
	return nil
}

// Execute runs a freshly built root command
func Execute() error {
	return newRootCmd().Execute()
}
