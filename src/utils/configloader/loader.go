package configloader

import (
	"os"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
)

// LoadOrDefault loads configPath, then the default path, then built-in defaults,
// and overlays environment variables on whichever was used.
func LoadOrDefault(configPath string) *config.Config {
	cfg := loadFile(configPath)
	cfg.ApplyEnv()
	return cfg
}

func loadFile(configPath string) *config.Config {
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err == nil {
			return loaded
		}
		common.CLILogger.Warn("Failed to load config from %s, using defaults: %v", configPath, err)
	}

	defaultPath := config.GetDefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		loaded, err := config.LoadConfig(defaultPath)
		if err == nil {
			return loaded
		}
		common.CLILogger.Warn("Failed to load default config from %s, using defaults: %v", defaultPath, err)
	}

	return config.GetDefaultConfig()
}

// LoadForServer loads configuration for the proxy. A port override of zero
// keeps the configured port.
func LoadForServer(configPath string, port int, origin string) *config.Config {
	cfg := LoadOrDefault(configPath)
	if port > 0 {
		cfg.Server.Port = port
	}
	if origin != "" {
		cfg.Server.AllowedOrigin = origin
	}
	return cfg
}

// LoadForClient loads configuration for the aggregation client
func LoadForClient(configPath string, backendURL string) *config.Config {
	cfg := LoadOrDefault(configPath)
	if backendURL != "" {
		cfg.Client.BackendURL = backendURL
	}
	return cfg
}
