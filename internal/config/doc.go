// Package config provides centralized configuration management for tbsu.
// It loads configuration from defaults, an optional YAML file and the
// environment, then validates the result.
//
// # Configuration Sources
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Default values (Default)
//  2. YAML file named by TBSU_CONFIG, or config.yaml / configs/config.yaml
//  3. Environment variables with the TBSU_ prefix
//
// # Environment Variables
//
// The warehouse connection keeps the historical variable names:
//
//	TBSU_DW_HOST=warehouse.internal
//	TBSU_DW_USER=analyst        (falls back to $USER)
//	TBSU_DW_NAME=analytics
//
// Other sections follow the same pattern, e.g. TBSU_LOGGING_LEVEL=debug,
// TBSU_CONCORD_MAX_ITERATIONS=500, TBSU_SLACK_RATE_PER_SECOND=1.
//
// # Path Management
//
// Paths resolves where the alerter and channel registries and the log files
// live. By default everything sits under the user config directory:
//
//	paths, err := config.GetPaths(cfg.Paths.BaseDir)
//	registry := alerts.NewRegistry(paths.AlertersFile, paths.ChannelsFile)
package config
