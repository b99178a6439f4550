// Package config loads the stepanalysis configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stepanalysis/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// # TOML Format
//
//	service_url           = "http://localhost:8080/service"
//	auth_token            = ""          # sent as the Auth-Key header
//	request_timeout       = "30s"
//	countdown_interval    = "1s"        # one poll countdown tick
//	log_file              = "~/.local/state/stepanalysis/stepanalysis.log"
//	log_level             = "info"      # debug, info, warn, error
//	log_format            = "text"      # text or json
//	metrics_addr          = ""          # e.g. "127.0.0.1:9102"; empty disables
//	param_spec_cache_size = 64
//
// Every field is optional. Durations use Go syntax. Tilde expansion is
// applied to log_file.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and invalid values (all prefixed "parse config")
//
// Command-line flags override individual fields after Load; see
// cmd/stepanalysis.
package config
