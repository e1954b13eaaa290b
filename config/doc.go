// Package config handles application configuration loading and management.
//
// Configuration is stored in ~/.mailmt/config.json (or $MAILMT_CONFIG_DIR) and
// holds the worker pool limits and the presentation settings of the job host.
package config
