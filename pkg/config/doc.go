// Package config loads walletlink configuration.
//
// Configuration is resolved in order: built-in defaults, then the YAML file
// (when a path is given), then WALLETLINK_* environment variables. The result
// is validated before it is returned.
package config
