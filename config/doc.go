// Package config loads engine configuration from TOML files with defaults
// for every unset field.
package config
