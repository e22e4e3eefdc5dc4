// Package config loads service settings from defaults, an optional
// config.yaml and STUDYGEN_-prefixed environment variables, and validates
// them before any component is constructed.
package config
