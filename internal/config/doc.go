// Package config defines the application configuration structure and
// handles loading it from environment variables and config files.
package config
