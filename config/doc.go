// Package config handles loading and validation of the tracker configuration
// from a .env file, an optional YAML file and environment variables. It
// defines the Notion and Discord credentials, the probe retry policy, report
// formatting options and logging settings.
package config
