// Package config holds the settings of a rulings harvest run.
//
// A Config starts from NewConfig defaults, is overlaid by an optional YAML
// file (LoadFile) and by RULINGS_* environment variables (ApplyEnv), and is
// finally overridden by command-line flags in cmd/rulings-harvest. Validate
// must pass before the values are handed to the harvester.
package config
