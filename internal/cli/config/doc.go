// Package config defines the redkv-cli configuration.
//
// Settings come from ~/.redkv/cli.yaml, REDKV_CLI_* environment variables
// and command-line flags, in increasing priority.
package config
