// Package config provides the redkv-server configuration schema.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of ranges, formats and enumerations
//   - sanitize.go: Masking of secrets before the config is logged
//
// Configuration is loaded via internal/infra/confloader from defaults, a
// YAML file, a .env file and REDKV_ environment variables, in that order.
package config
