// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (applied by the caller via LoadMap)
//  2. Environment variables with the REDKV_ prefix
//  3. A .env file, read with godotenv, using the same variable names
//  4. A YAML configuration file
//  5. Default values already present in the target struct
//
// Variable names map to keys by splitting at the first underscore after the
// prefix: REDKV_STORAGE_SNAPSHOT_PATH sets storage.snapshot_path.
//
// Watcher reports changes to a configuration file via fsnotify so that
// selected settings can be applied without a restart.
package confloader
