// Package config provides configuration management for keeper.
//
// Configuration is read from a YAML or TOML file, completed with defaults,
// optionally overridden from the environment, and validated as a whole.
//
// # Configuration Loading
//
//  1. From a file only:
//     cfg, err := config.LoadConfig("keeper.yaml")
//
//  2. From a file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("keeper.toml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention KEEPER_SECTION_FIELD:
//
//   - KEEPER_DATABASE_PATH overrides database.path
//   - KEEPER_RECORD_RETAIN_DAYS overrides record.retain.days
//   - KEEPER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Camera Inheritance
//
// Each entry under cameras may set record.retain.days and
// record.events.retain.mode. Unset values are copied from the global record
// section by ApplyDefaults. Recordings of cameras missing from the map are
// treated as orphans and expire after the global record.retain.days.
//
// # Hot Reload
//
// Watcher observes the configuration file and calls ReloadConfig when it
// changes. Readers call GetConfig at the start of each unit of work, so a
// reload takes effect on the next expiration pass.
package config
