// Package config loads and validates recallhub configuration.
//
// Configuration is stored in TOML. Load resolves the config path
// (explicit flag, ~/.config/recallhub/config.toml, then ./recallhub.toml),
// applies defaults for missing values, expands ~ in path fields, and
// validates the result. A missing config file is not an error; defaults
// apply and callers can report that no file was found.
package config
