// Package config loads, normalizes, and validates Ludex configuration.
//
// Configuration comes from a TOML file (default ~/.config/ludex/config.toml,
// or ludex.toml in the working directory). Defaults apply for every field, so
// a missing file still yields a usable config; validation reports actionable
// errors for values that cannot work.
package config
