// Package config loads, normalizes, and validates Sori configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SORI_REFERENCE_DIR. The Config type centralizes every knob the CLI needs,
// allowing the data/store/reference directories and synthesis settings to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
