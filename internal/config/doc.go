// Package config loads, normalizes, and validates chunkenc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CHUNKENC_FFMPEG. The Config type centralizes every knob the encode pipeline
// and CLI need so the scratch root, tool binaries, and encoder parameters are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
