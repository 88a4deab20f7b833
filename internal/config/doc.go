// Package config loads, normalizes, and validates foldersort configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FOLDERSORT_WORKER_BINARY. The Config type centralizes every knob the CLI,
// the worker supervisor and the reconciler need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum values, and clear validation errors.
package config
