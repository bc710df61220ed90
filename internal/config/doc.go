// Package config loads, normalizes, and validates aircheq-podcast
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, accepts the legacy JSON query file written by
// earlier releases, and honours environment fallbacks such as
// AIRCHEQ_PODCAST_URL_ROOT. The Config type centralizes every knob the
// publication pipeline and CLI need so crawl/publish directories, the query
// list, and converter settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
