// Package config loads and validates the server configuration.
//
// Configuration is read from a YAML file; every field has a default so an
// empty file (or no file at all) yields a runnable server. Validation is
// strict: a config that passes Validate needs no further checking
// downstream.
package config
