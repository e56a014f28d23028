// Package config loads and validates the YAML configuration for the focus
// service: the brewery presence endpoint, health-check tuning, bridge load
// model parameters, and the selection strategy.
//
// Watch provides fsnotify-based hot reload. Only the stress threshold and
// region groups are applied at runtime; everything else requires a restart.
package config
