// Package config defines the exe-builder-server settings and provides
// helpers to load, validate and save them in YAML format.
//
// Watch follows the settings file with fsnotify so a running server can
// pick up a new log level without a restart.
package config
