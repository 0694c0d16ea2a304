// Package config loads and validates the lock bridge configuration.
//
// Configuration is read from a YAML file with hardcoded defaults and
// environment variable overrides (LOCKBRIDGE_* pattern). Only
// infrastructure settings live here; device behaviour settings are kept
// in the preferences store (see internal/prefs) so they can change at
// runtime without redeploying the binary.
package config
