// Package config loads and validates the tone engine's service
// configuration: the admin HTTP listener, log level/format/output, the
// default cadence language, and detector defaults. It is loaded with
// Viper and can be hot-reloaded via Watch, so a running server picks up
// edits to its config file without a restart.
package config
