// Package config has two concerns. The koanf loader (settings.go) layers
// mycelium's own application settings: built-in defaults, then the user
// config file, then MYCELIUM_* environment variables. The merge resolver
// (merge.go) combines the global/machine/project component-config layers
// into one MergedConfig with per-key source attribution, which is what
// gets pushed through tool adapters during sync.
package config
