// Package config provides file-based run configuration. It loads
// YAML or JSON into a typed accessor and translates well-known keys
// into engine run options, so operational tuning (step limits, node
// timeouts, stream buffering) does not require recompilation.
package config
