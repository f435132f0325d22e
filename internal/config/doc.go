// Package config loads the vapi-gateway YAML configuration.
//
// ${VAR} references are expanded from the environment before parsing, which
// keeps secrets like the JWT signing key out of the file itself. Durations
// are written as Go duration strings ("20s") and parsed on load.
package config
