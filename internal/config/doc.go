// Package config loads the runtime settings of stackctl from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. File locations are resolved
// against the project root with Config.Path.
package config
