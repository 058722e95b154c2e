// Package config loads the AssetGrid daemon configuration from a JSON or YAML
// file, fills in defaults and applies environment overrides for secrets.
package config
