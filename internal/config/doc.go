// Package config loads application settings from an optional YAML file, a
// dotenv file and SCRY_-prefixed environment variables, and validates them.
//
// Environment variable names are the upper-cased key path with dots replaced
// by underscores, e.g. SCRY_SERVER_PORT or SCRY_STUDY_HISTORY_SIZE.
package config
