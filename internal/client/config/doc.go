// Package config loads runtime configuration for the feedbackkit CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see Default).
//  2. Optional JSON or YAML file selected with -c/--config. The format
//     follows the file extension (.yaml and .yml are YAML, anything else
//     is JSON).
//  3. Command-line flags that were explicitly set.
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds:
//
//	api_root: https://api.example.com/v1
//	tenant_id: 4b3c...
//	application_id: 9f1e...
//	page_size: 15
//	request_timeout: 10s
//	cache_ttl: 5m
//	log_level: info
//
// Environment variables are not read; use the file or flags.
package config
