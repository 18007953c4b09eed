// Package config loads the codescout YAML configuration.
//
// Files are expanded with secret.ExpandEnvStrict before decoding, so a
// missing ${VAR} is an error rather than an empty string. Decoding starts
// from Default, which means a file only needs the settings it changes.
//
// Example:
//
//	github:
//	  timeout: 20s
//	  search_rate: 0.25
//	cache:
//	  max_entries: 2000
//	  prefix_ttls:
//	    issue-search: 10m
//	content:
//	  minify: false
//	token:
//	  ref: secretref:env:CODESCOUT_TOKEN
package config
