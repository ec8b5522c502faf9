// Package config provides loading and environment overlay for the agent
// configuration. It exposes a Default() baseline, file loading (JSON or YAML
// by extension), and a FromEnv overlay recognizing the deployment's
// environment variables.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/journalcloud.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	if err := config.FromEnv(&cfg); err != nil { /* fatal */ }
//	if err := cfg.Validate(); err != nil { /* fatal */ }
package config
