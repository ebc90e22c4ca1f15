// Package config provides the configuration system for taptrack.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← TAPTRACK_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/taptrack/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Every layer is a nested map produced by package loader. The merged map
// is decoded into a typed Config and validated.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.Options{Path: path})
//	if err != nil {
//		return err
//	}
//	rec := gesture.NewRecognizer(cfg.Thresholds())
//
// Durations accept Go duration strings ("750ms") or integer milliseconds.
package config
