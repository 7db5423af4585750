// Package config loads the tracker configuration.
//
// # Configuration Sources
//
// Values are layered in order of precedence:
//
//  1. Environment variables (highest priority), prefixed TRACKER_
//  2. A YAML file: the explicit path, TRACKER_CONFIG_FILE, tracker.yaml
//     or configs/tracker.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// Nested sections map to underscored names:
//
//	TRACKER_PATHS_INPUT_DIR=/data/input
//	TRACKER_PIPELINE_EVALUATION_DATE=2024-06-30
//	TRACKER_PIPELINE_ALLOWED_STATUSES=done:completed,wip:in-progress
//	TRACKER_EXPORT_FORMATS=csv,xlsx
//	TRACKER_LOGGING_LEVEL=debug
//	TRACKER_SERVER_ADDR=:9090
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	paths, err := cfg.ResolvePaths()
//
// For tests, Default returns a configuration that needs no environment.
package config
