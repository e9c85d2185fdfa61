// Package config provides configuration management for the enrollment planner.
//
// This package handles loading, validation, and access to planner configuration
// from a YAML file, environment variables, and command-line flags.
//
// Configuration Sections:
//
//   - data: locations of the history CSV and the model artifact
//   - server: HTTP listen address and timeouts
//   - capacity: global tutor rounding policy and capacity profiles
//   - log: verbosity and encoder
//
// Configuration Sources:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (PLANNER_ prefix, '.' becomes '_')
//  3. planner.yaml (--config, ./planner.yaml, /etc/enrollment-planner/planner.yaml)
//  4. Default values (lowest priority)
//
// Capacity profiles are YAML snippets keyed by name. The "default" entry is
// merged under every named profile, and unset fields fall back to the built-in
// slider bounds (hours per student 0.5-5.0, default 1.5; hours per tutor 5-40,
// default 12).
//
// Example usage:
//
//	v := config.NewViper(configFile)
//	cfg, err := config.Load(v)
//	if err != nil {
//	    return err
//	}
//	profile := cfg.CapacityProfiles().Get("evening")
//	log.Info("capacity profile",
//	    "hoursPerTutorMax", profile.HoursPerTutor.Max,
//	    "rounding", cfg.RoundingPolicy())
package config
