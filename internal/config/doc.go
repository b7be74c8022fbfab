// Package config defines the settings shared by the alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Besides the control address and the state file, the Config type tunes the
// engine: poll and retry timing, the fade-in capability, device pre-wake and
// health monitoring, notifications and the built-in mock actuator.
package config
