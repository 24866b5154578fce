// Package config loads, validates and defaults the appliance settings from a
// single YAML file: MQTT connection and topics, shairport metadata pipe,
// rotary encoder GPIO pins and debounce intervals, display devices, sound
// directory and mixer names, and the show durations for each display layer.
package config
