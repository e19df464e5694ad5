// Package config defines the configuration model for the clearance engine.
//
// Configuration is loaded from a YAML file, filled in with defaults, and
// validated before use. Environment variables with the AEGIS_ prefix
// override file values and follow the naming convention
// AEGIS_SECTION_FIELD (e.g. AEGIS_SERVER_LISTEN_ADDRESS).
package config
