// Package config parses and validates Kronos's two configuration records:
// NamespaceSettings (one per backend connection) and StreamSettings (one
// per stream, overridable per request). Both follow spec §4.6 — every
// field is validated at construction and any unrecognized key in a loaded
// YAML document is rejected with storage.ConfigError rather than silently
// ignored.
//
// Loading follows the teacher's cmd/node convention of environment
// overrides on top of a base document (there, os.Getenv("NODE_ID") etc.;
// here, YAML via gopkg.in/yaml.v3 plus KRONOS_*-prefixed env vars).
package config
