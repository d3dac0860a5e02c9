package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// NamespaceSettings configures one backend connection: the hosts to
// contact, the keyspace-name prefix shared by every namespace, the
// replication factor used when a keyspace is first created, and the page
// size every shard iterator requests per round-trip.
type NamespaceSettings struct {
	Hosts             []string `yaml:"hosts"`
	KeyspacePrefix    string   `yaml:"keyspace_prefix"`
	ReplicationFactor int      `yaml:"replication_factor"`
	ReadSize          int      `yaml:"read_size"`
}

// StreamSettings is the document form of storage.StreamConfig: a stream's
// effective time-width and shard count, as loaded from YAML or supplied
// per request.
type StreamSettings struct {
	TimewidthSeconds int `yaml:"timewidth_seconds"`
	ShardsPerBucket  int `yaml:"shards_per_bucket"`
}

// ToStreamConfig converts a validated StreamSettings to the storage
// package's wire type.
func (s StreamSettings) ToStreamConfig() storage.StreamConfig {
	return storage.StreamConfig{
		TimewidthSeconds: s.TimewidthSeconds,
		ShardsPerBucket:  s.ShardsPerBucket,
	}
}

// Validate checks every NamespaceSettings field against spec §4.6: hosts
// must be a non-empty list, keyspace_prefix a non-empty string,
// replication_factor and read_size positive integers.
func (s NamespaceSettings) Validate() error {
	if len(s.Hosts) == 0 {
		return &storage.ConfigError{Key: "hosts", Reason: "must be a non-empty list"}
	}
	if strings.TrimSpace(s.KeyspacePrefix) == "" {
		return &storage.ConfigError{Key: "keyspace_prefix", Reason: "must be a non-empty string"}
	}
	if s.ReplicationFactor <= 0 {
		return &storage.ConfigError{Key: "replication_factor", Reason: "must be a positive integer"}
	}
	if s.ReadSize <= 0 {
		return &storage.ConfigError{Key: "read_size", Reason: "must be a positive integer"}
	}
	return nil
}

// Validate checks StreamSettings against spec §4.6 and §6: both fields
// must be positive, and timewidth_seconds must not produce a kronos-time
// width exceeding ktime.MaxWidth — a width large enough to wrap the
// UUIDv1 timestamp field used by every id in the stream.
func (s StreamSettings) Validate() error {
	if s.TimewidthSeconds <= 0 {
		return &storage.ConfigError{Key: "timewidth_seconds", Reason: "must be a positive integer"}
	}
	if s.ShardsPerBucket <= 0 {
		return &storage.ConfigError{Key: "shards_per_bucket", Reason: "must be a positive integer"}
	}
	width, err := ktime.SecondsToKronosTime(float64(s.TimewidthSeconds))
	if err != nil {
		return &storage.ConfigError{Key: "timewidth_seconds", Reason: err.Error()}
	}
	if width > ktime.MaxWidth {
		return &storage.ConfigError{
			Key:    "timewidth_seconds",
			Reason: fmt.Sprintf("exceeds the maximum representable width (%g seconds)", ktime.MaxWidth.Seconds()),
		}
	}
	return nil
}

// knownNamespaceKeys and knownStreamKeys enumerate the recognized
// configuration keys; anything else in a loaded document is a
// storage.ConfigError, per spec §6 ("unknown keys are rejected").
var (
	knownNamespaceKeys = map[string]bool{
		"hosts": true, "keyspace_prefix": true, "replication_factor": true, "read_size": true,
	}
	knownStreamKeys = map[string]bool{
		"timewidth_seconds": true, "shards_per_bucket": true,
	}
)

func rejectUnknownKeys(raw map[string]yaml.Node, known map[string]bool) error {
	for key := range raw {
		if !known[key] {
			return &storage.ConfigError{Key: key, Reason: "unrecognized configuration key"}
		}
	}
	return nil
}

// LoadNamespaceSettings reads a YAML document naming NamespaceSettings
// fields, applies KRONOS_*-prefixed environment overrides the way the
// teacher's cmd/node reads NODE_ID/NODE_ADDR from the environment on top of
// defaults, and then validates the result.
func LoadNamespaceSettings(data []byte) (NamespaceSettings, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return NamespaceSettings{}, &storage.ConfigError{Key: "<document>", Reason: err.Error()}
	}
	if err := rejectUnknownKeys(raw, knownNamespaceKeys); err != nil {
		return NamespaceSettings{}, err
	}

	var settings NamespaceSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return NamespaceSettings{}, &storage.ConfigError{Key: "<document>", Reason: err.Error()}
	}
	applyNamespaceEnvOverrides(&settings)
	if err := settings.Validate(); err != nil {
		return NamespaceSettings{}, err
	}
	return settings, nil
}

func applyNamespaceEnvOverrides(s *NamespaceSettings) {
	if v := os.Getenv("KRONOS_HOSTS"); v != "" {
		s.Hosts = strings.Split(v, ",")
	}
	if v := os.Getenv("KRONOS_KEYSPACE_PREFIX"); v != "" {
		s.KeyspacePrefix = v
	}
	if v := os.Getenv("KRONOS_REPLICATION_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.ReplicationFactor = n
		}
	}
	if v := os.Getenv("KRONOS_READ_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.ReadSize = n
		}
	}
}

// ParseStreamConfig validates a request-supplied settings mapping (spec
// §6's Config) and converts it to storage.StreamConfig, rejecting unknown
// keys.
func ParseStreamConfig(m map[string]int) (storage.StreamConfig, error) {
	for key := range m {
		if !knownStreamKeys[key] {
			return storage.StreamConfig{}, &storage.ConfigError{Key: key, Reason: "unrecognized configuration key"}
		}
	}
	s := StreamSettings{
		TimewidthSeconds: m["timewidth_seconds"],
		ShardsPerBucket:  m["shards_per_bucket"],
	}
	if err := s.Validate(); err != nil {
		return storage.StreamConfig{}, err
	}
	return s.ToStreamConfig(), nil
}
