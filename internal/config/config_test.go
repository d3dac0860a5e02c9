package config

import "testing"

func TestLoadNamespaceSettingsValid(t *testing.T) {
	doc := []byte(`
hosts: ["10.0.0.1", "10.0.0.2"]
keyspace_prefix: kronos
replication_factor: 3
read_size: 100
`)
	s, err := LoadNamespaceSettings(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Hosts) != 2 || s.KeyspacePrefix != "kronos" || s.ReplicationFactor != 3 || s.ReadSize != 100 {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestLoadNamespaceSettingsRejectsUnknownKey(t *testing.T) {
	doc := []byte(`
hosts: ["10.0.0.1"]
keyspace_prefix: kronos
replication_factor: 1
read_size: 100
bogus_key: true
`)
	if _, err := LoadNamespaceSettings(doc); err == nil {
		t.Fatal("expected ConfigError for unknown key")
	}
}

func TestLoadNamespaceSettingsRejectsEmptyHosts(t *testing.T) {
	doc := []byte(`
hosts: []
keyspace_prefix: kronos
replication_factor: 1
read_size: 100
`)
	if _, err := LoadNamespaceSettings(doc); err == nil {
		t.Fatal("expected ConfigError for empty hosts")
	}
}

func TestParseStreamConfigValid(t *testing.T) {
	cfg, err := ParseStreamConfig(map[string]int{
		"timewidth_seconds": 60,
		"shards_per_bucket": 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TimewidthSeconds != 60 || cfg.ShardsPerBucket != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseStreamConfigRejectsUnknownKey(t *testing.T) {
	_, err := ParseStreamConfig(map[string]int{
		"timewidth_seconds": 60,
		"shards_per_bucket": 4,
		"bogus":             1,
	})
	if err == nil {
		t.Fatal("expected ConfigError for unknown key")
	}
}

func TestParseStreamConfigRejectsNonPositive(t *testing.T) {
	_, err := ParseStreamConfig(map[string]int{
		"timewidth_seconds": 0,
		"shards_per_bucket": 4,
	})
	if err == nil {
		t.Fatal("expected ConfigError for zero timewidth_seconds")
	}
}

func TestStreamSettingsRejectsExcessiveWidth(t *testing.T) {
	s := StreamSettings{TimewidthSeconds: 1 << 40, ShardsPerBucket: 1}
	if err := s.Validate(); err == nil {
		t.Fatal("expected ConfigError for width exceeding MaxWidth")
	}
}
