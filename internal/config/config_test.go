package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 9090},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Chunking: ChunkingConfig{Size: 1000, Overlap: 150},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_OverlapNotSmallerThanSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.Size = 100
	cfg.Chunking.Overlap = 100

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for overlap >= size")
	}

	expected := "chunking.overlap (100) must be smaller than chunking.size (100)"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Agent.TimeoutSec != 360 {
		t.Errorf("expected TimeoutSec=360, got %d", cfg.Agent.TimeoutSec)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("expected MaxIterations=10, got %d", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.MaxHistoryTurns != 5 {
		t.Errorf("expected MaxHistoryTurns=5, got %d", cfg.Agent.MaxHistoryTurns)
	}
	if cfg.Chunking.Size != 1000 {
		t.Errorf("expected Size=1000, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 150 {
		t.Errorf("expected Overlap=150, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Storage.Root != "data/documents" {
		t.Errorf("expected default storage root, got %q", cfg.Storage.Root)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Agent:    AgentConfig{TimeoutSec: 60, MaxIterations: 3},
		Chunking: ChunkingConfig{Size: 500, Overlap: 50},
	}
	cfg.ApplyDefaults()

	if cfg.Agent.TimeoutSec != 60 || cfg.Agent.MaxIterations != 3 {
		t.Errorf("agent config overwritten: %+v", cfg.Agent)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("chunking config overwritten: %+v", cfg.Chunking)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FIELDOPS_TEST_ADDR", "redis:6380")

	in := []byte("addr: ${FIELDOPS_TEST_ADDR}\nroot: ${FIELDOPS_TEST_UNSET:-/var/data}\nkey: ${FIELDOPS_TEST_UNSET}\n")
	got := string(expandEnvVars(in))

	want := "addr: redis:6380\nroot: /var/data\nkey: \n"
	if got != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("expected default env local, got %q", env)
	}

	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("expected prod, got %q", env)
	}
}
