package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Providers.Helius.MaxPages != 50 || c.Providers.Cielo.MaxPages != 20 {
		t.Fatalf("unexpected page bounds: helius=%d cielo=%d", c.Providers.Helius.MaxPages, c.Providers.Cielo.MaxPages)
	}
	if c.Providers.Helius.PageDelay != 500*time.Millisecond {
		t.Fatalf("unexpected helius page delay %v", c.Providers.Helius.PageDelay)
	}
	if c.Providers.RetryDelay != 2*time.Second {
		t.Fatalf("unexpected retry delay %v", c.Providers.RetryDelay)
	}
	if c.Metadata.BatchSize != 50 {
		t.Fatalf("unexpected metadata batch %d", c.Metadata.BatchSize)
	}
}

func TestLoadRequiresEnvironment(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 9000\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateQueueNeedsRedis(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\nqueue:\n  enabled: true\n"))
	if err == nil {
		t.Fatalf("expected queue without redis to fail")
	}
}

func TestLoadWithEnvOverridesKeys(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "h-key")
	t.Setenv("COVALENT_API_KEY", "c-key")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Providers.Helius.APIKey != "h-key" || c.Providers.Covalent.APIKey != "c-key" {
		t.Fatalf("env keys not applied: %+v", c.Providers)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", c.Kafka.Brokers)
	}
}
