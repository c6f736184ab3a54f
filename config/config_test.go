package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.GatewayID == "" || c.HTTPAddr == "" {
		t.Fatalf("config = %+v", c)
	}
	if c.Broker != "redis" {
		t.Fatalf("default broker = %q", c.Broker)
	}
	if c.AuthFailMode != AuthFailInternal {
		t.Fatalf("default auth fail mode = %q", c.AuthFailMode)
	}
	if c.PresenceTTL != 5*time.Minute {
		t.Fatalf("presence ttl = %v", c.PresenceTTL)
	}
}

func TestLoadRejectsBadEnums(t *testing.T) {
	t.Setenv("BROKER", "kafka")
	if _, err := Load(); err == nil {
		t.Fatalf("unsupported broker must be rejected")
	}
	t.Setenv("BROKER", "nats")
	t.Setenv("AUTH_FAIL_MODE", "open")
	if _, err := Load(); err == nil {
		t.Fatalf("unsupported auth fail mode must be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NATS_SERVERS", "nats://a:4222, nats://b:4222 ,")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("NODE_ID", "7")
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.NatsServers) != 2 || c.NatsServers[0] != "nats://a:4222" || c.NatsServers[1] != "nats://b:4222" {
		t.Fatalf("nats servers = %v", c.NatsServers)
	}
	if c.JWTTTL != 30*time.Minute {
		t.Fatalf("jwt ttl = %v", c.JWTTTL)
	}
	if c.NodeID != 7 {
		t.Fatalf("node id = %d", c.NodeID)
	}
}
