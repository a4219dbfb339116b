package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIURL == "" || cfg.WSURL == "" {
		t.Fatal("urls must have defaults")
	}
	if cfg.ReconnectAttempts <= 0 {
		t.Fatalf("bad reconnect attempts default: %d", cfg.ReconnectAttempts)
	}
	if cfg.HandshakeTimeout <= 0 {
		t.Fatalf("bad handshake timeout default: %s", cfg.HandshakeTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_URL", "https://chat.example.com")
	t.Setenv("WS_RECONNECT_ATTEMPTS", "9")
	t.Setenv("WS_RECONNECT_DELAY", "250ms")

	cfg := Load()
	if cfg.APIURL != "https://chat.example.com" {
		t.Fatalf("API_URL not applied: %s", cfg.APIURL)
	}
	if cfg.ReconnectAttempts != 9 {
		t.Fatalf("WS_RECONNECT_ATTEMPTS not applied: %d", cfg.ReconnectAttempts)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("WS_RECONNECT_DELAY not applied: %s", cfg.ReconnectDelay)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("WS_RECONNECT_ATTEMPTS", "many")
	t.Setenv("WS_HANDSHAKE_TIMEOUT", "soon")

	cfg := Load()
	if cfg.ReconnectAttempts != 5 {
		t.Fatalf("expected default attempts, got %d", cfg.ReconnectAttempts)
	}
	if cfg.HandshakeTimeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.HandshakeTimeout)
	}
}
