package libvirt

import (
	"context"
	"testing"
	"time"
)

// TestConnect needs a running libvirt daemon and is skipped otherwise.
func TestConnect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	c, err := Connect("", 0)
	if err != nil {
		t.Skipf("libvirt not available: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if c.Socket() != DefaultSocket {
		t.Errorf("Socket() = %s, want %s", c.Socket(), DefaultSocket)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if c.Libvirt() == nil {
		t.Fatal("Libvirt() returned nil")
	}
}

func TestConnect_InvalidSocket(t *testing.T) {
	_, err := Connect("/nonexistent/socket", 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected error connecting to nonexistent socket, got nil")
	}
}

func TestConnectWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ConnectWithContext(ctx, "", 0); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

func TestClose_NotConnected(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() on unconnected client = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
}

func TestPing_Disconnected(t *testing.T) {
	c := &Client{}
	if err := c.Ping(); err == nil {
		t.Fatal("expected error from Ping on nil client, got nil")
	}
}
