// Package valkeytest runs a throwaway ValKey container for store tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/valkey-io/valkey-go"

	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
	slogctx "github.com/veqryn/slog-context"
)

const image = "valkey/valkey:8-alpine"

// Start launches a ValKey container and returns a connected client and the mapped port.
// The client and the container are released when the test finishes.
func Start(t testing.TB) (valkey.Client, nat.Port) {
	t.Helper()
	ctx := t.Context()

	container, err := valkeycontainer.Run(ctx, image)
	if err != nil {
		t.Fatalf("starting ValKey container: %v", err)
	}
	t.Cleanup(func() {
		// t.Context is already cancelled once cleanup runs.
		cleanupCtx := context.Background()
		if err := container.Terminate(cleanupCtx); err != nil {
			slogctx.Error(cleanupCtx, "Failed to terminate ValKey container", "error", err)
		}
	})

	port, err := container.MappedPort(ctx, nat.Port("6379"))
	if err != nil {
		t.Fatalf("mapping ValKey port: %v", err)
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort("localhost", port.Port())},
	})
	if err != nil {
		t.Fatalf("creating ValKey client: %v", err)
	}
	t.Cleanup(client.Close)

	return client, port
}
