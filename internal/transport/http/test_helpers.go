package http

import (
	"context"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abbb1399/coding-together-server/internal/auth"
	"github.com/abbb1399/coding-together-server/internal/config"
	"github.com/abbb1399/coding-together-server/internal/core"
	"github.com/abbb1399/coding-together-server/internal/store"
	"github.com/abbb1399/coding-together-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// createTestServer wires a full HTTP server around an in-memory store
// and a running hub.
func createTestServer(t *testing.T) (*stdhttp.Server, *auth.Service, store.Store) {
	t.Helper()

	testStore := createTestStore(t)
	authService := createTestAuthService(t, testStore, "test-secret")

	hub := core.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	disabledLogger := zerolog.Nop()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.JWTSecret = "test-secret"
	cfg.UploadDir = t.TempDir()

	server := NewServer(hub, authService, testStore, &cfg, &disabledLogger)
	return server, authService, testStore
}
