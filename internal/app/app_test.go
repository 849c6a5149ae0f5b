package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/infrastructure"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.ShutdownTimeout = 5 * time.Second

	a, err := New(cfg, infrastructure.DiscardLogger())
	require.NoError(t, err)
	return a
}

func TestNew_SeedsRegistry(t *testing.T) {
	a := newTestApp(t)

	alerters, err := a.Registry.Alerters()
	require.NoError(t, err)
	assert.Contains(t, alerters, "mufasa")
	assert.FileExists(t, a.Paths.ChannelsFile)
	assert.NotNil(t, a.OTelProviders.PrometheusHTTP)
}

func TestLoader_RequiresWarehouseConfig(t *testing.T) {
	a := newTestApp(t)

	_, err := a.Loader(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
	assert.Nil(t, a.Pool)
}

func TestServe_HandlesRequestsUntilCancelled(t *testing.T) {
	a := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "not configured", health["warehouse"])

	resp, err = http.Post(base+"/api/concord", "application/json",
		strings.NewReader(`{"table": {"columns": ["a", "b"], "rows": [[1, 2], [3, 2]]}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "concord_resolutions_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
