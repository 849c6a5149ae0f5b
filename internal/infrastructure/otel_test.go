package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbsu/internal/config"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "none",
		MetricExporter: "none",
	}, DiscardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordConcord(context.Background(), 10, 2, time.Millisecond, nil)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_PrometheusExposesBusinessMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, DiscardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordConcord(ctx, 8, 3, 5*time.Millisecond, nil)
	metrics.RecordConcord(ctx, 0, 0, time.Millisecond, errors.New("bad input"))
	metrics.RecordAlert(ctx, nil)
	metrics.RecordRowsLoaded(ctx, "public.events", 42)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "concord_resolutions_total")
	assert.Contains(t, string(body), "alerts_sent_total")
	assert.Contains(t, string(body), "warehouse_rows_loaded_total")
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "zipkin"}, DiscardLogger())
	assert.Error(t, err)
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var metrics *BusinessMetrics
	assert.NotPanics(t, func() {
		metrics.RecordConcord(context.Background(), 1, 1, time.Second, nil)
		metrics.RecordAlert(context.Background(), nil)
		metrics.RecordRowsLoaded(context.Background(), "t", 1)
	})
}
