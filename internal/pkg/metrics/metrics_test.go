package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

func testConfig(url string) Config {
	return Config{
		Enabled:        true,
		PushgatewayURL: url,
		JobName:        "backupchain",
		Timeout:        5 * time.Second,
		InstanceLabel:  "ci-runner",
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestPrometheusCollector_RecordPlans(t *testing.T) {
	c, err := NewPrometheusCollector(testConfig("http://localhost:9091"), logging.NewNopLogger())
	require.NoError(t, err)

	c.RecordCommandStart("nr-restore-plan")
	c.RecordPlan("Sales", 4, false)
	c.RecordPlan("Sales", 3, false)
	c.RecordPlan("HR", 2, true)
	c.RecordPlanFailure("Archive", "CHAIN.NO_FULL_BACKUP")
	c.RecordCommandEnd("nr-restore-plan", 1500*time.Millisecond, false)

	assert.Equal(t, 2.0, counterValue(t, c.plansTotal.WithLabelValues("Sales", "false")))
	assert.Equal(t, 1.0, counterValue(t, c.plansTotal.WithLabelValues("HR", "true")))
	assert.Equal(t, 1.0, counterValue(t, c.planFailures.WithLabelValues("Archive", "CHAIN.NO_FULL_BACKUP")))
	assert.Equal(t, 1.0, counterValue(t, c.commandTotal.WithLabelValues("nr-restore-plan", "error")))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"backupchain_command_duration_seconds",
		"backupchain_command_total",
		"backupchain_plans_total",
		"backupchain_plan_failures_total",
		"backupchain_plan_records",
	} {
		assert.True(t, names[want], "нет метрики %s", want)
	}
}

func TestPrometheusCollector_Push(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewPrometheusCollector(testConfig(server.URL), logging.NewNopLogger())
	require.NoError(t, err)
	c.RecordPlan("Sales", 1, false)

	require.NoError(t, c.Push(context.Background()))
	assert.Equal(t, http.MethodPut, method)
	assert.Contains(t, path, "/metrics/job/backupchain")
}

func TestPrometheusCollector_PushErrorIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := NewPrometheusCollector(testConfig(server.URL), logging.NewNopLogger())
	require.NoError(t, err)
	assert.NoError(t, c.Push(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Push(ctx))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "выключены", cfg: Config{}},
		{name: "корректная", cfg: testConfig("http://pushgateway:9091")},
		{name: "нет URL", cfg: Config{Enabled: true, JobName: "j", Timeout: time.Second}, wantErr: ErrPushgatewayURLRequired},
		{name: "битый URL", cfg: Config{Enabled: true, PushgatewayURL: "pushgateway", JobName: "j", Timeout: time.Second}, wantErr: ErrPushgatewayURLInvalid},
		{name: "нет job", cfg: Config{Enabled: true, PushgatewayURL: "http://p:9091", Timeout: time.Second}, wantErr: ErrJobNameRequired},
		{name: "нулевой таймаут", cfg: Config{Enabled: true, PushgatewayURL: "http://p:9091", JobName: "j"}, wantErr: ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNewCollector(t *testing.T) {
	c, err := NewCollector(Config{}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &NopCollector{}, c)
	assert.NoError(t, c.Push(context.Background()))

	c, err = NewCollector(testConfig("http://pushgateway:9091"), logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &PrometheusCollector{}, c)

	_, err = NewCollector(Config{Enabled: true}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrPushgatewayURLRequired)
	assert.EqualError(t, err, "metrics: не задан адрес Pushgateway")
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "a_b", sanitizeLabel("a\nb"))
	assert.Equal(t, 128, len([]rune(sanitizeLabel(strings.Repeat("я", 200)))))
	assert.Equal(t, "https://hooks.local/***", maskURL("https://hooks.local/secret/token"))
	assert.Equal(t, "***invalid-url***", maskURL("nope"))
}
