package di

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/backupchain/internal/config"
	"github.com/Kargones/backupchain/internal/entity/history"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

func TestInitializeApp(t *testing.T) {
	cfg := &config.Config{
		Command:      "nr-version",
		OutputFormat: output.FormatJSON,
		Logging:      config.LoggingConfig{Level: "debug", Format: "text"},
		Plan:         config.PlanConfig{HistorySource: config.HistorySourceMSSQL},
	}

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Same(t, cfg, app.Config)
	assert.NotNil(t, app.Logger)
	assert.IsType(t, &output.JSONWriter{}, app.OutputWriter)
	assert.Len(t, app.TraceID, 32)
	assert.NotNil(t, app.MetricsCollector)
	assert.NotNil(t, app.Selector)
	require.NotNil(t, app.TracerShutdown)
	assert.NoError(t, app.TracerShutdown(context.Background()))

	// MSSQL не настроен: приложение собирается, история недоступна
	_, err = app.History.Load(context.Background(), history.Query{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConfigValidate))
}

func TestApp_Env(t *testing.T) {
	app, err := InitializeApp(&config.Config{Command: "help"})
	require.NoError(t, err)

	var buf bytes.Buffer
	env := app.Env(&buf)

	assert.Same(t, app.Config, env.Config)
	assert.Equal(t, app.TraceID, env.TraceID)
	assert.Same(t, app.Selector, env.Selector)
	assert.Equal(t, app.MetricsCollector, env.Metrics)
	assert.Equal(t, app.History, env.History)
	assert.NotNil(t, env.Logger)

	require.NoError(t, env.Write(&output.Result{Status: output.StatusSuccess, Command: "help"}))
	assert.Contains(t, buf.String(), "help: success")
}
