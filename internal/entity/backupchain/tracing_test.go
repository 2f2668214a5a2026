package backupchain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

func TestResolve_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	records := append(fullAndLogs("db1"), logRec("db2", "db2-log", t1, 10, 20, 5))
	_, err := NewSelector(logging.NewNopLogger()).Resolve(context.Background(), records,
		Options{RestoreTime: t2.Add(time.Second)})
	require.NoError(t, err)

	byName := make(map[string][]sdktrace.ReadOnlySpan)
	for _, s := range recorder.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	require.Len(t, byName["backupchain.Resolve"], 1)
	require.Len(t, byName["backupchain.resolveDatabase"], 2)

	root := byName["backupchain.Resolve"][0]
	for _, s := range byName["backupchain.resolveDatabase"] {
		assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID())
		var db string
		for _, kv := range s.Attributes() {
			if kv.Key == "backupchain.database" {
				db = kv.Value.AsString()
			}
		}
		if db == "db2" {
			assert.Equal(t, codes.Error, s.Status().Code)
			assert.Equal(t, ErrNoFullBackup, s.Status().Description)
		} else {
			assert.Equal(t, "db1", db)
			assert.NotEqual(t, codes.Error, s.Status().Code)
		}
	}
}
