package version

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

func TestBuildData_Fallbacks(t *testing.T) {
	d := buildData("", "")
	assert.Equal(t, "dev", d.Version)
	assert.Equal(t, "unknown", d.Commit)
	assert.Equal(t, runtime.Version(), d.GoVersion)

	d = buildData("1.2.0", "abc123")
	assert.Equal(t, "1.2.0", d.Version)
	assert.Equal(t, "abc123", d.Commit)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: output.FormatText,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "nr-version: success")
				assert.Contains(t, out, "backupchain version dev")
			},
		},
		{
			format: output.FormatJSON,
			check: func(t *testing.T, out string) {
				var res struct {
					Status string `json:"status"`
					Data   Data   `json:"data"`
					Meta   struct {
						TraceID string `json:"trace_id"`
					} `json:"metadata"`
				}
				require.NoError(t, json.Unmarshal([]byte(out), &res))
				assert.Equal(t, output.StatusSuccess, res.Status)
				assert.Equal(t, "dev", res.Data.Version)
				assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", res.Meta.TraceID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			env := &command.Env{
				Logger:  logging.NewNopLogger(),
				Writer:  output.NewWriter(tt.format),
				TraceID: "0af7651916cd43dd8448eb211c80319c",
				Stdout:  &buf,
			}
			h := &Handler{}
			require.NoError(t, h.Execute(context.Background(), env))
			assert.Equal(t, "nr-version", h.Name())
			assert.NotEmpty(t, h.Description())
			tt.check(t, buf.String())
		})
	}
}
