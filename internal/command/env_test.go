package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/output"
	"github.com/Kargones/backupchain/internal/pkg/testutil"
)

type failingWriter struct{}

func (failingWriter) Write(io.Writer, *output.Result) error { return errors.New("disk full") }

func TestEnv_WriteDefaultsToStdout(t *testing.T) {
	env := &Env{Logger: logging.NewNopLogger(), Writer: output.NewTextWriter()}

	out := testutil.CaptureStdout(t, func() {
		require.NoError(t, env.Write(&output.Result{Status: output.StatusSuccess, Command: "help"}))
	})
	assert.Contains(t, out, "help: success")
}

func TestEnv_WriteError(t *testing.T) {
	env := &Env{Logger: logging.NewNopLogger(), Writer: failingWriter{}, Stdout: io.Discard}

	err := env.Write(&output.Result{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrOutputFormat))
}

func TestEnv_Fail(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "AppError с причиной",
			err:         apperrors.NewAppError(apperrors.ErrHistoryLoad, "не удалось загрузить историю", errors.New("timeout")),
			wantCode:    apperrors.ErrHistoryLoad,
			wantMessage: "не удалось загрузить историю: timeout",
		},
		{
			name:        "AppError без причины",
			err:         apperrors.NewAppError(apperrors.ErrConfigValidate, "нет сервера", nil),
			wantCode:    apperrors.ErrConfigValidate,
			wantMessage: "нет сервера",
		},
		{
			name:        "обычная ошибка",
			err:         errors.New("boom"),
			wantCode:    apperrors.ErrCommandExec,
			wantMessage: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			env := &Env{
				Logger:  logging.NewNopLogger(),
				Writer:  output.NewJSONWriter(),
				TraceID: "0af7651916cd43dd8448eb211c80319c",
				Stdout:  &buf,
			}

			err := env.Fail("nr-restore-plan", time.Now(), tt.err)
			assert.Same(t, tt.err, err)

			var res output.Result
			require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
			assert.Equal(t, output.StatusError, res.Status)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.wantCode, res.Error.Code)
			assert.Equal(t, tt.wantMessage, res.Error.Message)
			require.NotNil(t, res.Metadata)
			assert.Equal(t, "v1", res.Metadata.APIVersion)
			assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", res.Metadata.TraceID)
		})
	}
}

func TestEnv_FailWriteErrorKeepsOriginal(t *testing.T) {
	env := &Env{Logger: logging.NewNopLogger(), Writer: failingWriter{}, Stdout: io.Discard}
	orig := errors.New("boom")
	assert.Same(t, orig, env.Fail("help", time.Now(), orig))
}
