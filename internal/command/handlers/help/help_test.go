package help

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

func TestHandler_Execute(t *testing.T) {
	// реестр глобальный: в пакете регистрируется один раз
	require.NoError(t, RegisterCmd())

	var buf bytes.Buffer
	env := &command.Env{Logger: logging.NewNopLogger(), Writer: output.NewTextWriter(), Stdout: &buf}
	require.NoError(t, (&Handler{}).Execute(context.Background(), env))
	assert.Contains(t, buf.String(), "Доступные команды")
	assert.Contains(t, buf.String(), "help ")
	assert.Contains(t, buf.String(), "Вывод списка доступных команд")

	buf.Reset()
	env.Writer = output.NewJSONWriter()
	require.NoError(t, (&Handler{}).Execute(context.Background(), env))
	var res struct {
		Data Data `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	require.Len(t, res.Data.Commands, 1)
	assert.Equal(t, "help", res.Data.Commands[0].Name)
}
