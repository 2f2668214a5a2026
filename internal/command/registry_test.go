package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{ name string }

func (s *stubHandler) Name() string                        { return s.name }
func (s *stubHandler) Description() string                 { return "stub " + s.name }
func (s *stubHandler) Execute(context.Context, *Env) error { return nil }

func TestRegister(t *testing.T) {
	clearRegistry()
	t.Cleanup(clearRegistry)

	require.NoError(t, Register(&stubHandler{name: "nr-restore-plan"}))
	require.NoError(t, Register(&stubHandler{name: "help"}))

	h, ok := Get("nr-restore-plan")
	require.True(t, ok)
	assert.Equal(t, "stub nr-restore-plan", h.Description())

	_, ok = Get("nr-unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"help", "nr-restore-plan"}, Names())

	all := All()
	delete(all, "help")
	assert.Len(t, All(), 2, "All возвращает копию")
}

func TestRegister_Errors(t *testing.T) {
	clearRegistry()
	t.Cleanup(clearRegistry)

	require.NoError(t, Register(&stubHandler{name: "nr-version"}))

	tests := []struct {
		name    string
		handler Handler
		wantErr string
	}{
		{name: "nil", handler: nil, wantErr: "nil handler"},
		{name: "пустое имя", handler: &stubHandler{}, wantErr: "empty handler name"},
		{name: "верхний регистр", handler: &stubHandler{name: "NR-Version"}, wantErr: "kebab-case"},
		{name: "завершающий дефис", handler: &stubHandler{name: "nr-"}, wantErr: "kebab-case"},
		{name: "двойной дефис", handler: &stubHandler{name: "nr--plan"}, wantErr: "kebab-case"},
		{name: "подчёркивание", handler: &stubHandler{name: "restore_plan"}, wantErr: "kebab-case"},
		{name: "повтор", handler: &stubHandler{name: "nr-version"}, wantErr: "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, Register(tt.handler), tt.wantErr)
		})
	}
}
