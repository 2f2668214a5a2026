// Package testutil содержит общие утилиты для тестирования.
package testutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CaptureStdout выполняет fn, перехватывая os.Stdout, и возвращает вывод.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stdout, fn)
}

// CaptureStderr выполняет fn, перехватывая os.Stderr, и возвращает вывод.
// Логгер, созданный до вызова, продолжит писать в исходный stderr.
func CaptureStderr(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stderr, fn)
}

func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err, "не удалось создать pipe")

	orig := *target
	*target = w
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	func() {
		defer func() { *target = orig }()
		fn()
	}()

	require.NoError(t, w.Close())
	out := <-done
	require.NoError(t, r.Close())
	return string(out)
}
