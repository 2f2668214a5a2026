package logging

// NopLogger — Logger, который ничего не делает. Для тестов.
type NopLogger struct{}

// NewNopLogger создаёт NopLogger.
func NewNopLogger() Logger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ string, _ ...any) {}

func (n *NopLogger) Info(_ string, _ ...any) {}

func (n *NopLogger) Warn(_ string, _ ...any) {}

func (n *NopLogger) Error(_ string, _ ...any) {}

// With возвращает тот же NopLogger: атрибуты всё равно игнорируются.
func (n *NopLogger) With(_ ...any) Logger {
	return n
}
