package output

// SummaryInfo содержит сводку результатов выполнения команды.
type SummaryInfo struct {
	// KeyMetrics — ключевые метрики операции.
	KeyMetrics []KeyMetric `json:"key_metrics,omitempty"`

	WarningsCount int      `json:"warnings_count"`
	Warnings      []string `json:"warnings,omitempty"`
}

// KeyMetric представляет одну ключевую метрику.
type KeyMetric struct {
	// Name — название метрики (например, "Планов построено").
	Name string `json:"name"`

	// Value — значение в виде строки: "15", "3.5", "2 из 10".
	Value string `json:"value"`

	// Unit — единица измерения, может быть пустой.
	Unit string `json:"unit,omitempty"`
}

// NewSummaryInfo создаёт пустой SummaryInfo.
func NewSummaryInfo() *SummaryInfo {
	return &SummaryInfo{
		KeyMetrics: make([]KeyMetric, 0),
		Warnings:   make([]string, 0),
	}
}

// AddMetric добавляет метрику в summary.
func (s *SummaryInfo) AddMetric(name, value, unit string) {
	s.KeyMetrics = append(s.KeyMetrics, KeyMetric{
		Name:  name,
		Value: value,
		Unit:  unit,
	})
}

// AddWarning добавляет предупреждение и увеличивает счётчик.
func (s *SummaryInfo) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
	s.WarningsCount++
}
