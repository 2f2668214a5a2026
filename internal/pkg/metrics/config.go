package metrics

import (
	"errors"
	"net/url"
	"time"
)

// Ошибки валидации Config.
var (
	ErrPushgatewayURLRequired = errors.New("metrics: не задан адрес Pushgateway")
	ErrPushgatewayURLInvalid  = errors.New("metrics: адрес Pushgateway должен содержать схему и хост")
	ErrJobNameRequired        = errors.New("metrics: не задано имя job")
	ErrInvalidTimeout         = errors.New("metrics: таймаут отправки должен быть положительным")
)

// Config — настройки отправки метрик.
type Config struct {
	// Enabled — включены ли метрики.
	Enabled bool
	// PushgatewayURL — адрес Pushgateway, например "http://pushgateway:9091".
	PushgatewayURL string
	// JobName — имя job в Pushgateway.
	JobName string
	// Timeout — таймаут HTTP запроса к Pushgateway.
	Timeout time.Duration
	// InstanceLabel — значение label instance; пусто — hostname.
	InstanceLabel string
}

// Validate проверяет конфигурацию. Выключенные метрики всегда валидны.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PushgatewayURL == "" {
		return ErrPushgatewayURLRequired
	}
	u, err := url.Parse(c.PushgatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPushgatewayURLInvalid
	}
	if c.JobName == "" {
		return ErrJobNameRequired
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		JobName: "backupchain",
		Timeout: 10 * time.Second,
	}
}

// maskURL оставляет от URL только схему и хост: путь может содержать токены.
func maskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
