package command

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

var (
	// registry хранит обработчики по имени команды.
	registry = make(map[string]Handler)
	mu       sync.RWMutex
	// commandNamePattern — строгий kebab-case: без завершающего и двойного дефиса.
	commandNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
)

// Register добавляет обработчик в реестр.
// Возвращает ошибку для nil обработчика, пустого или не kebab-case имени
// и повторной регистрации.
func Register(h Handler) error {
	if h == nil {
		return errors.New("command: nil handler")
	}
	name := h.Name()
	if name == "" {
		return errors.New("command: empty handler name")
	}
	if !commandNamePattern.MatchString(name) {
		return fmt.Errorf("command: invalid handler name format (must be kebab-case): %s", name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("command: duplicate handler registration for %s", name)
	}
	registry[name] = h
	return nil
}

// Get возвращает обработчик по имени.
func Get(name string) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[name]
	return h, ok
}

// All возвращает копию реестра.
func All() map[string]Handler {
	mu.RLock()
	defer mu.RUnlock()
	result := make(map[string]Handler, len(registry))
	for k, v := range registry {
		result[k] = v
	}
	return result
}

// Names возвращает отсортированный список имён команд.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// clearRegistry очищает реестр. Только для тестов.
func clearRegistry() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Handler)
}
