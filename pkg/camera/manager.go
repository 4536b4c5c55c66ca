package camera

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidConfig wraps validation failures from Manager.Set.
var ErrInvalidConfig = errors.New("invalid camera config")

// Listener is told about every accepted config. An error from any listener
// rolls the change back.
type Listener func(Config) error

// Manager owns the live camera configuration edited from the dashboard.
type Manager struct {
	mu        sync.RWMutex
	cfg       Config
	listeners []Listener
}

// NewManager starts from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// OnChange registers l.
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Config returns the current configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Set validates cfg, stores it and notifies listeners.
func (m *Manager) Set(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	m.mu.Lock()
	prev := m.cfg
	m.cfg = cfg
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		if err := l(cfg); err != nil {
			m.mu.Lock()
			m.cfg = prev
			m.mu.Unlock()
			return fmt.Errorf("apply camera config: %w", err)
		}
	}
	return nil
}

// ApplyPreset switches to a named preset on the current device.
func (m *Manager) ApplyPreset(name string) error {
	preset := GetPreset(name)
	if preset == nil {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
	preset.Index = m.Config().Index
	return m.Set(*preset)
}
