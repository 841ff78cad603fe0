package module

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// Manager creates the modules and keeps them by name.
type Manager struct {
	logger *log.Logger

	mu          sync.RWMutex
	initialized bool
	modules     map[string]Module
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{logger: logger, modules: map[string]Module{}}
}

// Initialize builds every module in name order and registers its routes on
// env.Router. It only runs once. A module that fails to build or register is
// logged and left out.
//
// Modules built earlier in the order are available through Get while later
// constructors run.
func (m *Manager) Initialize(env *Env, constructors map[string]Constructor) {
	if len(constructors) == 0 {
		m.logger.Error("No modules to initialise")
		return
	}

	m.mu.Lock()
	already := m.initialized
	m.initialized = true
	m.mu.Unlock()
	if already {
		m.logger.Warn("Modules are already initialised")
		return
	}

	names := lo.Keys(constructors)
	sort.Strings(names)

	for _, name := range names {
		mod, err := constructors[name](env)
		if err != nil {
			m.logger.Error("Unable to create module", "module", name, "err", err)
			continue
		}
		if err := Register(env.Router, mod.Routes()); err != nil {
			m.logger.Error("Unable to register module routes", "module", name, "err", err)
			continue
		}
		m.mu.Lock()
		m.modules[name] = mod
		m.mu.Unlock()
		m.logger.Info("Loaded module", "module", name, "routes", len(mod.Routes()))
	}
}

// Get returns the module registered under name.
func (m *Manager) Get(name string) (Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[name]
	return mod, ok
}

// Names lists the loaded modules, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := lo.Keys(m.modules)
	sort.Strings(names)
	return names
}
