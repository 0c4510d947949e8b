package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
)

// ErrNoHook is returned by RunHook when the hook is not defined.
var ErrNoHook = errors.New("script hook not defined")

// Manager owns one sandboxed LState holding every content script.
//
// The engine is single-threaded; the mutex only guards Load racing a hook
// call from tooling.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    func()
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// call is the hook invocation in progress; engine.* functions act on it.
	call *action.HookCall
}

// NewManager creates a Manager with an empty VM.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: the engine global is registered.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil || logger == nil {
		panic("scripting.NewManager: roller and logger must not be nil")
	}
	L, cancel := NewSandboxedState(instLimit)
	m := &Manager{L: L, cancel: cancel, instLimit: instLimit, roller: roller, logger: logger}
	m.RegisterModules(L)
	return m
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.L.Close()
}

// Load executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
func (m *Manager) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range files {
		m.rebudget()
		if err := m.L.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	return nil
}

// LoadString executes src under name.
func (m *Manager) LoadString(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebudget()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

func (m *Manager) rebudget() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = Budget(m.L, m.instLimit)
}

// HasHook reports whether a global function named hook exists.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the global function hook. It returns (LNil, nil) when the
// hook is not defined. Lua runtime errors, including an exhausted
// instruction budget, are logged at Warn level and never propagated.
//
// Postcondition: returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callLocked(hook, args...)
}

func (m *Manager) callLocked(hook string, args ...lua.LValue) (lua.LValue, error) {
	fn, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil, nil
	}
	m.rebudget()
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// RunHook invokes hook with the acting and target actors as tables
// {id, name, hp, max_hp, x, y} and the item as {id, template, name}. While
// it runs, the engine.* functions act on call.
func (m *Manager) RunHook(hook string, call action.HookCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.L.GetGlobal(hook).(*lua.LFunction); !ok {
		return fmt.Errorf("%q: %w", hook, ErrNoHook)
	}
	m.call = &call
	defer func() { m.call = nil }()

	_, err := m.callLocked(hook,
		m.actorTable(call.Actor),
		m.actorTable(call.Target),
		m.itemTable(call),
	)
	return err
}
