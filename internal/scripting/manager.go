package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

// HookOnDamage is called as on_damage(target, amount, damage_type) before
// damage is applied. A numeric return replaces the amount.
const HookOnDamage = "on_damage"

// Manager owns the sandboxed VM holding the loaded house rules.
//
// Manager is safe for concurrent use; hook calls are serialized because an
// LState is single-threaded.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger
}

// NewManager creates a Manager with no rules loaded.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: every hook call is a no-op until LoadRules succeeds.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	return &Manager{roller: roller, logger: logger, instLimit: instLimit}
}

// LoadRules creates a fresh VM, registers the engine.* modules, and executes
// every *.lua file in dir in lexicographic order. On success the new VM
// replaces any previously loaded one; on failure the previous VM is kept.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadRules(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading rules dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	L, cancel := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)
	for _, path := range files {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	cancel()

	m.mu.Lock()
	old := m.state
	m.state = L
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("house rules loaded", zap.String("dir", dir), zap.Int("files", len(files)))
	return nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no
// rules are loaded or the hook is not defined. Lua runtime errors, including
// an exhausted instruction budget, are logged at Warn level and never
// propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	L := m.state
	if L == nil {
		m.logger.Info("scripting: no rules loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := withBudget(L, m.instLimit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// AdjustDamage passes a pending hit through on_damage. A missing hook, a
// failing hook, or a non-numeric result leaves amount unchanged. The result
// is never negative.
func (m *Manager) AdjustDamage(target string, amount int, damageType string) int {
	ret, _ := m.CallHook(HookOnDamage, lua.LString(target), lua.LNumber(amount), lua.LString(damageType))
	n, ok := ret.(lua.LNumber)
	if !ok {
		return amount
	}
	adjusted := int(math.Round(float64(n)))
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted != amount {
		m.logger.Debug("house rule adjusted damage",
			zap.String("target", target),
			zap.String("type", damageType),
			zap.Int("from", amount),
			zap.Int("to", adjusted),
		)
	}
	return adjusted
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
