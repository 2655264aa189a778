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
)

// globalZoneID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when a zone VM does not define the hook.
const globalZoneID = "__global__"

// BalanceHook is the Lua global consulted by BalanceFactor. It is called as
// balance_factor(zone_id, level, static) and must return a positive number.
const BalanceHook = "balance_factor"

// vm is one sandboxed LState. An LState is single-threaded, so every
// execution holds mu.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per zone plus an optional global one and
// exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same VM serialize;
// different VMs run concurrently.
type Manager struct {
	mu        sync.RWMutex
	states    map[string]*vm
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager whose loads and hook calls are each bounded to
// instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		states:    make(map[string]*vm),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers the engine.* modules,
// then executes path: a single .lua file, or every *.lua file in a directory
// in lexicographic order.
//
// Precondition: zoneID must be non-empty.
// Postcondition: Zone VM is registered, replacing any previous one; returns
// an error on read or Lua load failure.
func (m *Manager) LoadZone(zoneID, path string) error {
	return m.loadInto(zoneID, path)
}

// LoadGlobal creates the "__global__" VM used as the CallHook fallback for
// every zone without its own VM.
//
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(path string) error {
	return m.loadInto(globalZoneID, path)
}

// LoadTree loads root as the global script set. When root is a directory,
// each immediate subdirectory is loaded as the zone VM named after it.
//
// Postcondition: Returns the first load error encountered.
func (m *Manager) LoadTree(root string) error {
	if err := m.LoadGlobal(root); err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.LoadZone(e.Name(), filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func scriptFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return luaFiles, nil
}

func (m *Manager) loadInto(key, path string) error {
	files, err := scriptFiles(path)
	if err != nil {
		return fmt.Errorf("scripting: reading scripts %q for %q: %w", path, key, err)
	}

	L := NewSandboxedState()
	m.RegisterModules(L, key)
	for _, f := range files {
		if err := Limit(L, m.instLimit, func() error { return L.DoFile(f) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", f, key, err)
		}
	}

	m.mu.Lock()
	old := m.states[key]
	m.states[key] = &vm{L: L}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripts loaded", zap.String("key", key), zap.Int("files", len(files)))
	return nil
}

// CallHook calls the named Lua global function in zoneID's VM. If the zone has
// no VM or its VM does not define hook, the __global__ VM is tried as a
// fallback. Returns LNil if no VM defines the hook. Lua runtime errors,
// including exceeding the instruction limit, are logged at Warn level and
// never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) lua.LValue {
	m.mu.RLock()
	candidates := make([]*vm, 0, 2)
	if v, ok := m.states[zoneID]; ok {
		candidates = append(candidates, v)
	}
	if v, ok := m.states[globalZoneID]; ok && zoneID != globalZoneID {
		candidates = append(candidates, v)
	}
	m.mu.RUnlock()

	for _, v := range candidates {
		if ret, found := m.call(v, zoneID, hook, args); found {
			return ret
		}
	}
	return lua.LNil
}

// call runs hook in v. found is false when v does not define hook.
func (m *Manager) call(v *vm, zoneID, hook string, args []lua.LValue) (ret lua.LValue, found bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn := L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, false
	}

	err := Limit(L, m.instLimit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, true
	}

	ret = L.Get(-1)
	L.Pop(1)
	return ret, true
}

// BalanceFactor returns the balance factor for zoneID at level as computed by
// the balance_factor hook, or static when no hook is defined or the hook does
// not return a positive finite number.
//
// Postcondition: Returns a positive finite value whenever static is one.
func (m *Manager) BalanceFactor(zoneID string, level int, static float64) float64 {
	ret := m.CallHook(zoneID, BalanceHook, lua.LString(zoneID), lua.LNumber(level), lua.LNumber(static))
	n, ok := ret.(lua.LNumber)
	if !ok {
		if ret != lua.LNil {
			m.logger.Warn("scripting: balance hook returned a non-number",
				zap.String("zone", zoneID),
				zap.String("type", ret.Type().String()),
			)
		}
		return static
	}
	f := float64(n)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		m.logger.Warn("scripting: balance hook returned an invalid factor",
			zap.String("zone", zoneID),
			zap.Float64("factor", f),
		)
		return static
	}
	return f
}

// Close releases every VM.
//
// Postcondition: The Manager holds no VMs; later calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	states := m.states
	m.states = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range states {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
