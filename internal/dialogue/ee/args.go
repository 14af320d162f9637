package ee

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// ArgCell is a shared, interior-mutable cell backing one `mut`-declared
// dialogue argument, per spec §9 ("model as explicit shared cells ...
// registered as accessor properties"). The EE's getter/setter pair and
// any host code reading the argument's final value share the same cell.
type ArgCell struct {
	mu    sync.Mutex
	value any
}

// NewArgCell wraps an initial value in a shared cell.
func NewArgCell(v any) *ArgCell {
	return &ArgCell{value: v}
}

func (c *ArgCell) Get() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *ArgCell) Set(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

// InstallArgs installs immutable args as plain data properties and
// mutable args as accessor properties backed by an ArgCell, so `eval: x =
// x + 1` is visible both back to Go (via cell.Get()) and to later
// expressions in the same EE (via the live accessor).
func InstallArgs(rt *goja.Runtime, immutable map[string]any, mutable map[string]*ArgCell) error {
	for name, v := range immutable {
		if err := rt.Set(name, v); err != nil {
			return fmt.Errorf("install arg %q: %w", name, err)
		}
	}
	for name, cell := range mutable {
		if err := installMutableArg(rt, name, cell); err != nil {
			return err
		}
	}
	return nil
}

func installMutableArg(rt *goja.Runtime, name string, cell *ArgCell) error {
	getterName := "__ee_arg_get_" + name
	setterName := "__ee_arg_set_" + name

	if err := rt.Set(getterName, func() goja.Value { return rt.ToValue(cell.Get()) }); err != nil {
		return err
	}
	if err := rt.Set(setterName, func(v goja.Value) { cell.Set(v.Export()) }); err != nil {
		return err
	}

	script := fmt.Sprintf(
		`Object.defineProperty(globalThis, %q, { get: %s, set: %s, enumerable: true, configurable: false });`,
		name, getterName, setterName,
	)
	if _, err := rt.RunString(script); err != nil {
		return fmt.Errorf("install mutable arg %q: %w", name, err)
	}
	rt.GlobalObject().Delete(getterName)
	rt.GlobalObject().Delete(setterName)
	return nil
}
