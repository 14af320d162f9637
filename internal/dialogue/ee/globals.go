package ee

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// LineSnapshot is the frozen-per-query shape of one entry under the EE's
// `lines` object, assembled fresh on every property access (see
// Globals). Field presence mirrors the per-variant facts listed in
// spec §4.2's line-object table.
type LineSnapshot struct {
	ID           string
	Visited      bool
	VisitedCount int
	Selected     *string
	SelectedAt   *time.Time
	Approved     *bool // Confirm only; Rejected is its negation
	Returned     any
	HasReturned  bool // Call only
}

// Globals is implemented by the runner: it supplies the current cursor
// position and a fresh line-snapshot slice for the current node on every
// call, so `self`/`prev`/`next`/`lines` never return a stale snapshot.
type Globals interface {
	CurrentLinePosition() int
	Lines() []LineSnapshot
}

// InstallGlobals defines `self`, `prev`, `next`, and `lines` as live
// accessor properties on the global object: each access re-invokes g,
// matching boa_ctx.rs's lines_getter/line_getter NativeFunction pair
// rather than caching a snapshot at install time.
func InstallGlobals(rt *goja.Runtime, g Globals) error {
	if err := defineLiveGetter(rt, "lines", func() goja.Value {
		return rt.ToValue(buildLinesObject(rt, g.Lines()))
	}); err != nil {
		return err
	}
	for name, offset := range map[string]int{"self": 0, "prev": -1, "next": 1} {
		offset := offset
		if err := defineLiveGetter(rt, name, func() goja.Value {
			lines := g.Lines()
			idx := g.CurrentLinePosition() + offset
			if idx < 0 || idx >= len(lines) {
				return goja.Undefined()
			}
			return rt.ToValue(buildLineObject(rt, lines[idx]))
		}); err != nil {
			return err
		}
	}
	return nil
}

// defineLiveGetter installs getter as a temporary global function, wires
// it as the accessor for name via Object.defineProperty (goja does not
// expose a typed DefineAccessorProperty helper we can call from native Go
// without going through JS), then removes the temporary binding. The
// closure captured by the property descriptor survives the deletion.
func defineLiveGetter(rt *goja.Runtime, name string, getter func() goja.Value) error {
	tmp := "__ee_getter_" + name
	if err := rt.Set(tmp, getter); err != nil {
		return err
	}
	script := fmt.Sprintf(
		`Object.defineProperty(globalThis, %q, { get: %s, enumerable: true, configurable: false });`,
		name, tmp,
	)
	if _, err := rt.RunString(script); err != nil {
		return fmt.Errorf("install global %q: %w", name, err)
	}
	rt.GlobalObject().Delete(tmp)
	return nil
}

func buildLinesObject(rt *goja.Runtime, lines []LineSnapshot) *goja.Object {
	obj := rt.NewObject()
	for i, snap := range lines {
		lineObj := buildLineObject(rt, snap)
		_ = obj.Set(fmt.Sprintf("%d", i), lineObj)
		_ = obj.Set(snap.ID, lineObj)
	}
	return obj
}

func buildLineObject(rt *goja.Runtime, snap LineSnapshot) *goja.Object {
	obj := rt.NewObject()
	_ = obj.Set("id", snap.ID)
	_ = obj.Set("visited", snap.Visited)
	_ = obj.Set("visited_count", snap.VisitedCount)
	_ = obj.Set("visited_count_next", snap.VisitedCount+1)
	if snap.Selected != nil {
		_ = obj.Set("selected", *snap.Selected)
	}
	if snap.SelectedAt != nil {
		_ = obj.Set("selected_at", snap.SelectedAt.UnixMilli())
	}
	if snap.Approved != nil {
		_ = obj.Set("approved", *snap.Approved)
		_ = obj.Set("rejected", !*snap.Approved)
	}
	// A call that returned no value (bare `return:`, or Value explicitly
	// nil) must read back as `undefined`, not `null` — leaving the
	// property unset is how goja represents that, matching the original's
	// Option<Value>::None.
	if snap.HasReturned && snap.Returned != nil {
		_ = obj.Set("returned", snap.Returned)
	}
	return obj
}
