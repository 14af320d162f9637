// Package ee wraps a goja VM as the dialogue runtime's embedded
// expression evaluator: a stateful, JavaScript-like black box that
// evaluates boolean guards, template-literal strings, and free-form
// expressions, grounded on crates/diavolo/src/boa_ctx.rs (this spec's
// original Rust evaluator, built on boa_engine rather than goja).
package ee

import (
	"fmt"

	"github.com/dop251/goja"
)

// EE is the opaque, stateful expression evaluator described in spec §4.2.
type EE struct {
	rt *goja.Runtime
}

// New returns an EE with a fresh, otherwise-empty JS global scope.
func New() *EE {
	return &EE{rt: goja.New()}
}

// Runtime exposes the underlying goja.Runtime for InstallGlobals/InstallArgs.
func (e *EE) Runtime() *goja.Runtime { return e.rt }

// EvalBool evaluates src and requires a boolean result, for `if` guards.
func (e *EE) EvalBool(src string) (bool, error) {
	v, err := e.rt.RunString(src)
	if err != nil {
		return false, fmt.Errorf("eval_bool %q: %w", src, err)
	}
	b, ok := v.Export().(bool)
	if !ok {
		return false, fmt.Errorf("eval_bool %q: expected a boolean, got %s", src, v.ExportType())
	}
	return b, nil
}

// EvalTemplate evaluates src as if it were the body of a backtick-quoted
// template literal: `${…}` substitutions run, the result must be a
// string. Used for message texts, goto targets, and call targets.
func (e *EE) EvalTemplate(src string) (string, error) {
	v, err := e.rt.RunString("`" + src + "`")
	if err != nil {
		return "", fmt.Errorf("eval_template %q: %w", src, err)
	}
	return v.String(), nil
}

// EvalExpr evaluates src as a free-form expression, for `eval`, `return`,
// and string-form `exit` codes. The returned value is Export()ed to a
// plain Go value (nil for undefined/null, float64/int64/string/bool/map/
// slice otherwise).
func (e *EE) EvalExpr(src string) (any, error) {
	v, err := e.rt.RunString(src)
	if err != nil {
		return nil, fmt.Errorf("eval_expr %q: %w", src, err)
	}
	return v.Export(), nil
}

// CoerceU8 narrows an already-evaluated value to a u8, for `exit` code
// coercion.
func CoerceU8(v any) (uint8, error) {
	var n int64
	switch val := v.(type) {
	case int64:
		n = val
	case float64:
		n = int64(val)
	case bool:
		if val {
			n = 1
		}
	default:
		return 0, fmt.Errorf("cannot coerce %T to u8", v)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("value %d out of u8 range", n)
	}
	return uint8(n), nil
}
