// Package state holds the mutable execution state of a running dialogue:
// the call stack and cursor, and the append-only visiting-state store.
package state

import (
	"fmt"

	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

// MaxCallDepth bounds the call stack; exceeding it is a fatal
// ControlFlowError.
const MaxCallDepth = 1024

// UninitializedPosition is the sentinel line_position of a frame that has
// not yet been advanced into.
const UninitializedPosition = -1

// Frame is one call-stack entry: the node currently executing and the
// cursor's position within it.
type Frame struct {
	NodeKey      script.NodeKey
	LinePosition int
}

// CallStack drives execution order. It is mutated only by
// call/return/exit/advance/goto.
type CallStack struct {
	frames []Frame
}

// NewCallStack returns an empty stack.
func NewCallStack() *CallStack {
	return &CallStack{}
}

// Empty reports whether the dialogue has finished normally.
func (s *CallStack) Empty() bool { return len(s.frames) == 0 }

// Depth is the current number of live frames.
func (s *CallStack) Depth() int { return len(s.frames) }

// Top returns the current frame. Panics if the stack is empty; callers
// must check Empty() first, matching the runner's "stack empty means
// terminated" control flow.
func (s *CallStack) Top() Frame { return s.frames[len(s.frames)-1] }

// Call pushes a new frame targeting k, uninitialized. Returns a
// ControlFlowError if doing so would exceed MaxCallDepth.
func (s *CallStack) Call(k script.NodeKey) error {
	if len(s.frames) >= MaxCallDepth {
		return fmt.Errorf("%w: call stack depth exceeds %d", ErrControlFlow, MaxCallDepth)
	}
	s.frames = append(s.frames, Frame{NodeKey: k, LinePosition: UninitializedPosition})
	return nil
}

// Advance increments the top frame's line position by one, initializing
// it to 0 the first time a frame is advanced into.
func (s *CallStack) Advance() {
	top := &s.frames[len(s.frames)-1]
	if top.LinePosition == UninitializedPosition {
		top.LinePosition = 0
		return
	}
	top.LinePosition++
}

// Goto sets the top frame's line position directly.
func (s *CallStack) Goto(pos int) {
	s.frames[len(s.frames)-1].LinePosition = pos
}

// Pop removes the top frame, as issued by return/exit.
func (s *CallStack) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Clear empties the stack entirely, as issued by exit.
func (s *CallStack) Clear() {
	s.frames = s.frames[:0]
}

// IsLastLine reports whether the top frame's cursor sits on the final line
// of its current node.
func (s *CallStack) IsLastLine(nodeLen int) bool {
	top := s.Top()
	return top.LinePosition+1 == nodeLen
}

// ErrControlFlow tags fatal interpreter-level control-flow failures: call
// depth exhaustion, the runaway-dispatch guard, and goto to a
// non-existent line id.
var ErrControlFlow = fmt.Errorf("control flow error")
