package runner

import "github.com/dialogrun/diavolo/internal/dialogue/script"

// ActionKind discriminates the five operator actions of spec.md §6.
type ActionKind int

const (
	ActionAdvance ActionKind = iota
	ActionToggleFastForward
	ActionSkip
	ActionConfirm
	ActionSelect
)

// Action is one operator-dispatched command. Only ConfirmValue/SelectKey
// are meaningful, and only for the matching Kind.
type Action struct {
	Kind         ActionKind
	ConfirmValue bool
	SelectKey    script.ChoiceKey
}

// Advance requests that the runner move past the current, resolved
// yielding line (a finished Message or a selected Choice).
func Advance() Action { return Action{Kind: ActionAdvance} }

// ToggleFastForward engages or disengages the typing accelerator.
func ToggleFastForward() Action { return Action{Kind: ActionToggleFastForward} }

// Skip forces the current message to its Completed lifecycle state
// immediately.
func Skip() Action { return Action{Kind: ActionSkip} }

// ConfirmWith answers a pending Confirm and advances past it.
func ConfirmWith(v bool) Action { return Action{Kind: ActionConfirm, ConfirmValue: v} }

// Select records a Choice's key. A separate Advance is still required to
// move execution past the choice line.
func Select(key script.ChoiceKey) Action { return Action{Kind: ActionSelect, SelectKey: key} }
