package state

import (
	"fmt"
	"time"

	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

// MessageState is one visit record for a Message line (and the prompt of
// a Confirm, and the optional inner message of a Choice).
type MessageState struct {
	VisitedAt          time.Time
	Texts              script.Texts // template-evaluated, ready to render
	CompletedAt        *time.Time
	SkippedAt          *time.Time
	TotalFastForward   time.Duration
	InitialFastForward bool
}

// Done reports whether this message has reached its Completed lifecycle
// state (by completion or by an operator Skip).
func (m MessageState) Done() bool {
	return m.CompletedAt != nil || m.SkippedAt != nil
}

// CompletedOrSkippedAt returns whichever terminal timestamp is set.
func (m MessageState) CompletedOrSkippedAt() (time.Time, bool) {
	if m.CompletedAt != nil {
		return *m.CompletedAt, true
	}
	if m.SkippedAt != nil {
		return *m.SkippedAt, true
	}
	return time.Time{}, false
}

// ConfirmState is one visit record for a Confirm line.
type ConfirmState struct {
	Message     MessageState
	ResponseYes *script.Texts
	ResponseNo  *script.Texts
	Confirmed   *bool
}

// Selection records the operator's choice of a ChoiceKey.
type Selection struct {
	Key        script.ChoiceKey
	SelectedAt time.Time
}

// ChoiceState is one visit record for a Choice line.
type ChoiceState struct {
	VisitedAt   time.Time
	ChoiceTexts script.ChoiceTexts // template-evaluated
	Message     *MessageState
	Selected    *Selection
}

// EvalState is one visit record for an Eval line: the value the
// expression evaluated to.
type EvalState struct {
	Value any
}

// GotoState is one visit record for a Goto line: the resolved (post
// template-evaluation) target string, before integer-vs-id resolution.
type GotoState struct {
	Target string
}

// CallReturn records a callee's Return value, attached to the caller's
// CallState once the callee returns.
type CallReturn struct {
	Value      any
	ReturnedAt time.Time
}

// CallState is one visit record for a Call line.
type CallState struct {
	Target   script.NodeKey
	Returned *CallReturn
}

// ReturnState is one visit record for a Return line.
type ReturnState struct {
	Value any
}

// VisitingCounting is the tagged union of per-line-kind visit logs. Its
// concrete type always matches the Line's body variant; the cursor
// uniquely determines which one a caller should expect, so a type
// mismatch on access is a logic error, not a runtime-recoverable one.
type VisitingCounting interface {
	// Count returns the number of visits recorded so far.
	Count() int
	isVisitingCounting()
}

type MessageVisits struct{ Visits []MessageState }

func (v *MessageVisits) Count() int          { return len(v.Visits) }
func (v *MessageVisits) isVisitingCounting() {}
func (v *MessageVisits) Last() *MessageState {
	if len(v.Visits) == 0 {
		return nil
	}
	return &v.Visits[len(v.Visits)-1]
}
func (v *MessageVisits) Append(s MessageState) *MessageState {
	v.Visits = append(v.Visits, s)
	return v.Last()
}

type ConfirmVisits struct{ Visits []ConfirmState }

func (v *ConfirmVisits) Count() int          { return len(v.Visits) }
func (v *ConfirmVisits) isVisitingCounting() {}
func (v *ConfirmVisits) Last() *ConfirmState {
	if len(v.Visits) == 0 {
		return nil
	}
	return &v.Visits[len(v.Visits)-1]
}
func (v *ConfirmVisits) Append(s ConfirmState) *ConfirmState {
	v.Visits = append(v.Visits, s)
	return v.Last()
}

type ChoiceVisits struct{ Visits []ChoiceState }

func (v *ChoiceVisits) Count() int          { return len(v.Visits) }
func (v *ChoiceVisits) isVisitingCounting() {}
func (v *ChoiceVisits) Last() *ChoiceState {
	if len(v.Visits) == 0 {
		return nil
	}
	return &v.Visits[len(v.Visits)-1]
}
func (v *ChoiceVisits) Append(s ChoiceState) *ChoiceState {
	v.Visits = append(v.Visits, s)
	return v.Last()
}

type EvalVisits struct{ Visits []EvalState }

func (v *EvalVisits) Count() int          { return len(v.Visits) }
func (v *EvalVisits) isVisitingCounting() {}
func (v *EvalVisits) Append(s EvalState)  { v.Visits = append(v.Visits, s) }

type GotoVisits struct{ Visits []GotoState }

func (v *GotoVisits) Count() int          { return len(v.Visits) }
func (v *GotoVisits) isVisitingCounting() {}
func (v *GotoVisits) Append(s GotoState)  { v.Visits = append(v.Visits, s) }

type CallVisits struct{ Visits []CallState }

func (v *CallVisits) Count() int          { return len(v.Visits) }
func (v *CallVisits) isVisitingCounting() {}
func (v *CallVisits) Last() *CallState {
	if len(v.Visits) == 0 {
		return nil
	}
	return &v.Visits[len(v.Visits)-1]
}
func (v *CallVisits) Append(s CallState) *CallState {
	v.Visits = append(v.Visits, s)
	return v.Last()
}

type ReturnVisits struct{ Visits []ReturnState }

func (v *ReturnVisits) Count() int          { return len(v.Visits) }
func (v *ReturnVisits) isVisitingCounting() {}
func (v *ReturnVisits) Append(s ReturnState) { v.Visits = append(v.Visits, s) }

// ExitVisits carries no per-visit payload; only a count (exit is terminal,
// so it is visited at most once per call-stack lifetime in practice, but
// the store does not special-case that).
type ExitVisits struct{ n int }

func (v *ExitVisits) Count() int          { return v.n }
func (v *ExitVisits) isVisitingCounting() {}
func (v *ExitVisits) Append()             { v.n++ }

// nodeLog is the insertion-ordered LineId -> VisitingCounting row for one
// node, pre-filled by EnsureNode so index/id lookups are always valid.
type nodeLog struct {
	order []string
	byID  map[string]VisitingCounting
}

// Store is the root visiting-state map: NodeKey -> LineId -> VisitingCounting.
type Store struct {
	dialogue *script.Dialogue
	nodes    map[script.NodeKey]*nodeLog
}

// NewStore builds an empty store bound to a parsed, validated Dialogue.
func NewStore(d *script.Dialogue) *Store {
	return &Store{dialogue: d, nodes: map[script.NodeKey]*nodeLog{}}
}

func emptyArmFor(body script.LineBody) VisitingCounting {
	switch body.(type) {
	case script.Message:
		return &MessageVisits{}
	case script.Confirm:
		return &ConfirmVisits{}
	case script.Choice:
		return &ChoiceVisits{}
	case script.Eval:
		return &EvalVisits{}
	case script.Goto:
		return &GotoVisits{}
	case script.Call:
		return &CallVisits{}
	case script.Return:
		return &ReturnVisits{}
	case script.Exit:
		return &ExitVisits{}
	default:
		panic(fmt.Sprintf("unknown line body type %T", body))
	}
}

// EnsureNode pre-populates k's row with empty VisitingCounting arms in
// static line order, idempotently. Called whenever Call(k) is issued so
// that lines.<id>/lines[i] access in the EE never sees a missing row for
// an as-yet-unvisited line.
func (s *Store) EnsureNode(k script.NodeKey) error {
	if _, ok := s.nodes[k]; ok {
		return nil
	}
	lines, ok := s.dialogue.Nodes.Get(k)
	if !ok {
		return fmt.Errorf("%w: node %q does not exist", ErrControlFlow, k)
	}
	log := &nodeLog{byID: make(map[string]VisitingCounting, len(lines))}
	for _, line := range lines {
		log.order = append(log.order, line.ID)
		log.byID[line.ID] = emptyArmFor(line.Body)
	}
	s.nodes[k] = log
	return nil
}

// ByIndex returns the VisitingCounting for the i-th line of node k, in
// static order.
func (s *Store) ByIndex(k script.NodeKey, i int) (VisitingCounting, bool) {
	log, ok := s.nodes[k]
	if !ok || i < 0 || i >= len(log.order) {
		return nil, false
	}
	return log.byID[log.order[i]], true
}

// ByID returns the VisitingCounting for line id within node k.
func (s *Store) ByID(k script.NodeKey, id string) (VisitingCounting, bool) {
	log, ok := s.nodes[k]
	if !ok {
		return nil, false
	}
	v, ok := log.byID[id]
	return v, ok
}

// Len reports the number of statically known lines recorded for node k.
func (s *Store) Len(k script.NodeKey) int {
	log, ok := s.nodes[k]
	if !ok {
		return 0
	}
	return len(log.order)
}

// IDAt returns the line id at static position i within node k.
func (s *Store) IDAt(k script.NodeKey, i int) (string, bool) {
	log, ok := s.nodes[k]
	if !ok || i < 0 || i >= len(log.order) {
		return "", false
	}
	return log.order[i], true
}
