// Package runner drives a parsed, validated dialogue script forward: the
// call-stack interpreter of spec.md §4.5, hooked up to the embedded
// expression evaluator and the visiting-state store, projecting a View
// the host renders. Grounded on the (superseded) v1 runner.rs's
// Action-then-dispatch shape, generalized to the full instruction set the
// richer v2 variant describes.
package runner

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dialogrun/diavolo/internal/dialogue/config"
	"github.com/dialogrun/diavolo/internal/dialogue/ee"
	"github.com/dialogrun/diavolo/internal/dialogue/script"
	"github.com/dialogrun/diavolo/internal/dialogue/state"
)

// maxDispatchIterations bounds a single advance() call's run of
// Goto/Eval/Call/Return dispatches that never yield, per spec.md §4.5.
const maxDispatchIterations = 1000

type lineKind int

const (
	lineKindNone lineKind = iota
	lineKindMessage
	lineKindConfirm
	lineKindChoice
)

// Runner is the call-stack-driven interpreter of spec.md §4.5. It is not
// safe for concurrent use; spec.md §5 assigns serialization to the host.
type Runner struct {
	dialogue *script.Dialogue
	cfg      config.Config
	ee       *ee.EE
	stack    *state.CallStack
	store    *state.Store
	ff       state.FastForward

	// callTargets mirrors stack's frames one-for-one: callTargets[i] is
	// the CallState that pushed frame i, or nil for the root `main` frame,
	// so Return/auto-return can attach a value to the *caller*'s state
	// without the stack frame itself carrying any expression-visible data
	// (spec.md §9: "call frames do not capture local variables").
	callTargets []*state.CallState

	argCells map[string]*ee.ArgCell
	exitCode uint8

	cached *View
	logger *log.Logger
	now    func() time.Time
}

// Option configures Instantiate.
type Option func(*Runner)

// WithClock overrides the wall-clock source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// Instantiate validates actorsCount against the dialogue's declared actor
// table, installs EE globals and runtime args, and runs advance() once to
// reach the first yielding line, per spec.md §4.5 step "Initialization".
func Instantiate(cfg config.Config, dialogue *script.Dialogue, actorsCount uint8, rawArgs map[string]any, opts ...Option) (*Runner, error) {
	if dialogue.Actor.Num != actorsCount {
		return nil, &RuntimeConfigError{Err: fmt.Errorf("dialogue declares %d actors, host provided %d", dialogue.Actor.Num, actorsCount)}
	}

	r := &Runner{
		dialogue: dialogue,
		cfg:      cfg,
		ee:       ee.New(),
		stack:    state.NewCallStack(),
		store:    state.NewStore(dialogue),
		logger:   log.New(os.Stderr, "[dialogue] ", log.LstdFlags),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := ee.InstallGlobals(r.ee.Runtime(), r); err != nil {
		return nil, &RuntimeConfigError{Err: err}
	}
	if !dialogue.Args.Empty() {
		if err := r.installArgs(rawArgs); err != nil {
			return nil, err
		}
	}

	if err := r.store.EnsureNode(script.MainNode); err != nil {
		return nil, &RuntimeConfigError{Err: err}
	}
	if err := r.stack.Call(script.MainNode); err != nil {
		return nil, &RuntimeConfigError{Err: err}
	}
	r.callTargets = append(r.callTargets, nil)

	if err := r.advance(); err != nil {
		return nil, err
	}
	r.UpdateView()
	return r, nil
}

// installArgs compiles the JSON Schema derived from the dialogue's
// declared args, validates rawArgs against it, and installs each arg as
// either a plain value (immutable) or an ee.ArgCell accessor (mutable).
func (r *Runner) installArgs(rawArgs map[string]any) error {
	schema, err := compileArgSchema(r.dialogue.Args.JSONSchema())
	if err != nil {
		return &RuntimeConfigError{Err: fmt.Errorf("compile args schema: %w", err)}
	}
	normalized, err := normalizeJSON(rawArgs)
	if err != nil {
		return &RuntimeConfigError{Err: err}
	}
	if err := schema.Validate(normalized); err != nil {
		return &RuntimeConfigError{Err: fmt.Errorf("args payload: %w", err)}
	}

	immutable := map[string]any{}
	mutable := map[string]*ee.ArgCell{}
	r.argCells = map[string]*ee.ArgCell{}
	norm, _ := normalized.(map[string]any)
	for _, name := range r.dialogue.Args.Keys {
		decl := r.dialogue.Args.Decls[name]
		v := norm[name]
		if decl.Mutable {
			cell := ee.NewArgCell(v)
			mutable[name] = cell
			r.argCells[name] = cell
		} else {
			immutable[name] = v
		}
	}
	if err := ee.InstallArgs(r.ee.Runtime(), immutable, mutable); err != nil {
		return &RuntimeConfigError{Err: err}
	}
	return nil
}

func compileArgSchema(schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("args.json", strings.NewReader(string(b))); err != nil {
		return nil, err
	}
	return c.Compile("args.json")
}

// normalizeJSON round-trips v through JSON so jsonschema/v5 (which expects
// the plain float64/string/bool/map/slice shape produced by
// encoding/json) sees consistent types regardless of what a Go caller
// passed in (int, int64, float32, ...).
func normalizeJSON(v map[string]any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Args snapshots the current value of every declared runtime argument,
// mutable cells reflecting whatever the dialogue's eval lines last wrote
// to them via the EE's accessor properties.
func (r *Runner) Args() map[string]any {
	if len(r.argCells) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.argCells))
	for name, cell := range r.argCells {
		out[name] = cell.Get()
	}
	return out
}

// --- ee.Globals implementation: self/prev/next/lines ---

// CurrentLinePosition implements ee.Globals.
func (r *Runner) CurrentLinePosition() int {
	if r.stack.Empty() {
		return -1
	}
	return r.stack.Top().LinePosition
}

// Lines implements ee.Globals, rebuilding the snapshot slice from the
// visiting-state store on every call — no cached snapshot, per spec.md
// §4.2 and §9's resolved Open Question.
func (r *Runner) Lines() []ee.LineSnapshot {
	if r.stack.Empty() {
		return nil
	}
	node := r.stack.Top().NodeKey
	n := r.store.Len(node)
	out := make([]ee.LineSnapshot, n)
	for i := 0; i < n; i++ {
		id, _ := r.store.IDAt(node, i)
		vc, _ := r.store.ByIndex(node, i)
		out[i] = snapshotOf(id, vc)
	}
	return out
}

func snapshotOf(id string, vc state.VisitingCounting) ee.LineSnapshot {
	snap := ee.LineSnapshot{ID: id, Visited: vc.Count() > 0, VisitedCount: vc.Count()}
	switch v := vc.(type) {
	case *state.ChoiceVisits:
		if last := v.Last(); last != nil && last.Selected != nil {
			k := last.Selected.Key
			snap.Selected = &k
			t := last.Selected.SelectedAt
			snap.SelectedAt = &t
		}
	case *state.ConfirmVisits:
		if last := v.Last(); last != nil && last.Confirmed != nil {
			b := *last.Confirmed
			snap.Approved = &b
		}
	case *state.CallVisits:
		if last := v.Last(); last != nil && last.Returned != nil {
			snap.Returned = last.Returned.Value
			snap.HasReturned = true
		}
	}
	return snap
}

// --- line/body lookups against the current cursor ---

func (r *Runner) currentLine() (script.Line, bool) {
	if r.stack.Empty() {
		return script.Line{}, false
	}
	top := r.stack.Top()
	if top.LinePosition == state.UninitializedPosition {
		return script.Line{}, false
	}
	lines, ok := r.dialogue.Nodes.Get(top.NodeKey)
	if !ok || top.LinePosition >= len(lines) {
		return script.Line{}, false
	}
	return lines[top.LinePosition], true
}

func (r *Runner) currentLineKind() lineKind {
	line, ok := r.currentLine()
	if !ok {
		return lineKindNone
	}
	switch line.Body.(type) {
	case script.Message:
		return lineKindMessage
	case script.Confirm:
		return lineKindConfirm
	case script.Choice:
		return lineKindChoice
	default:
		return lineKindNone
	}
}

func (r *Runner) currentMessageOptions() *script.MessageOptions {
	line, ok := r.currentLine()
	if !ok {
		return nil
	}
	switch body := line.Body.(type) {
	case script.Message:
		return body.Options
	case script.Confirm:
		return body.Message.Options
	case script.Choice:
		if body.Options != nil && body.Options.Message != nil {
			return body.Options.Message.Options
		}
	}
	return nil
}

func (r *Runner) currentChoiceBody() (script.Choice, bool) {
	line, ok := r.currentLine()
	if !ok {
		return script.Choice{}, false
	}
	c, ok := line.Body.(script.Choice)
	return c, ok
}

// currentVisits returns the VisitingCounting arm for the cursor's current
// line, if any.
func (r *Runner) currentVisits() (state.VisitingCounting, bool) {
	if r.stack.Empty() {
		return nil, false
	}
	top := r.stack.Top()
	if top.LinePosition == state.UninitializedPosition {
		return nil, false
	}
	return r.store.ByIndex(top.NodeKey, top.LinePosition)
}

// currentMessageState returns whichever MessageState is "the message
// currently occupying the cursor" — a Message's own state, a Confirm's
// prompt, or a Choice's optional inner message — matching
// state.FastForward's "whichever message is currently the yielding line"
// contract. Returns nil while the cursor sits on a non-message-bearing or
// control line.
func (r *Runner) currentMessageState() *state.MessageState {
	vc, ok := r.currentVisits()
	if !ok {
		return nil
	}
	switch v := vc.(type) {
	case *state.MessageVisits:
		return v.Last()
	case *state.ConfirmVisits:
		if last := v.Last(); last != nil {
			return &last.Message
		}
	case *state.ChoiceVisits:
		if last := v.Last(); last != nil {
			return last.Message
		}
	}
	return nil
}

func (r *Runner) currentConfirmState() *state.ConfirmState {
	vc, ok := r.currentVisits()
	if !ok {
		return nil
	}
	cv, ok := vc.(*state.ConfirmVisits)
	if !ok {
		return nil
	}
	return cv.Last()
}

func (r *Runner) currentChoiceState() *state.ChoiceState {
	vc, ok := r.currentVisits()
	if !ok {
		return nil
	}
	cv, ok := vc.(*state.ChoiceVisits)
	if !ok {
		return nil
	}
	return cv.Last()
}

func (r *Runner) messageLifecycleDone(ms *state.MessageState) bool {
	if ms == nil {
		return false
	}
	if ms.Done() {
		return true
	}
	now := r.now()
	mv := projectMessageView(r.cfg, now, ms, r.currentMessageOptions(), r.ff.Pending(now))
	return mv.Lifecycle != LifecycleTyping
}

func (r *Runner) effectiveChoiceSelection(chs *state.ChoiceState) (script.ChoiceKey, bool) {
	choice, ok := r.currentChoiceBody()
	if !ok {
		return "", false
	}
	return effectiveSelection(chs, choice, r.now())
}

// commitEffectiveChoiceSelection writes a timeout/default-resolved
// selection back into the ChoiceState the first time Advance is
// dispatched past it, so a later `prev.selected` read sees the
// auto-resolved key rather than undefined (spec.md §4.7's "effective
// selection" is otherwise a pure view-time computation that never
// touches state).
func (r *Runner) commitEffectiveChoiceSelection() {
	if r.currentLineKind() != lineKindChoice {
		return
	}
	chs := r.currentChoiceState()
	if chs == nil || chs.Selected != nil {
		return
	}
	key, ok := r.effectiveChoiceSelection(chs)
	if !ok {
		return
	}
	chs.Selected = &state.Selection{Key: key, SelectedAt: r.now()}
}

// --- text/template evaluation ---

// evalMessageText resolves texts to the configured language (an
// EvaluationError if a Multilingual text lacks that tag, per S8: a
// missing-translation failure surfaces immediately rather than silently
// falling back), then evaluates the resolved string as a template
// literal, returning a Monolingual Texts ready to render.
func (r *Runner) evalMessageText(texts script.Texts) (script.Texts, error) {
	resolved, err := texts.Get(r.cfg.Language)
	if err != nil {
		return script.Texts{}, &EvaluationError{Err: err}
	}
	s, err := r.ee.EvalTemplate(resolved)
	if err != nil {
		return script.Texts{}, &EvaluationError{Err: err}
	}
	return script.NewMonolingual(s), nil
}

func (r *Runner) buildMessageState(texts script.Texts) (*state.MessageState, error) {
	resolved, err := r.evalMessageText(texts)
	if err != nil {
		return nil, err
	}
	return &state.MessageState{
		VisitedAt:          r.now(),
		Texts:              resolved,
		InitialFastForward: r.ff.Active(),
	}, nil
}

func (r *Runner) evalChoiceTexts(c script.ChoiceTexts) (script.ChoiceTexts, error) {
	texts := make(map[string]script.Texts, len(c.Keys))
	for _, k := range c.Keys {
		t, _ := c.Get(k)
		resolved, err := r.evalMessageText(t)
		if err != nil {
			return script.ChoiceTexts{}, err
		}
		texts[k] = resolved
	}
	return script.ChoiceTexts{Keys: append([]string(nil), c.Keys...), Texts: texts}, nil
}

// --- call stack transitions ---

func (r *Runner) pushCall(target script.NodeKey, cs *state.CallState) error {
	if err := r.store.EnsureNode(target); err != nil {
		return controlFlowError("call: %v", err)
	}
	if err := r.stack.Call(target); err != nil {
		return err
	}
	r.callTargets = append(r.callTargets, cs)
	return nil
}

// ret pops the current frame, attaching val to the CallState that pushed
// it (if any — the root `main` frame has none).
func (r *Runner) ret(val any) {
	if len(r.callTargets) > 0 {
		target := r.callTargets[len(r.callTargets)-1]
		r.callTargets = r.callTargets[:len(r.callTargets)-1]
		if target != nil {
			now := r.now()
			target.Returned = &state.CallReturn{Value: val, ReturnedAt: now}
		}
	}
	r.stack.Pop()
}

func nodeLineIndex(d *script.Dialogue, node script.NodeKey, id string) (int, bool) {
	lines, ok := d.Nodes.Get(node)
	if !ok {
		return 0, false
	}
	for i, line := range lines {
		if line.ID == id {
			return i, true
		}
	}
	return 0, false
}

// --- the interpreter loop ---

// evalOutcome tags what evaluating one dispatched line did, per spec.md
// §4.5's Evaluate/"Skip | ControlLine | Break" result.
type evalOutcome int

const (
	outcomeSkip evalOutcome = iota
	outcomeControl
	outcomeBreak
)

// advance is the main interpreter loop of spec.md §4.5: repeats until the
// call stack empties (normal termination) or a yielding line (Message /
// Confirm / Choice) is reached.
func (r *Runner) advance() error {
	skipCommit := false
	iterations := 0
	for {
		if r.stack.Empty() {
			return nil
		}
		if !skipCommit {
			r.ff.CommitAndRestart(r.now(), r.currentMessageState())
		}
		skipCommit = false

		top := r.stack.Top()
		nodeLines, ok := r.dialogue.Nodes.Get(top.NodeKey)
		if !ok {
			return controlFlowError("node %q no longer exists", top.NodeKey)
		}
		if r.stack.IsLastLine(len(nodeLines)) {
			r.ret(nil)
			continue
		}

		r.stack.Advance()
		top = r.stack.Top()
		line := nodeLines[top.LinePosition]

		iterations++
		if iterations > maxDispatchIterations {
			return controlFlowError("exceeded %d dispatches without yielding (possible infinite loop)", maxDispatchIterations)
		}

		outcome, err := r.evaluateLine(line, top.NodeKey, top.LinePosition)
		if err != nil {
			r.logger.Printf("evaluation error at %s[%d]: %v", top.NodeKey, top.LinePosition, err)
			return err
		}
		switch outcome {
		case outcomeSkip:
			skipCommit = true
			continue
		case outcomeControl:
			continue
		case outcomeBreak:
			return nil
		}
	}
}

// evaluateLine implements spec.md §4.5's "Evaluate a single line" dispatch.
func (r *Runner) evaluateLine(line script.Line, nodeKey script.NodeKey, pos int) (evalOutcome, error) {
	if line.If != nil {
		cond, err := r.ee.EvalBool(*line.If)
		if err != nil {
			return outcomeSkip, &EvaluationError{Err: fmt.Errorf("if at %s[%d]: %w", nodeKey, pos, err)}
		}
		if !cond {
			return outcomeSkip, nil
		}
	}

	vc, ok := r.store.ByIndex(nodeKey, pos)
	if !ok {
		return outcomeControl, controlFlowError("no visiting-state row for %s[%d]", nodeKey, pos)
	}

	switch body := line.Body.(type) {
	case script.Message:
		ms, err := r.buildMessageState(body.Texts)
		if err != nil {
			return outcomeBreak, err
		}
		vc.(*state.MessageVisits).Append(*ms)
		return outcomeBreak, nil

	case script.Confirm:
		ms, err := r.buildMessageState(body.Message.Texts)
		if err != nil {
			return outcomeBreak, err
		}
		cs := state.ConfirmState{Message: *ms}
		if body.Options != nil && body.Options.Response != nil {
			yes, err := r.evalMessageText(body.Options.Response.Yes)
			if err != nil {
				return outcomeBreak, err
			}
			no, err := r.evalMessageText(body.Options.Response.No)
			if err != nil {
				return outcomeBreak, err
			}
			cs.ResponseYes, cs.ResponseNo = &yes, &no
		}
		vc.(*state.ConfirmVisits).Append(cs)
		return outcomeBreak, nil

	case script.Choice:
		ct, err := r.evalChoiceTexts(body.Texts)
		if err != nil {
			return outcomeBreak, err
		}
		chs := state.ChoiceState{VisitedAt: r.now(), ChoiceTexts: ct}
		if body.Options != nil && body.Options.Message != nil {
			ms, err := r.buildMessageState(body.Options.Message.Texts)
			if err != nil {
				return outcomeBreak, err
			}
			chs.Message = ms
		}
		vc.(*state.ChoiceVisits).Append(chs)
		return outcomeBreak, nil

	case script.Eval:
		val, err := r.ee.EvalExpr(body.Expr)
		if err != nil {
			return outcomeControl, &EvaluationError{Err: fmt.Errorf("eval at %s[%d]: %w", nodeKey, pos, err)}
		}
		vc.(*state.EvalVisits).Append(state.EvalState{Value: val})
		return outcomeControl, nil

	case script.Goto:
		target, err := r.ee.EvalTemplate(body.Raw)
		if err != nil {
			return outcomeControl, &EvaluationError{Err: fmt.Errorf("goto at %s[%d]: %w", nodeKey, pos, err)}
		}
		vc.(*state.GotoVisits).Append(state.GotoState{Target: target})
		// Land on n the iteration after this one: the loop always advances
		// the cursor by one before evaluating, so set it to n-1 now
		// (spec.md §9: "net effect of goto N is next iteration starts at
		// position N").
		if n, ok := script.Goto{Raw: target}.IsLiteralInt(); ok {
			r.stack.Goto(n - 1)
		} else {
			idx, ok := nodeLineIndex(r.dialogue, nodeKey, target)
			if !ok {
				return outcomeControl, controlFlowError("goto: no line id %q in node %q", target, nodeKey)
			}
			r.stack.Goto(idx - 1)
		}
		return outcomeControl, nil

	case script.Call:
		target, err := r.ee.EvalTemplate(body.Target)
		if err != nil {
			return outcomeControl, &EvaluationError{Err: fmt.Errorf("call at %s[%d]: %w", nodeKey, pos, err)}
		}
		cs := vc.(*state.CallVisits).Append(state.CallState{Target: target})
		if err := r.pushCall(target, cs); err != nil {
			return outcomeControl, err
		}
		return outcomeControl, nil

	case script.Return:
		var val any
		if body.Expr != nil {
			v, err := r.ee.EvalExpr(*body.Expr)
			if err != nil {
				return outcomeControl, &EvaluationError{Err: fmt.Errorf("return at %s[%d]: %w", nodeKey, pos, err)}
			}
			val = v
		}
		vc.(*state.ReturnVisits).Append(state.ReturnState{Value: val})
		r.ret(val)
		return outcomeControl, nil

	case script.Exit:
		var code uint8
		if body.Code != nil {
			code = *body.Code
		} else {
			v, err := r.ee.EvalExpr(*body.Expr)
			if err != nil {
				return outcomeControl, &EvaluationError{Err: fmt.Errorf("exit at %s[%d]: %w", nodeKey, pos, err)}
			}
			c, err := ee.CoerceU8(v)
			if err != nil {
				return outcomeControl, &EvaluationError{Err: fmt.Errorf("exit at %s[%d]: %w", nodeKey, pos, err)}
			}
			code = c
		}
		vc.(*state.ExitVisits).Append()
		r.exitCode = code
		r.stack.Clear()
		r.callTargets = r.callTargets[:0]
		return outcomeControl, nil

	default:
		return outcomeControl, fmt.Errorf("unknown line body %T", body)
	}
}

// --- operator-facing API ---

// canAdvance reports whether ActionAdvance is currently valid: a Message
// whose typing has finished/completed, or a Choice with a resolvable
// selection (manual, or auto-resolved by timeout) whose own inner message
// (if any) has likewise finished.
func (r *Runner) canAdvance() bool {
	switch r.currentLineKind() {
	case lineKindMessage:
		return r.messageLifecycleDone(r.currentMessageState())
	case lineKindChoice:
		chs := r.currentChoiceState()
		if chs == nil {
			return false
		}
		if chs.Message != nil && !r.messageLifecycleDone(chs.Message) {
			return false
		}
		_, ok := r.effectiveChoiceSelection(chs)
		return ok
	default:
		return false
	}
}

// Dispatch applies one operator Action. It reports whether the action was
// valid for the current view; an invalid action (per spec.md §7's
// InvalidActionError) is recovered locally and leaves all state
// untouched. A non-nil error means a fatal ControlFlowError or
// EvaluationError aborted the dialogue mid-advance.
func (r *Runner) Dispatch(a Action) (bool, error) {
	if r.stack.Empty() {
		return false, nil
	}

	switch a.Kind {
	case ActionToggleFastForward:
		r.ff.Toggle(r.now(), r.currentMessageState())
		return true, nil

	case ActionSkip:
		ms := r.currentMessageState()
		if ms == nil || ms.Done() {
			return false, nil
		}
		now := r.now()
		ms.SkippedAt = &now
		ms.CompletedAt = &now
		return true, nil

	case ActionConfirm:
		if r.currentLineKind() != lineKindConfirm {
			return false, nil
		}
		cs := r.currentConfirmState()
		if cs == nil || cs.Confirmed != nil || !r.messageLifecycleDone(&cs.Message) {
			return false, nil
		}
		v := a.ConfirmValue
		cs.Confirmed = &v
		if err := r.advance(); err != nil {
			return true, err
		}
		return true, nil

	case ActionSelect:
		if r.currentLineKind() != lineKindChoice {
			return false, nil
		}
		chs := r.currentChoiceState()
		if chs == nil || chs.Selected != nil {
			return false, nil
		}
		if chs.Message != nil && !r.messageLifecycleDone(chs.Message) {
			return false, nil
		}
		if _, ok := chs.ChoiceTexts.Get(a.SelectKey); !ok {
			return false, nil
		}
		chs.Selected = &state.Selection{Key: a.SelectKey, SelectedAt: r.now()}
		return true, nil

	case ActionAdvance:
		if !r.canAdvance() {
			return false, nil
		}
		r.commitEffectiveChoiceSelection()
		if err := r.advance(); err != nil {
			return true, err
		}
		return true, nil

	default:
		return false, nil
	}
}

// autoComplete implements spec.md §4.6's "Automatic completion": once a
// view shows the current message as Finished (fully typed, but not yet
// marked Completed), the runner commits completion so a subsequent
// Dispatch(Advance) is valid without a separate explicit Skip.
func (r *Runner) autoComplete(now time.Time) bool {
	ms := r.currentMessageState()
	if ms == nil || ms.Done() {
		return false
	}
	mv := projectMessageView(r.cfg, now, ms, r.currentMessageOptions(), r.ff.Pending(now))
	if mv.Lifecycle != LifecycleFinished {
		return false
	}
	ms.CompletedAt = &now
	return true
}

func (r *Runner) projectView(now time.Time) View {
	if r.stack.Empty() {
		return View{Kind: KindTerminated, ExitCode: r.exitCode}
	}
	line, ok := r.currentLine()
	if !ok {
		return View{Kind: KindNone}
	}
	pending := r.ff.Pending(now)

	switch body := line.Body.(type) {
	case script.Message:
		ms := r.currentMessageState()
		if ms == nil {
			return View{Kind: KindNone}
		}
		mv := projectMessageView(r.cfg, now, ms, body.Options, pending)
		mv.Owner = body.Owner
		return View{Kind: KindMessage, Message: &mv}

	case script.Confirm:
		cs := r.currentConfirmState()
		if cs == nil {
			return View{Kind: KindNone}
		}
		mv := projectMessageView(r.cfg, now, &cs.Message, body.Message.Options, pending)
		mv.Owner = body.Message.Owner
		cv := ConfirmView{Message: mv, Confirmed: cs.Confirmed}
		if cs.Confirmed != nil {
			if *cs.Confirmed && cs.ResponseYes != nil {
				t, _ := cs.ResponseYes.Get(r.cfg.Language)
				cv.ResponseYes = &t
			}
			if !*cs.Confirmed && cs.ResponseNo != nil {
				t, _ := cs.ResponseNo.Get(r.cfg.Language)
				cv.ResponseNo = &t
			}
		}
		return View{Kind: KindConfirm, Confirm: &cv}

	case script.Choice:
		chs := r.currentChoiceState()
		if chs == nil {
			return View{Kind: KindNone}
		}
		cv := projectChoiceView(r.cfg, now, chs, body, pending)
		return View{Kind: KindChoice, Choice: &cv}

	default:
		return View{Kind: KindNone}
	}
}

// UpdateView recomputes the View and returns it iff it differs from the
// cached one (nil otherwise), per spec.md §6.
func (r *Runner) UpdateView() *View {
	now := r.now()
	if r.autoComplete(now) {
		now = r.now()
	}
	v := r.projectView(now)
	if r.cached != nil && viewsEqual(*r.cached, v) {
		return nil
	}
	r.cached = &v
	out := v
	return &out
}

// View returns the last projected View (nil before the first
// UpdateView/Instantiate call completes).
func (r *Runner) View() *View {
	if r.cached == nil {
		return nil
	}
	v := *r.cached
	return &v
}

// IsTerminated reports whether the dialogue's call stack has emptied.
func (r *Runner) IsTerminated() bool {
	return r.stack.Empty()
}

// viewsEqual compares two projected Views field-by-field rather than via
// reflect.DeepEqual, since time.Time values compare by wall/monotonic
// reading rather than instant equality under DeepEqual.
func viewsEqual(a, b View) bool {
	if a.Kind != b.Kind || a.ExitCode != b.ExitCode {
		return false
	}
	switch a.Kind {
	case KindMessage:
		return messageViewsEqual(a.Message, b.Message)
	case KindConfirm:
		if a.Confirm == nil || b.Confirm == nil {
			return a.Confirm == b.Confirm
		}
		if !messageViewsEqual(&a.Confirm.Message, &b.Confirm.Message) {
			return false
		}
		return boolPtrEqual(a.Confirm.Confirmed, b.Confirm.Confirmed) &&
			strPtrEqual(a.Confirm.ResponseYes, b.Confirm.ResponseYes) &&
			strPtrEqual(a.Confirm.ResponseNo, b.Confirm.ResponseNo)
	case KindChoice:
		return choiceViewsEqual(a.Choice, b.Choice)
	default:
		return true
	}
}

func messageViewsEqual(a, b *MessageView) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Text == b.Text && a.Lifecycle == b.Lifecycle &&
		a.VisibleChars == b.VisibleChars && a.TotalChars == b.TotalChars &&
		a.CompletedAt.Equal(b.CompletedAt)
}

func choiceViewsEqual(a, b *ChoiceView) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	if !messageViewsEqual(a.Message, b.Message) {
		return false
	}
	return a.Available == b.Available && a.Expired == b.Expired &&
		strPtrEqual(a.Selected, b.Selected)
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
