package runner

import (
	"time"

	"github.com/dialogrun/diavolo/internal/dialogue/config"
	"github.com/dialogrun/diavolo/internal/dialogue/script"
	"github.com/dialogrun/diavolo/internal/dialogue/state"
)

// Lifecycle describes where a Message currently sits in the
// Typing -> Finished -> Completed progression of spec.md §4.7.
type Lifecycle int

const (
	LifecycleTyping Lifecycle = iota
	LifecycleFinished
	LifecycleCompleted
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleFinished:
		return "finished"
	case LifecycleCompleted:
		return "completed"
	default:
		return "typing"
	}
}

// MessageView is the projected state of one Message line, or the inner
// prompt of a Confirm/Choice.
type MessageView struct {
	Owner        script.Owner
	Text         string
	Options      *script.MessageOptions
	Lifecycle    Lifecycle
	VisibleChars int
	TotalChars   int
	CompletedAt  time.Time // valid iff Lifecycle == LifecycleCompleted
}

// ConfirmView composes a prompt MessageView with the operator's response.
type ConfirmView struct {
	Message     MessageView
	Confirmed   *bool
	ResponseYes *string
	ResponseNo  *string
}

// ChoiceOption is one (key, localized text) pair offered by a Choice.
type ChoiceOption struct {
	Key  script.ChoiceKey
	Text string
}

// ChoiceView is the projected state of a Choice line.
type ChoiceView struct {
	Options   []ChoiceOption
	Default   *script.ChoiceKey
	Timeout   *time.Duration
	Message   *MessageView
	Selected  *script.ChoiceKey
	Available bool
	Expired   bool
	StartedAt time.Time
}

// Kind discriminates the tagged View union of spec.md §4.7.
type Kind int

const (
	KindNone Kind = iota
	KindTerminated
	KindMessage
	KindConfirm
	KindChoice
)

// View is the runner's projection of current state for display.
type View struct {
	Kind     Kind
	ExitCode uint8
	Message  *MessageView
	Confirm  *ConfirmView
	Choice   *ChoiceView
}

// projectMessageView computes the typed-character visibility contract of
// spec.md §4.7 for one MessageState, folding in any not-yet-committed
// fast-forward delta (ffPending) without mutating ms.
func projectMessageView(cfg config.Config, now time.Time, ms *state.MessageState, options *script.MessageOptions, ffPending time.Duration) MessageView {
	lang := cfg.Language
	text, err := ms.Texts.Get(lang)
	if err != nil {
		text = ""
	}
	totalChars := len([]rune(text))

	var lineSpeed *float32
	if options != nil {
		lineSpeed = options.Speed
	}
	speed := cfg.Typing.EffectiveSpeed(lang, text, lineSpeed)

	if t, ok := ms.CompletedOrSkippedAt(); ok {
		return MessageView{
			Owner: 0, Text: text, Options: options,
			Lifecycle: LifecycleCompleted, VisibleChars: totalChars, TotalChars: totalChars,
			CompletedAt: t,
		}
	}

	visible := visibleChars(cfg, now, ms, speed, ffPending)
	if visible >= totalChars {
		return MessageView{Text: text, Options: options, Lifecycle: LifecycleFinished, VisibleChars: totalChars, TotalChars: totalChars}
	}
	return MessageView{Text: text, Options: options, Lifecycle: LifecycleTyping, VisibleChars: visible, TotalChars: totalChars}
}

// visibleChars implements spec.md §4.7's numeric contract:
//
//	total_ff      = message_state.total_fast_forward + pending
//	effective     = (now - visited_at) + total_ff*factor - start_delay (unless initial_fast_forward), saturating at 0
//	visible_chars = floor(effective_seconds * effective_speed)
func visibleChars(cfg config.Config, now time.Time, ms *state.MessageState, speed float64, ffPending time.Duration) int {
	totalFF := ms.TotalFastForward + ffPending
	effective := now.Sub(ms.VisitedAt) + time.Duration(float64(totalFF)*cfg.Typing.FastForwardFactor)
	if !ms.InitialFastForward {
		effective -= cfg.Typing.StartDelay
	}
	if effective < 0 {
		effective = 0
	}
	n := int(effective.Seconds() * speed)
	if n < 0 {
		n = 0
	}
	return n
}

// projectChoiceView computes availability, expiry, and effective
// selection for a Choice line per spec.md §4.7.
func projectChoiceView(cfg config.Config, now time.Time, chs *state.ChoiceState, choice script.Choice, ffPending time.Duration) ChoiceView {
	opts := make([]ChoiceOption, len(chs.ChoiceTexts.Keys))
	for i, k := range chs.ChoiceTexts.Keys {
		t, _ := chs.ChoiceTexts.Texts[k].Get(cfg.Language)
		opts[i] = ChoiceOption{Key: k, Text: t}
	}
	cv := ChoiceView{Options: opts, StartedAt: chs.VisitedAt}

	var msgOptions *script.MessageOptions
	if choice.Options != nil {
		cv.Default = choice.Options.Default
		cv.Timeout = choice.Options.Timeout
		if choice.Options.Message != nil {
			msgOptions = choice.Options.Message.Options
		}
	}

	if chs.Message != nil {
		mv := projectMessageView(cfg, now, chs.Message, msgOptions, ffPending)
		cv.Message = &mv
		cv.Available = mv.Lifecycle == LifecycleCompleted
	} else {
		cv.Available = true
	}

	if chs.Selected != nil {
		k := chs.Selected.Key
		cv.Selected = &k
	}

	if choice.Options != nil && choice.Options.Timeout != nil {
		startedAt := chs.VisitedAt
		if chs.Message != nil {
			if t, ok := chs.Message.CompletedOrSkippedAt(); ok {
				startedAt = t
			}
		}
		remaining := *choice.Options.Timeout - now.Sub(startedAt)
		cv.Expired = remaining <= 0
	}
	return cv
}

// effectiveSelection resolves spec.md §4.7's "effective selection" rule:
// the operator's manual pick if present, else the declared default once
// expired, else the first choice key once expired. A Choice with no
// timeout never auto-resolves; it waits for a manual Select.
func effectiveSelection(chs *state.ChoiceState, choice script.Choice, now time.Time) (script.ChoiceKey, bool) {
	if chs.Selected != nil {
		return chs.Selected.Key, true
	}
	if choice.Options == nil || choice.Options.Timeout == nil {
		return "", false
	}
	startedAt := chs.VisitedAt
	if chs.Message != nil {
		if t, ok := chs.Message.CompletedOrSkippedAt(); ok {
			startedAt = t
		}
	}
	remaining := *choice.Options.Timeout - now.Sub(startedAt)
	if remaining > 0 {
		return "", false
	}
	if choice.Options.Default != nil {
		return *choice.Options.Default, true
	}
	return chs.ChoiceTexts.Keys[0], true
}
