package hostsrv

import "github.com/dialogrun/diavolo/internal/dialogue/runner"

// CreateRequest is the POST /dialogues request body: a YAML script source,
// the actor count the host is prepared to render, and the runtime
// argument payload declared by the script's `args:` block (nil/empty if
// the script declares none).
type CreateRequest struct {
	Script string         `msgpack:"script"`
	Actors uint8          `msgpack:"actors"`
	Args   map[string]any `msgpack:"args,omitempty"`
	Lang   string         `msgpack:"lang,omitempty"`
}

// CreateResponse is returned by a successful POST /dialogues.
type CreateResponse struct {
	ID   string      `msgpack:"id"`
	View runner.View `msgpack:"view"`
}

// ActionRequest is the POST /dialogues/{id}/actions request body. Kind
// selects which runner.Action constructor to use; ConfirmValue and
// SelectKey are only meaningful for their matching Kind.
type ActionRequest struct {
	Kind         string `msgpack:"kind"`
	ConfirmValue bool   `msgpack:"confirm_value,omitempty"`
	SelectKey    string `msgpack:"select_key,omitempty"`
}

// ActionResponse reports whether the dispatched action was valid for the
// session's current view, plus the (possibly unchanged) resulting view.
type ActionResponse struct {
	Accepted bool        `msgpack:"accepted"`
	View     runner.View `msgpack:"view"`
}

// ErrorResponse is the msgpack-encoded body of every error response the
// handlers write. Requests rejected by csrfProtect or by the router never
// reach a handler and carry plain-text bodies instead.
type ErrorResponse struct {
	Error string `msgpack:"error"`
}

const (
	actionKindAdvance    = "advance"
	actionKindToggleFast = "toggle_fast_forward"
	actionKindSkip       = "skip"
	actionKindConfirm    = "confirm"
	actionKindSelect     = "select"
)

func toRunnerAction(req ActionRequest) (runner.Action, bool) {
	switch req.Kind {
	case actionKindAdvance:
		return runner.Advance(), true
	case actionKindToggleFast:
		return runner.ToggleFastForward(), true
	case actionKindSkip:
		return runner.Skip(), true
	case actionKindConfirm:
		return runner.ConfirmWith(req.ConfirmValue), true
	case actionKindSelect:
		return runner.Select(req.SelectKey), true
	default:
		return runner.Action{}, false
	}
}
