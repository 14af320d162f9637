package script

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Owner indexes into the actor table; 0 is the default speaker.
type Owner uint8

// LineBody is the sealed union of the eight line variants. Exactly one
// variant is present per Line.
type LineBody interface {
	isLineBody()
}

// FontOptions customizes the rendered font of a message.
type FontOptions struct {
	Weight *string `yaml:"weight,omitempty"`
	Color  *string `yaml:"color,omitempty"`
	Size   *string `yaml:"size,omitempty"`
}

// MessageOptions is the line-level decoration attached to a Message body
// (and, nested, to a Confirm's or Choice's inner message).
type MessageOptions struct {
	Emotion   *string      `yaml:"emotion,omitempty"`
	Speed     *float32     `yaml:"speed,omitempty"`
	Font      *FontOptions `yaml:"font,omitempty"`
	Listeners []Owner      `yaml:"listeners,omitempty"`
}

// Message is the most common line body: one or more localized texts spoken
// by an actor.
type Message struct {
	Texts   Texts
	Owner   Owner
	Options *MessageOptions
}

func (Message) isLineBody() {}

// messageSpec is the nested-object shape used inside ChoiceOptions.Message
// ("message: { texts: ..., owner: ..., options: ... }"), distinct from the
// top-level Message body, whose Texts come directly from the discriminator
// value rather than a "texts:" sub-key.
type messageSpec struct {
	Texts   Texts           `yaml:"texts"`
	Owner   Owner           `yaml:"owner,omitempty"`
	Options *MessageOptions `yaml:"options,omitempty"`
}

// ResponseTexts are the localized "yes"/"no" replies shown after a Confirm
// has been answered.
type ResponseTexts struct {
	Yes Texts `yaml:"yes"`
	No  Texts `yaml:"no"`
}

// ConfirmOptions holds the options legal on a confirm: line, beyond the
// inner message's own options (which are nested as options.message and
// attached to Confirm.Message.Options instead).
type ConfirmOptions struct {
	Response *ResponseTexts
}

// Confirm owns an inner Message (the prompt) plus an optional yes/no
// response-text pair.
type Confirm struct {
	Message Message
	Options *ConfirmOptions
}

func (Confirm) isLineBody() {}

// ChoiceOptions holds the options legal on a choice: line.
type ChoiceOptions struct {
	Message *Message
	Default *ChoiceKey
	Timeout *time.Duration
}

// Choice presents an ordered set of options to the operator.
type Choice struct {
	Texts   ChoiceTexts
	Options *ChoiceOptions
}

func (Choice) isLineBody() {}

// Eval is a free-form expression evaluated for its side effect.
type Eval struct {
	Expr string
}

func (Eval) isLineBody() {}

// Goto jumps to a line position (if Raw parses as an integer) or a line id
// within the current node. Raw is itself a template-literal source,
// evaluated before dispatch.
type Goto struct {
	Raw string
}

func (Goto) isLineBody() {}

// Call pushes a new call-stack frame for the templated target node key.
type Call struct {
	Target string
}

func (Call) isLineBody() {}

// Return pops the current call-stack frame, attaching Expr's evaluated
// value (or undefined, if Expr is nil) to the parent Call's state.
type Return struct {
	Expr *string
}

func (Return) isLineBody() {}

// Exit clears the call stack. Exactly one of Code or Expr is set.
type Exit struct {
	Code *uint8
	Expr *string
}

func (Exit) isLineBody() {}

// Line is one executable item: an optional stable id, an optional guard
// expression, and exactly one LineBody.
type Line struct {
	ID   string
	If   *string
	Body LineBody
}

const (
	keyMessage = "message"
	keyConfirm = "confirm"
	keyChoice  = "choice"
	keyEval    = "eval"
	keyGoto    = "goto"
	keyCall    = "call"
	keyReturn  = "return"
	keyExit    = "exit"
	keyOwner   = "owner"
	keyOptions = "options"
	keyID      = "id"
	keyIf      = "if"
)

func isDiscriminatorKey(k string) bool {
	switch k {
	case keyMessage, keyConfirm, keyChoice, keyEval, keyGoto, keyCall, keyReturn, keyExit:
		return true
	default:
		return false
	}
}

// UnmarshalYAML enforces the mutually-exclusive-key discriminator plus the
// owner/options legality rules described in spec.md §4.1, equivalent to the
// original's serde MapVisitor over dialogue/src/dialogue/line.rs.
func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line must be a mapping, got %v", node.Kind)
	}

	seen := map[string]*yaml.Node{}
	var discriminatorKey string
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		k := keyNode.Value
		switch k {
		case keyMessage, keyConfirm, keyChoice, keyEval, keyGoto, keyCall, keyReturn, keyExit,
			keyOwner, keyOptions, keyID, keyIf:
			if _, dup := seen[k]; dup {
				return fmt.Errorf("duplicate %q key found", k)
			}
			seen[k] = valNode
			if isDiscriminatorKey(k) {
				if discriminatorKey != "" {
					return fmt.Errorf("mutually exclusive keys present: %s", k)
				}
				discriminatorKey = k
			}
		default:
			return fmt.Errorf("unexpected key: %s", k)
		}
	}

	if discriminatorKey == "" {
		return fmt.Errorf("one of 'message', 'choice', 'confirm', 'eval', 'goto', 'call', 'return' or 'exit' must be present")
	}
	if _, ok := seen[keyOwner]; ok && discriminatorKey != keyMessage && discriminatorKey != keyConfirm {
		return fmt.Errorf("'owner' can only be used with 'message' or 'confirm'")
	}
	if _, ok := seen[keyOptions]; ok && discriminatorKey != keyMessage && discriminatorKey != keyConfirm && discriminatorKey != keyChoice {
		return fmt.Errorf("'options' can only be used with 'message', 'choice', or 'confirm'")
	}

	var id string
	if n, ok := seen[keyID]; ok {
		if err := n.Decode(&id); err != nil {
			return fmt.Errorf("id: %w", err)
		}
	}
	var ifExpr *string
	if n, ok := seen[keyIf]; ok {
		var s string
		if err := n.Decode(&s); err != nil {
			return fmt.Errorf("if: %w", err)
		}
		ifExpr = &s
	}

	body, err := buildLineBody(discriminatorKey, seen)
	if err != nil {
		return err
	}

	l.ID, l.If, l.Body = id, ifExpr, body
	return nil
}

func buildLineBody(discriminatorKey string, seen map[string]*yaml.Node) (LineBody, error) {
	switch discriminatorKey {
	case keyMessage:
		return buildMessage(seen[keyMessage], seen[keyOwner], seen[keyOptions])
	case keyConfirm:
		return buildConfirm(seen[keyConfirm], seen[keyOwner], seen[keyOptions])
	case keyChoice:
		return buildChoice(seen[keyChoice], seen[keyOptions])
	case keyEval:
		var expr string
		if err := seen[keyEval].Decode(&expr); err != nil {
			return nil, fmt.Errorf("eval: %w", err)
		}
		return Eval{Expr: expr}, nil
	case keyGoto:
		return buildGoto(seen[keyGoto])
	case keyCall:
		var target string
		if err := seen[keyCall].Decode(&target); err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		return Call{Target: target}, nil
	case keyReturn:
		return buildReturn(seen[keyReturn])
	case keyExit:
		return buildExit(seen[keyExit])
	default:
		return nil, fmt.Errorf("unreachable discriminator %q", discriminatorKey)
	}
}

func decodeOwner(node *yaml.Node) (Owner, error) {
	if node == nil {
		return 0, nil
	}
	var o Owner
	if err := node.Decode(&o); err != nil {
		return 0, fmt.Errorf("owner: %w", err)
	}
	return o, nil
}

func buildMessage(textsNode, ownerNode, optionsNode *yaml.Node) (Message, error) {
	var texts Texts
	if err := textsNode.Decode(&texts); err != nil {
		return Message{}, fmt.Errorf("message: %w", err)
	}
	owner, err := decodeOwner(ownerNode)
	if err != nil {
		return Message{}, err
	}
	var options *MessageOptions
	if optionsNode != nil {
		options = &MessageOptions{}
		if err := optionsNode.Decode(options); err != nil {
			return Message{}, fmt.Errorf("message options: %w", err)
		}
	}
	return Message{Texts: texts, Owner: owner, Options: options}, nil
}

func buildConfirm(textsNode, ownerNode, optionsNode *yaml.Node) (Confirm, error) {
	msg, err := buildMessage(textsNode, ownerNode, nil)
	if err != nil {
		return Confirm{}, fmt.Errorf("confirm: %w", err)
	}

	var raw struct {
		Response *ResponseTexts  `yaml:"response,omitempty"`
		Message  *MessageOptions `yaml:"message,omitempty"`
	}
	if optionsNode != nil {
		if err := optionsNode.Decode(&raw); err != nil {
			return Confirm{}, fmt.Errorf("confirm options: %w", err)
		}
	}
	msg.Options = raw.Message

	var options *ConfirmOptions
	if raw.Response != nil {
		options = &ConfirmOptions{Response: raw.Response}
	}
	return Confirm{Message: msg, Options: options}, nil
}

func buildChoice(textsNode, optionsNode *yaml.Node) (Choice, error) {
	var texts ChoiceTexts
	if err := textsNode.Decode(&texts); err != nil {
		return Choice{}, fmt.Errorf("choice: %w", err)
	}

	var options *ChoiceOptions
	if optionsNode != nil {
		var raw struct {
			Message *messageSpec `yaml:"message,omitempty"`
			Default *ChoiceKey   `yaml:"default,omitempty"`
			Timeout *float64     `yaml:"timeout,omitempty"`
		}
		if err := optionsNode.Decode(&raw); err != nil {
			return Choice{}, fmt.Errorf("choice options: %w", err)
		}
		options = &ChoiceOptions{Default: raw.Default}
		if raw.Message != nil {
			options.Message = &Message{Texts: raw.Message.Texts, Owner: raw.Message.Owner, Options: raw.Message.Options}
		}
		if raw.Timeout != nil {
			d := time.Duration(*raw.Timeout * float64(time.Second))
			options.Timeout = &d
		}
	}
	return Choice{Texts: texts, Options: options}, nil
}

func buildGoto(node *yaml.Node) (Goto, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return Goto{Raw: node.Value}, nil
	default:
		return Goto{}, fmt.Errorf("goto target must be a scalar, got %v", node.Kind)
	}
}

// IsLiteralInt reports whether this Goto's raw target is an (untemplated)
// integer literal line position, as opposed to a line id.
func (g Goto) IsLiteralInt() (int, bool) {
	n, err := strconv.Atoi(g.Raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func buildReturn(node *yaml.Node) (Return, error) {
	if node.Tag == "!!null" {
		return Return{Expr: nil}, nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		// Non-string scalars (e.g. `return: 42` or `return: true`) are valid
		// expression sources too; fall back to the raw scalar text.
		if node.Kind == yaml.ScalarNode {
			return Return{Expr: &node.Value}, nil
		}
		return Return{}, fmt.Errorf("return: %w", err)
	}
	return Return{Expr: &s}, nil
}

// encodeLine renders a Line back to its canonical mapping shape: id/if
// first (if present), then exactly the keys legal for its body variant,
// with zero-valued owner/options elided per the round-trip contract.
func encodeLine(l Line) (*yaml.Node, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v interface{}) error {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(key); err != nil {
			return err
		}
		if err := valNode.Encode(v); err != nil {
			return err
		}
		mapping.Content = append(mapping.Content, &keyNode, &valNode)
		return nil
	}

	if l.ID != "" {
		if err := add(keyID, l.ID); err != nil {
			return nil, err
		}
	}
	if l.If != nil {
		if err := add(keyIf, *l.If); err != nil {
			return nil, err
		}
	}

	switch body := l.Body.(type) {
	case Message:
		if err := add(keyMessage, body.Texts); err != nil {
			return nil, err
		}
		if body.Owner != 0 {
			if err := add(keyOwner, body.Owner); err != nil {
				return nil, err
			}
		}
		if body.Options != nil {
			if err := add(keyOptions, body.Options); err != nil {
				return nil, err
			}
		}
	case Confirm:
		if err := add(keyConfirm, body.Message.Texts); err != nil {
			return nil, err
		}
		if body.Message.Owner != 0 {
			if err := add(keyOwner, body.Message.Owner); err != nil {
				return nil, err
			}
		}
		if body.Options != nil || body.Message.Options != nil {
			opts := map[string]any{}
			if body.Options != nil && body.Options.Response != nil {
				opts["response"] = body.Options.Response
			}
			if body.Message.Options != nil {
				opts["message"] = body.Message.Options
			}
			if err := add(keyOptions, opts); err != nil {
				return nil, err
			}
		}
	case Choice:
		if err := add(keyChoice, body.Texts); err != nil {
			return nil, err
		}
		if body.Options != nil {
			opts := map[string]any{}
			if body.Options.Message != nil {
				opts["message"] = messageSpec{
					Texts:   body.Options.Message.Texts,
					Owner:   body.Options.Message.Owner,
					Options: body.Options.Message.Options,
				}
			}
			if body.Options.Default != nil {
				opts["default"] = *body.Options.Default
			}
			if body.Options.Timeout != nil {
				opts["timeout"] = body.Options.Timeout.Seconds()
			}
			if err := add(keyOptions, opts); err != nil {
				return nil, err
			}
		}
	case Eval:
		if err := add(keyEval, body.Expr); err != nil {
			return nil, err
		}
	case Goto:
		if n, ok := body.IsLiteralInt(); ok {
			if err := add(keyGoto, n); err != nil {
				return nil, err
			}
		} else {
			if err := add(keyGoto, body.Raw); err != nil {
				return nil, err
			}
		}
	case Call:
		if err := add(keyCall, body.Target); err != nil {
			return nil, err
		}
	case Return:
		if body.Expr == nil {
			if err := add(keyReturn, nil); err != nil {
				return nil, err
			}
		} else if err := add(keyReturn, *body.Expr); err != nil {
			return nil, err
		}
	case Exit:
		switch {
		case body.Code != nil:
			if err := add(keyExit, *body.Code); err != nil {
				return nil, err
			}
		case body.Expr != nil:
			if err := add(keyExit, *body.Expr); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown line body type %T", body)
	}

	return mapping, nil
}

func buildExit(node *yaml.Node) (Exit, error) {
	if node.Kind != yaml.ScalarNode {
		return Exit{}, fmt.Errorf("exit must be a scalar, got %v", node.Kind)
	}
	if n, err := strconv.ParseUint(node.Value, 10, 8); err == nil {
		code := uint8(n)
		return Exit{Code: &code}, nil
	}
	expr := node.Value
	return Exit{Expr: &expr}, nil
}
