package script

import "fmt"

// Location pinpoints one line within the script for diagnostics.
type Location struct {
	Node     NodeKey
	Position int
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d]", l.Node, l.Position)
}

// ParseError wraps a YAML structural failure (unknown field, duplicate
// key, missing main, empty choice, bad discriminator) with the underlying
// yaml.v3 error preserved via errors.Unwrap.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse dialogue: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Severity classifies a Diagnostic's impact on whether the parse result is
// usable at all.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Rule names the invariant a Diagnostic reports a violation of.
type Rule string

const (
	RuleMessageNotAllowed Rule = "message_not_allowed"
	RuleOwnerOutOfRange   Rule = "owner_out_of_range"
)

// Diagnostic is one validation finding, collected (not thrown) by Validate
// so callers can report every problem in a script at once.
type Diagnostic struct {
	Rule     Rule
	Severity Severity
	Message  string
	Location Location
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s: %s", d.Rule, d.Location, d.Message)
}

func messageNotAllowed(loc Location) Diagnostic {
	return Diagnostic{
		Rule:     RuleMessageNotAllowed,
		Severity: SeverityError,
		Message:  "actor.num is 0, so no Message/Choice-message/Confirm line may exist",
		Location: loc,
	}
}

func ownerOutOfRange(owner, maxOwner Owner, loc Location) Diagnostic {
	return Diagnostic{
		Rule:     RuleOwnerOutOfRange,
		Severity: SeverityError,
		Message:  fmt.Sprintf("owner %d exceeds max owner %d", owner, maxOwner),
		Location: loc,
	}
}

// ValidationError folds one or more error-severity Diagnostics into a
// single returnable error, as produced by ValidateOrError.
type ValidationError struct {
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(e.Diagnostics), e.Diagnostics[0].Error())
}
