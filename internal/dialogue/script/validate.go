package script

// Validate checks actor/owner invariants across every node and returns
// every Diagnostic found, collecting rather than short-circuiting on the
// first problem so a script author sees the whole picture at once.
func Validate(d *Dialogue) []Diagnostic {
	var diags []Diagnostic
	maxOwner := Owner(0)
	if d.Actor.Num > 0 {
		maxOwner = d.Actor.Num - 1
	}

	checkOwner := func(owner Owner, loc Location) {
		if d.Actor.Num == 0 {
			diags = append(diags, messageNotAllowed(loc))
			return
		}
		if owner > maxOwner {
			diags = append(diags, ownerOutOfRange(owner, maxOwner, loc))
		}
	}

	for _, key := range d.Nodes.Keys {
		for i, line := range d.Nodes.Items[key] {
			loc := Location{Node: key, Position: i}
			switch body := line.Body.(type) {
			case Message:
				checkOwner(body.Owner, loc)
			case Confirm:
				checkOwner(body.Message.Owner, loc)
			case Choice:
				if body.Options != nil && body.Options.Message != nil {
					checkOwner(body.Options.Message.Owner, loc)
				}
			}
		}
	}
	return diags
}

// ValidateOrError runs Validate and folds any error-severity Diagnostics
// into a single *ValidationError, or returns nil if the script is clean.
func ValidateOrError(d *Dialogue) error {
	diags := Validate(d)
	var errs []Diagnostic
	for _, diag := range diags {
		if diag.Severity == SeverityError {
			errs = append(errs, diag)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Diagnostics: errs}
}
