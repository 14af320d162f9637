package script

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Dialogue {
	t.Helper()
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestParse_RequiresMainNode(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  side:
    - message: hi
`))
	if err == nil {
		t.Fatalf("expected error for missing main node")
	}
	var pe *ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestParse_MutuallyExclusiveKeys(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  main:
    - message: hi
      eval: x = 1
`))
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive keys present") {
		t.Fatalf("expected mutually-exclusive-keys error, got %v", err)
	}
}

func TestParse_OwnerIllegalWithEval(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  main:
    - eval: x = 1
      owner: 0
`))
	if err == nil || !strings.Contains(err.Error(), "owner") {
		t.Fatalf("expected owner-legality error, got %v", err)
	}
}

func TestParse_OptionsIllegalWithGoto(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  main:
    - goto: 0
      options: { speed: 1.0 }
`))
	if err == nil || !strings.Contains(err.Error(), "options") {
		t.Fatalf("expected options-legality error, got %v", err)
	}
}

func TestParse_DuplicateKey(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  main:
    - id: a
      id: b
      message: hi
`))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate-key error, got %v", err)
	}
}

func TestParse_EmptyChoiceTexts(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  main:
    - choice: []
`))
	if err == nil {
		t.Fatalf("expected error for empty choice texts")
	}
}

// S6 — owner validation.
func TestParse_OwnerOutOfRange(t *testing.T) {
	_, err := Parse([]byte(`
actor: { num: 1 }
nodes:
  main:
    - message: hi
      owner: 1
`))
	var ve *ValidationError
	if !asValidationError(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	diag := ve.Diagnostics[0]
	if diag.Rule != RuleOwnerOutOfRange {
		t.Fatalf("rule = %v, want %v", diag.Rule, RuleOwnerOutOfRange)
	}
	if diag.Location != (Location{Node: "main", Position: 0}) {
		t.Fatalf("location = %+v", diag.Location)
	}
}

func TestParse_MessageNotAllowedWhenActorZero(t *testing.T) {
	_, err := Parse([]byte(`
actor: { num: 0 }
nodes:
  main:
    - message: hi
`))
	var ve *ValidationError
	if !asValidationError(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if ve.Diagnostics[0].Rule != RuleMessageNotAllowed {
		t.Fatalf("rule = %v", ve.Diagnostics[0].Rule)
	}
}

func TestParse_MonolingualAndMultilingualShorthand(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - message: Hello
    - message: { en: Hi, ja: こんにちは }
`)
	lines := d.Nodes.Items["main"]
	msg0 := lines[0].Body.(Message)
	if msg0.Texts.IsMultilingual() {
		t.Fatalf("expected monolingual")
	}
	got, err := msg0.Texts.Get("anything")
	if err != nil || got != "Hello" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	msg1 := lines[1].Body.(Message)
	if !msg1.Texts.IsMultilingual() {
		t.Fatalf("expected multilingual")
	}
	if got, err := msg1.Texts.Get("en"); err != nil || got != "Hi" {
		t.Fatalf("Get(en) = %q, %v", got, err)
	}
	if _, err := msg1.Texts.Get("fr"); err == nil {
		t.Fatalf("expected error for missing language fr")
	}
}

func TestParse_ArgsShorthand(t *testing.T) {
	d := mustParse(t, `
args:
  name: string
  score: mut integer
nodes:
  main:
    - message: hi
`)
	if d.Args.Decls["name"].Mutable {
		t.Fatalf("name should be immutable")
	}
	decl := d.Args.Decls["score"]
	if !decl.Mutable || decl.Type != ArgInteger {
		t.Fatalf("score decl = %+v", decl)
	}
}

func TestParse_AssignsStableLineIDs(t *testing.T) {
	src := `
nodes:
  main:
    - message: hi
`
	d1 := mustParse(t, src)
	d2 := mustParse(t, src)
	id1 := d1.Nodes.Items["main"][0].ID
	id2 := d2.Nodes.Items["main"][0].ID
	if id1 == "" {
		t.Fatalf("expected a synthesized id")
	}
	if id1 != id2 {
		t.Fatalf("synthesized ids are not stable across reloads: %q != %q", id1, id2)
	}
}

func TestParse_AuthoredIDIsPreserved(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - id: q1
      message: hi
`)
	if d.Nodes.Items["main"][0].ID != "q1" {
		t.Fatalf("id = %q", d.Nodes.Items["main"][0].ID)
	}
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func asValidationError(err error, target **ValidationError) bool {
	ve, ok := err.(*ValidationError)
	if ok {
		*target = ve
	}
	return ok
}
