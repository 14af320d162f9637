package script

import (
	"strings"
	"testing"
	"time"
)

func TestParse_ConfirmShorthand(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - confirm: OK?
      options:
        response: { yes: Yes, no: No }
        message: { speed: 1.0 }
`)
	c := d.Nodes.Items["main"][0].Body.(Confirm)
	if got, _ := c.Message.Texts.Get(""); got != "OK?" {
		t.Fatalf("prompt = %q", got)
	}
	if c.Options == nil || c.Options.Response == nil {
		t.Fatalf("expected response options")
	}
	if got, _ := c.Options.Response.Yes.Get(""); got != "Yes" {
		t.Fatalf("yes text = %q", got)
	}
	if c.Message.Options == nil || c.Message.Options.Speed == nil || *c.Message.Options.Speed != 1.0 {
		t.Fatalf("message speed not wired from options.message: %+v", c.Message.Options)
	}
}

func TestParse_ChoiceSequenceAndMapping(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - choice: [Text1, Text2]
      options: { default: "0", timeout: 10.0, message: { texts: Pick one, options: { speed: 1.0 } } }
`)
	ch := d.Nodes.Items["main"][0].Body.(Choice)
	if len(ch.Texts.Keys) != 2 || ch.Texts.Keys[0] != "0" || ch.Texts.Keys[1] != "1" {
		t.Fatalf("keys = %v", ch.Texts.Keys)
	}
	if ch.Options == nil || ch.Options.Default == nil || *ch.Options.Default != "0" {
		t.Fatalf("default = %v", ch.Options.Default)
	}
	if ch.Options.Timeout == nil || *ch.Options.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", ch.Options.Timeout)
	}
	if ch.Options.Message == nil {
		t.Fatalf("expected inner message")
	}
	if got, _ := ch.Options.Message.Texts.Get(""); got != "Pick one" {
		t.Fatalf("message texts = %q", got)
	}

	d2 := mustParse(t, `
nodes:
  main:
    - choice: { foo: Foo, bar: Bar }
`)
	ch2 := d2.Nodes.Items["main"][0].Body.(Choice)
	if len(ch2.Texts.Keys) != 2 || ch2.Texts.Keys[0] != "foo" || ch2.Texts.Keys[1] != "bar" {
		t.Fatalf("keys = %v", ch2.Texts.Keys)
	}
}

func TestParse_GotoPositionAndID(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - goto: 1
    - goto: some_line_id
`)
	g0 := d.Nodes.Items["main"][0].Body.(Goto)
	if n, ok := g0.IsLiteralInt(); !ok || n != 1 {
		t.Fatalf("goto[0] = %+v", g0)
	}
	g1 := d.Nodes.Items["main"][1].Body.(Goto)
	if _, ok := g1.IsLiteralInt(); ok {
		t.Fatalf("goto[1] should not be a literal int: %q", g1.Raw)
	}
}

func TestParse_ExitLiteralAndExpr(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - exit: 0
    - exit: "1 + 2"
`)
	e0 := d.Nodes.Items["main"][0].Body.(Exit)
	if e0.Code == nil || *e0.Code != 0 {
		t.Fatalf("exit[0] = %+v", e0)
	}
	e1 := d.Nodes.Items["main"][1].Body.(Exit)
	if e1.Expr == nil || *e1.Expr != "1 + 2" {
		t.Fatalf("exit[1] = %+v", e1)
	}
}

func TestParse_ReturnAbsentVsExpression(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - return:
    - return: 42
`)
	r0 := d.Nodes.Items["main"][0].Body.(Return)
	if r0.Expr != nil {
		t.Fatalf("expected nil return expr, got %q", *r0.Expr)
	}
	r1 := d.Nodes.Items["main"][1].Body.(Return)
	if r1.Expr == nil || *r1.Expr != "42" {
		t.Fatalf("return[1] = %+v", r1)
	}
}

func TestParse_IfGuardAttached(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - id: q1
      if: lines.q0.selected === "a"
      message: ok
`)
	line := d.Nodes.Items["main"][0]
	if line.If == nil || !strings.Contains(*line.If, "selected") {
		t.Fatalf("if = %v", line.If)
	}
}

// P1 (round-trip), restricted to normalized re-parse equality rather than
// byte equality: serialize(parse(s)) must re-parse to an identical model.
func TestSerialize_RoundTripsThroughReparse(t *testing.T) {
	src := `
name: greeting
actor: { num: 2 }
args:
  score: mut integer
nodes:
  main:
    - message: { en: Hi, ja: こんにちは }
      owner: 1
      options: { speed: 1.0, emotion: happy, listeners: [1] }
    - choice: [Text1, Text2]
      options: { default: "0", timeout: 10.0 }
    - eval: score = score + 1
`
	d1 := mustParse(t, src)
	out, err := Serialize(d1)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	d2, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse of serialized output: %v\n%s", err, out)
	}

	if *d1.Name != *d2.Name {
		t.Fatalf("name mismatch: %q vs %q", *d1.Name, *d2.Name)
	}
	if d1.Actor.Num != d2.Actor.Num {
		t.Fatalf("actor.num mismatch: %d vs %d", d1.Actor.Num, d2.Actor.Num)
	}
	msg1 := d1.Nodes.Items["main"][0].Body.(Message)
	msg2 := d2.Nodes.Items["main"][0].Body.(Message)
	if msg1.Owner != msg2.Owner {
		t.Fatalf("owner mismatch: %d vs %d", msg1.Owner, msg2.Owner)
	}
	if got1, _ := msg1.Texts.Get("ja"); true {
		got2, _ := msg2.Texts.Get("ja")
		if got1 != got2 {
			t.Fatalf("ja text mismatch: %q vs %q", got1, got2)
		}
	}
}

func TestSerialize_ElidesDefaultActorAndOwner(t *testing.T) {
	d := mustParse(t, `
nodes:
  main:
    - message: hi
`)
	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "actor:") {
		t.Fatalf("expected default actor.num to be elided, got:\n%s", s)
	}
	if strings.Contains(s, "owner:") {
		t.Fatalf("expected default owner to be elided, got:\n%s", s)
	}
}
