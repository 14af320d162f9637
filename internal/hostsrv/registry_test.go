package hostsrv

import (
	"testing"
	"time"

	"github.com/dialogrun/diavolo/internal/dialogue/config"
	"github.com/dialogrun/diavolo/internal/dialogue/runner"
	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

func newTestSession(t *testing.T, id string) *Session {
	t.Helper()
	d, err := script.Parse([]byte(`
nodes:
  main:
    - message: hi
    - exit: 0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	run, err := runner.Instantiate(config.Default(), d, 1, nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return &Session{ID: id, StartedAt: time.Now().UTC(), run: run}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	sess := newTestSession(t, "sess-1")

	if err := r.Register(sess); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, ok := r.Get("sess-1")
	if !ok {
		t.Fatal("expected to find session")
	}
	if got.ID != "sess-1" {
		t.Fatalf("unexpected session ID: %s", got.ID)
	}
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := NewRegistry()
	sess := newTestSession(t, "sess-1")

	if err := r.Register(sess); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(sess); err == nil {
		t.Fatal("expected error on duplicate register")
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nonexistent"); ok {
		t.Fatal("expected not found")
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newTestSession(t, "a")); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := r.Register(newTestSession(t, "b")); err != nil {
		t.Fatalf("Register b: %v", err)
	}

	ids := r.List()
	if len(ids) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(ids))
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newTestSession(t, "a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.Remove("a")
	if _, ok := r.Get("a"); ok {
		t.Fatal("expected session to be removed")
	}
}

func TestSession_ViewAndDispatch(t *testing.T) {
	sess := newTestSession(t, "sess-1")

	v := sess.View()
	if v.Kind != runner.KindMessage {
		t.Fatalf("expected message view, got %v", v.Kind)
	}

	if sess.Terminated() {
		t.Fatal("expected session not yet terminated")
	}

	if _, err := sess.Dispatch(runner.Skip()); err != nil {
		t.Fatalf("Dispatch Skip: %v", err)
	}
	if _, err := sess.Dispatch(runner.Advance()); err != nil {
		t.Fatalf("Dispatch Advance: %v", err)
	}
	if !sess.Terminated() {
		t.Fatal("expected session terminated after exit line")
	}
}
