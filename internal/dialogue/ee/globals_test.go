package ee

import "testing"

type fakeGlobals struct {
	pos   int
	lines []LineSnapshot
}

func (f *fakeGlobals) CurrentLinePosition() int { return f.pos }
func (f *fakeGlobals) Lines() []LineSnapshot     { return f.lines }

func TestInstallGlobals_SelfPrevNext(t *testing.T) {
	g := &fakeGlobals{
		pos: 1,
		lines: []LineSnapshot{
			{ID: "l0", Visited: true, VisitedCount: 1},
			{ID: "l1", Visited: false, VisitedCount: 0},
			{ID: "l2", Visited: false, VisitedCount: 0},
		},
	}
	e := New()
	if err := InstallGlobals(e.Runtime(), g); err != nil {
		t.Fatalf("InstallGlobals: %v", err)
	}

	if got, err := e.EvalExpr("self.id"); err != nil || got != "l1" {
		t.Fatalf("self.id = %v, %v", got, err)
	}
	if got, err := e.EvalExpr("prev.id"); err != nil || got != "l0" {
		t.Fatalf("prev.id = %v, %v", got, err)
	}
	if got, err := e.EvalExpr("next.id"); err != nil || got != "l2" {
		t.Fatalf("next.id = %v, %v", got, err)
	}
	if got, err := e.EvalExpr("lines[0].visited"); err != nil || got != true {
		t.Fatalf("lines[0].visited = %v, %v", got, err)
	}
	if got, err := e.EvalExpr("lines.l0.visited_count_next"); err != nil || got != int64(2) {
		t.Fatalf("lines.l0.visited_count_next = %v, %v", got, err)
	}
}

func TestInstallGlobals_PrevUndefinedAtStart(t *testing.T) {
	g := &fakeGlobals{pos: 0, lines: []LineSnapshot{{ID: "l0"}}}
	e := New()
	if err := InstallGlobals(e.Runtime(), g); err != nil {
		t.Fatalf("InstallGlobals: %v", err)
	}
	if got, err := e.EvalExpr("prev === undefined"); err != nil || got != true {
		t.Fatalf("prev === undefined : %v, %v", got, err)
	}
}

func TestInstallGlobals_LiveGetterSeesUpdatedState(t *testing.T) {
	g := &fakeGlobals{pos: 0, lines: []LineSnapshot{{ID: "l0", VisitedCount: 0}}}
	e := New()
	if err := InstallGlobals(e.Runtime(), g); err != nil {
		t.Fatalf("InstallGlobals: %v", err)
	}
	if got, _ := e.EvalExpr("self.visited_count"); got != int64(0) {
		t.Fatalf("visited_count before mutation = %v", got)
	}
	g.lines[0].VisitedCount = 5
	if got, _ := e.EvalExpr("self.visited_count"); got != int64(5) {
		t.Fatalf("live getter did not observe mutation, got %v", got)
	}
}

func TestInstallArgs_ImmutableAndMutable(t *testing.T) {
	e := New()
	cell := NewArgCell(int64(10))
	if err := InstallArgs(e.Runtime(), map[string]any{"name": "Ada"}, map[string]*ArgCell{"score": cell}); err != nil {
		t.Fatalf("InstallArgs: %v", err)
	}
	if got, _ := e.EvalExpr("name"); got != "Ada" {
		t.Fatalf("name = %v", got)
	}
	if got, _ := e.EvalExpr("score"); got != int64(10) {
		t.Fatalf("score = %v", got)
	}
	if _, err := e.EvalExpr("score = score + 1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got := cell.Get(); got != int64(11) {
		t.Fatalf("cell after assign = %v", got)
	}
	if got, _ := e.EvalExpr("score"); got != int64(11) {
		t.Fatalf("score after assign = %v", got)
	}
}
