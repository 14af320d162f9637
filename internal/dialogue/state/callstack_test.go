package state

import "testing"

func TestCallStack_AdvanceInitializesThenIncrements(t *testing.T) {
	s := NewCallStack()
	if err := s.Call("main"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if s.Top().LinePosition != UninitializedPosition {
		t.Fatalf("expected uninitialized position, got %d", s.Top().LinePosition)
	}
	s.Advance()
	if s.Top().LinePosition != 0 {
		t.Fatalf("expected position 0 after first advance, got %d", s.Top().LinePosition)
	}
	s.Advance()
	if s.Top().LinePosition != 1 {
		t.Fatalf("expected position 1 after second advance, got %d", s.Top().LinePosition)
	}
}

func TestCallStack_DepthLimitIsFatal(t *testing.T) {
	s := NewCallStack()
	for i := 0; i < MaxCallDepth; i++ {
		if err := s.Call("n"); err != nil {
			t.Fatalf("Call %d: %v", i, err)
		}
	}
	if err := s.Call("overflow"); err == nil {
		t.Fatalf("expected depth-exceeded error")
	}
	if s.Depth() != MaxCallDepth {
		t.Fatalf("depth = %d, want %d (failed call must not push)", s.Depth(), MaxCallDepth)
	}
}

func TestCallStack_GotoAndIsLastLine(t *testing.T) {
	s := NewCallStack()
	s.Call("main")
	s.Advance()
	s.Goto(2)
	if !s.IsLastLine(3) {
		t.Fatalf("expected position 2 to be the last of a 3-line node")
	}
	if s.IsLastLine(4) {
		t.Fatalf("position 2 should not be last of a 4-line node")
	}
}

func TestCallStack_PopAndClear(t *testing.T) {
	s := NewCallStack()
	s.Call("main")
	s.Call("foo")
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("depth after pop = %d", s.Depth())
	}
	s.Clear()
	if !s.Empty() {
		t.Fatalf("expected empty stack after Clear")
	}
}
