package ee

import "testing"

func TestEE_EvalBool(t *testing.T) {
	e := New()
	b, err := e.EvalBool("1 + 1 === 2")
	if err != nil || !b {
		t.Fatalf("EvalBool = %v, %v", b, err)
	}
	b, err = e.EvalBool("1 === 2")
	if err != nil || b {
		t.Fatalf("EvalBool = %v, %v", b, err)
	}
}

func TestEE_EvalBool_NonBooleanIsError(t *testing.T) {
	e := New()
	if _, err := e.EvalBool("1 + 1"); err == nil {
		t.Fatalf("expected error for non-boolean result")
	}
}

func TestEE_EvalTemplate(t *testing.T) {
	e := New()
	if err := e.Runtime().Set("x", 41); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := e.EvalTemplate("value is ${x + 1}")
	if err != nil {
		t.Fatalf("EvalTemplate: %v", err)
	}
	if got != "value is 42" {
		t.Fatalf("EvalTemplate = %q", got)
	}
}

func TestEE_EvalExpr(t *testing.T) {
	e := New()
	v, err := e.EvalExpr("2 + 2")
	if err != nil {
		t.Fatalf("EvalExpr: %v", err)
	}
	if n, ok := v.(int64); !ok || n != 4 {
		t.Fatalf("EvalExpr = %v (%T)", v, v)
	}
}

func TestCoerceU8(t *testing.T) {
	cases := []struct {
		in      any
		want    uint8
		wantErr bool
	}{
		{int64(3), 3, false},
		{float64(250), 250, false},
		{int64(-1), 0, true},
		{int64(256), 0, true},
		{"nope", 0, true},
	}
	for _, tc := range cases {
		got, err := CoerceU8(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("CoerceU8(%v): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("CoerceU8(%v) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
