package idhash

import "testing"

func TestComputeEventID(t *testing.T) {
	tests := []struct {
		name     string
		digest   string
		eventSeq string
	}{
		{"first event", "9yTx1", "0"},
		{"second event same tx", "9yTx1", "1"},
		{"other tx", "AbCdEf", "0"},
	}

	seen := make(map[string]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEventID(tt.digest, tt.eventSeq)
			if len(got) != 64 {
				t.Errorf("expected 64 hex chars, got %d", len(got))
			}
			if prev, ok := seen[got]; ok {
				t.Errorf("collision with %s", prev)
			}
			seen[got] = tt.name
		})
	}
}

func TestComputeEventID_Deterministic(t *testing.T) {
	a := ComputeEventID("digest", "3")
	b := ComputeEventID("digest", "3")
	if a != b {
		t.Errorf("expected identical ids, got %s and %s", a, b)
	}
}

func TestComputeEventID_SeparatorMatters(t *testing.T) {
	// "ab|1" and "a|b1" must not collide
	if ComputeEventID("ab", "1") == ComputeEventID("a", "b1") {
		t.Error("expected distinct ids")
	}
}
