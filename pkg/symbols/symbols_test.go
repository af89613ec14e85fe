package symbols

import "testing"

func TestNewSetRejectsEmpty(t *testing.T) {
	if _, err := NewSet(nil); err == nil {
		t.Fatalf("expected an error for an empty label list")
	}
}

func TestNewSetDedupsKeepingFirstOccurrenceOrder(t *testing.T) {
	s, err := NewSet([]string{"b", "a", "b", "c", "a"})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 distinct symbols, got %d", s.Len())
	}
	want := []string{"b", "a", "c"}
	for i, w := range want {
		if got := s.At(i); got != w {
			t.Fatalf("At(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestIndexOfRoundTripsWithAt(t *testing.T) {
	s, err := NewSet([]string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	for i := 0; i < s.Len(); i++ {
		idx, ok := s.IndexOf(s.At(i))
		if !ok || idx != i {
			t.Fatalf("IndexOf(%q) = (%d, %v), want (%d, true)", s.At(i), idx, ok, i)
		}
	}
	if _, ok := s.IndexOf("missing"); ok {
		t.Fatalf("expected IndexOf to report false for a symbol not in the set")
	}
}

func TestNewPairTableCanonicalOrder(t *testing.T) {
	s1, err := NewSet([]string{"a", "b"})
	if err != nil {
		t.Fatalf("NewSet s1: %v", err)
	}
	s2, err := NewSet([]string{"s", "t"})
	if err != nil {
		t.Fatalf("NewSet s2: %v", err)
	}

	table := NewPairTable(s1, s2)
	if table.N() != 4 {
		t.Fatalf("expected N()=4, got %d", table.N())
	}

	// i = i2*len(S1) + i1: (a,s)=0, (b,s)=1, (a,t)=2, (b,t)=3.
	want := []Pair{
		{Left: "a", Right: "s", LeftIndex: 0, RightIndex: 0},
		{Left: "b", Right: "s", LeftIndex: 1, RightIndex: 0},
		{Left: "a", Right: "t", LeftIndex: 0, RightIndex: 1},
		{Left: "b", Right: "t", LeftIndex: 1, RightIndex: 1},
	}
	for i, w := range want {
		if table.Pairs[i] != w {
			t.Fatalf("Pairs[%d] = %+v, want %+v", i, table.Pairs[i], w)
		}
	}
}
