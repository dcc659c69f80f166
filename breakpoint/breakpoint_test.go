package breakpoint

import "testing"

func TestCollectionAddAssignsMonotonicIDs(t *testing.T) {
	c := NewCollection()
	a := c.Add("f.go", 10, "", "", "")
	b := c.Add("f.go", 20, "x > 1", "", "")
	if a.Id() == b.Id() {
		t.Fatalf("expected distinct ids, got %d and %d", a.Id(), b.Id())
	}
	if b.Id() <= a.Id() {
		t.Fatalf("expected monotonic ids, got %d then %d", a.Id(), b.Id())
	}
}

func TestCollectionAllForFileBucketsByFile(t *testing.T) {
	c := NewCollection()
	c.Add("a.go", 1, "", "", "")
	c.Add("b.go", 2, "", "", "")

	if got := len(c.AllForFile("a.go")); got != 1 {
		t.Fatalf("a.go: got %d breakpoints, want 1", got)
	}
	if got := len(c.AllForFile("c.go")); got != 0 {
		t.Fatalf("c.go: got %d breakpoints, want 0", got)
	}
}

func TestCollectionSetForFileReplaces(t *testing.T) {
	c := NewCollection()
	c.Add("a.go", 1, "", "", "")
	c.Add("a.go", 2, "", "", "")

	out := c.SetForFile("a.go", []Spec{{Line: 5, Condition: "n > 0"}})
	if len(out) != 1 || out[0].Line != 5 {
		t.Fatalf("SetForFile did not replace: %+v", out)
	}
	if got := len(c.AllForFile("a.go")); got != 1 {
		t.Fatalf("got %d breakpoints after replace, want 1", got)
	}
}

func TestBreakpointIsConditionalAndLogpoint(t *testing.T) {
	c := NewCollection()
	plain := c.Add("a.go", 1, "", "", "")
	cond := c.Add("a.go", 2, "x > 1", "", "")
	hit := c.Add("a.go", 3, "", ">=3", "")
	log := c.Add("a.go", 4, "", "", "saw {x}")

	if plain.IsConditional() || plain.IsLogpoint() {
		t.Fatal("plain breakpoint misclassified")
	}
	if !cond.IsConditional() {
		t.Fatal("condition breakpoint not classified as conditional")
	}
	if !hit.IsConditional() {
		t.Fatal("hit-condition breakpoint not classified as conditional")
	}
	if !log.IsLogpoint() {
		t.Fatal("logpoint not classified as logpoint")
	}
}

func TestClearAndClearAll(t *testing.T) {
	c := NewCollection()
	c.Add("a.go", 1, "", "", "")
	c.Add("b.go", 1, "", "", "")

	c.Clear("a.go")
	if got := len(c.AllForFile("a.go")); got != 0 {
		t.Fatalf("Clear(a.go) left %d breakpoints", got)
	}
	if got := len(c.AllForFile("b.go")); got != 1 {
		t.Fatalf("Clear(a.go) affected b.go: %d breakpoints", got)
	}

	c.ClearAll()
	if got := len(c.Files()); got != 0 {
		t.Fatalf("ClearAll left %d files", got)
	}
}
