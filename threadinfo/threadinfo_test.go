package threadinfo

import "testing"

func TestGetCreatesZeroValueEntry(t *testing.T) {
	r := NewRegistry()
	info := r.Get(1)
	if info.RecursionDepth != 0 || info.InsideFrameEval {
		t.Fatalf("expected zero-value info, got %+v", info)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestEnterExitFrameEvalTracksDepth(t *testing.T) {
	info := &Info{}
	if !info.EnterFrameEval() {
		t.Fatal("expected first enter to succeed")
	}
	if !info.InsideFrameEval || info.RecursionDepth != 1 {
		t.Fatalf("unexpected state after enter: %+v", info)
	}
	info.ExitFrameEval()
	if info.InsideFrameEval || info.RecursionDepth != 0 {
		t.Fatalf("unexpected state after exit: %+v", info)
	}
}

func TestEnterFrameEvalRejectsBeyondMaxDepth(t *testing.T) {
	info := &Info{RecursionDepth: defaultMaxRecursionDepth}
	if info.EnterFrameEval() {
		t.Fatal("expected enter to be rejected at max recursion depth")
	}
}

func TestShouldSkipFrame(t *testing.T) {
	cases := map[string]struct {
		info Info
		want bool
	}{
		"plain":          {info: Info{}, want: false},
		"skip-all":       {info: Info{SkipAllFrames: true}, want: true},
		"engine-thread":  {info: Info{IsEngineThread: true}, want: true},
		"max-recursion":  {info: Info{RecursionDepth: defaultMaxRecursionDepth}, want: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			info := tc.info
			if got := info.ShouldSkipFrame(); got != tc.want {
				t.Fatalf("ShouldSkipFrame() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMarkEngineThreadAndForget(t *testing.T) {
	r := NewRegistry()
	r.MarkEngineThread(7)
	if !r.Get(7).IsEngineThread {
		t.Fatal("expected thread 7 to be marked as engine thread")
	}
	r.Forget(7)
	if r.Len() != 0 {
		t.Fatalf("Len() after Forget = %d, want 0", r.Len())
	}
	// Get after Forget recreates a fresh, un-marked entry.
	if r.Get(7).IsEngineThread {
		t.Fatal("expected fresh entry after Forget to not be marked")
	}
}
