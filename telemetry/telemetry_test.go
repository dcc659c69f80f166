package telemetry

import "testing"

func TestRecordIncrementsCounts(t *testing.T) {
	tel := New()
	tel.Record(ReasonBudgetExceeded, map[string]string{"expr": "x > 1"})
	tel.Record(ReasonBudgetExceeded, nil)

	snap := tel.Snapshot()
	if snap.ReasonCounts[ReasonBudgetExceeded] != 2 {
		t.Fatalf("count = %d, want 2", snap.ReasonCounts[ReasonBudgetExceeded])
	}
	if len(snap.RecentEvents) != 2 {
		t.Fatalf("recent events = %d, want 2", len(snap.RecentEvents))
	}
}

func TestSnapshotOmitsZeroCounts(t *testing.T) {
	tel := New()
	snap := tel.Snapshot()
	if len(snap.ReasonCounts) != 0 {
		t.Fatalf("expected empty counts, got %v", snap.ReasonCounts)
	}
}

func TestRecentEventsRingBufferEvictsOldest(t *testing.T) {
	tel := New()
	for i := 0; i < maxRecentEvents+10; i++ {
		tel.Record(ReasonHotReloadFailed, map[string]string{"i": string(rune('a' + i%26))})
	}
	snap := tel.Snapshot()
	if len(snap.RecentEvents) != maxRecentEvents {
		t.Fatalf("recent events = %d, want %d", len(snap.RecentEvents), maxRecentEvents)
	}
	if snap.ReasonCounts[ReasonHotReloadFailed] != maxRecentEvents+10 {
		t.Fatalf("count should track all occurrences regardless of ring buffer eviction, got %d", snap.ReasonCounts[ReasonHotReloadFailed])
	}
}

func TestClearResetsState(t *testing.T) {
	tel := New()
	tel.Record(ReasonHotReloadSucceeded, nil)
	tel.Clear()
	snap := tel.Snapshot()
	if len(snap.ReasonCounts) != 0 || len(snap.RecentEvents) != 0 {
		t.Fatal("Clear() did not reset state")
	}
}
